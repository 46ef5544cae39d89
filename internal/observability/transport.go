package observability

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Transport counts, times and traces outbound calls to one upstream API.
type Transport struct {
	Upstream string
	Base     http.RoundTripper
}

// NewHTTPClient returns a client whose calls are recorded under upstream.
func NewHTTPClient(upstream string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &Transport{Upstream: upstream},
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	ctx, span := otel.Tracer("weather-app/upstream").Start(req.Context(), t.Upstream+" "+req.Method,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("net.peer.name", req.URL.Host),
		attribute.String("upstream", t.Upstream),
	)

	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := base.RoundTrip(req)
	upstreamDuration.WithLabelValues(t.Upstream).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		upstreamCounter.WithLabelValues(t.Upstream, "error").Inc()
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, "status "+strconv.Itoa(resp.StatusCode))
	}
	upstreamCounter.WithLabelValues(t.Upstream, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}
