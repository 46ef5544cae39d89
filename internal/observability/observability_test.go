package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestTransportCountsUpstreamCalls(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	client := NewHTTPClient("transport-test", time.Second)
	for _, path := range []string{"/ok", "/ok", "/missing"} {
		resp, err := client.Get(upstream.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
	}

	if got := testutil.ToFloat64(upstreamCounter.WithLabelValues("transport-test", "200")); got != 2 {
		t.Fatalf("expected 2 ok calls, got %v", got)
	}
	if got := testutil.ToFloat64(upstreamCounter.WithLabelValues("transport-test", "404")); got != 1 {
		t.Fatalf("expected 1 not-found call, got %v", got)
	}
}

func TestTransportCountsNetworkErrors(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	client := NewHTTPClient("transport-down", time.Second)
	if _, err := client.Get(url); err == nil {
		t.Fatalf("expected error from closed server")
	}
	if got := testutil.ToFloat64(upstreamCounter.WithLabelValues("transport-down", "error")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsAndTracingMiddleware(noop.NewTracerProvider().Tracer("test"), "mw-test"))
	r.Get("/api/sessions/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		rw := httptest.NewRecorder()
		r.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
		if rw.Code != http.StatusTeapot {
			t.Fatalf("expected 418, got %d", rw.Code)
		}
	}

	got := testutil.ToFloat64(requestCounter.WithLabelValues("mw-test", "/api/sessions/{id}", "GET", "418"))
	if got != 2 {
		t.Fatalf("expected 2 requests under the route pattern, got %v", got)
	}
}
