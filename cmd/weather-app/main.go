package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dev-Dami/Weather-App/internal/cache"
	"github.com/Dev-Dami/Weather-App/internal/config"
	"github.com/Dev-Dami/Weather-App/internal/geocode"
	"github.com/Dev-Dami/Weather-App/internal/httpapi"
	"github.com/Dev-Dami/Weather-App/internal/mqtt"
	"github.com/Dev-Dami/Weather-App/internal/observability"
	"github.com/Dev-Dami/Weather-App/internal/ratelimit"
	"github.com/Dev-Dami/Weather-App/internal/realtime"
	"github.com/Dev-Dami/Weather-App/internal/session"
	"github.com/Dev-Dami/Weather-App/internal/store"
	"github.com/Dev-Dami/Weather-App/internal/weatherapi"
)

const serviceName = "weather-app"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Logger())

	shutdownObs, promHandler, tracer, err := observability.SetupObservability(serviceName, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to set up observability", "error", err)
		os.Exit(1)
	}
	defer shutdownObs()

	weatherClient := weatherapi.New(weatherapi.Options{
		APIKey:  cfg.WeatherAPIKey,
		BaseURL: cfg.WeatherAPIBaseURL,
		Days:    cfg.ForecastDays,
		Timeout: cfg.UpstreamTimeout,
	})
	if weatherClient.UsesSampleData() {
		slog.Warn("WEATHER_API_KEY not set, serving sample weather data")
	}
	resolver := geocode.NewResolver(geocode.NewClient(cfg.GeocodeBaseURL, cfg.UpstreamTimeout), cfg.FallbackCity)

	hub := realtime.NewHub()
	listeners := session.Listeners{hub}

	var mirror session.Mirror
	var limiter *ratelimit.RateLimiter
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := store.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			slog.Warn("redis unavailable, sessions will not be mirrored", "error", err)
		} else {
			defer rdb.Close()
			views := store.NewViewStore(rdb, cfg.SessionTTL)
			listeners = append(listeners, views)
			mirror = views
			slog.Info("session mirror enabled", "addr", cfg.RedisAddr)
			if cfg.RateLimitEnabled() {
				limiter = ratelimit.New(rdb, "weather:rl", ratelimit.LimiterConfig{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst})
			}
		}
	}

	if cfg.MQTTBrokerURL != "" {
		mq, err := mqtt.Connect(mqtt.Options{
			BrokerURL:   cfg.MQTTBrokerURL,
			ClientID:    cfg.MQTTClientID,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			TLSInsecure: cfg.MQTTTLSInsecure,
		})
		if err != nil {
			slog.Warn("mqtt unavailable, snapshots will not be published", "error", err)
		} else {
			defer mq.Close()
			listeners = append(listeners, mqtt.NewPublisher(mq, cfg.MQTTTopicPrefix))
		}
	}

	manager := session.NewManager(session.Deps{
		Resolver: resolver,
		Weather:  weatherClient,
		Listener: listeners,
		Debounce: cfg.SuggestDebounce,
		Timeout:  cfg.UpstreamTimeout,
	}, cfg.SessionTTL, mirror)

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	go manager.Run(runCtx)

	api := httpapi.NewServer(httpapi.Options{
		Resolver: resolver,
		Weather:  weatherClient,
		Cache:    cache.New(cfg.ForecastCacheTTL),
		Sessions: manager,
		Stream:   hub,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(observability.MetricsAndTracingMiddleware(tracer, serviceName))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Trace-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promHandler)

	r.Route("/api", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware(ratelimit.KeyByIP))
		}
		api.RegisterRoutes(r)
	})

	// No write timeout: websocket streams are long-lived.
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("weather-app started", "port", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down")
	stopRun()
	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	manager.Close()
	hub.Close()
}
