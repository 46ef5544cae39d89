package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "WEATHER_APP_PORT", "WEATHER_APP_CONFIG", "WEATHER_API_KEY", "FALLBACK_CITY",
		"FORECAST_DAYS", "FORECAST_CACHE_TTL", "SUGGEST_DEBOUNCE", "UPSTREAM_TIMEOUT", "SESSION_TTL", "REDIS_ADDR", "RATE_LIMIT_RPS",
		"MQTT_BROKER_URL", "MQTT_TOPIC_PREFIX", "MQTT_USERNAME", "MQTT_PASSWORD", "MQTT_TLS_INSECURE",
		"LOG_FORMAT", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8096" {
		t.Fatalf("expected default port 8096, got %q", cfg.Port)
	}
	if cfg.FallbackCity != "Lagos" || cfg.ForecastDays != 5 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SuggestDebounce != 300*time.Millisecond || cfg.UpstreamTimeout != 10*time.Second || cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if cfg.ForecastCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected forecast cache ttl %v", cfg.ForecastCacheTTL)
	}
	if cfg.WeatherAPIKey != "" || cfg.RedisAddr != "" || cfg.MQTTBrokerURL != "" {
		t.Fatalf("expected optional integrations disabled: %+v", cfg)
	}
	if cfg.RateLimitRPS != 0 || cfg.RateLimitBurst != 10 {
		t.Fatalf("unexpected rate limit defaults: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.MQTTTopicPrefix != "weather" {
		t.Fatalf("unexpected topic prefix %q", cfg.MQTTTopicPrefix)
	}
	if cfg.MQTTTLSInsecure {
		t.Fatalf("expected broker certificate checks on by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHER_APP_PORT", "9000")
	t.Setenv("WEATHER_API_KEY", "k123")
	t.Setenv("FALLBACK_CITY", "Accra")
	t.Setenv("FORECAST_DAYS", "3")
	t.Setenv("SUGGEST_DEBOUNCE", "150ms")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("MQTT_USERNAME", "svc")
	t.Setenv("MQTT_TLS_INSECURE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.WeatherAPIKey != "k123" || cfg.FallbackCity != "Accra" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.ForecastDays != 3 || cfg.SuggestDebounce != 150*time.Millisecond || cfg.SessionTTL != 5*time.Minute {
		t.Fatalf("env values not parsed: %+v", cfg)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected redis addr, got %q", cfg.RedisAddr)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate limiting enabled at 2.5 rps, got %v", cfg.RateLimitRPS)
	}
	if cfg.MQTTUsername != "svc" || !cfg.MQTTTLSInsecure {
		t.Fatalf("mqtt env not applied: user=%q insecure=%v", cfg.MQTTUsername, cfg.MQTTTLSInsecure)
	}

	t.Setenv("PORT", "7000")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7000" {
		t.Fatalf("expected PORT to take precedence, got %q", cfg.Port)
	}
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "weather.yaml")
	body := "fallback_city: Nairobi\nmqtt_broker_url: tcp://broker:1883\nupstream_timeout: 3s\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WEATHER_APP_CONFIG", path)
	t.Setenv("FALLBACK_CITY", "Cairo")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTTBrokerURL != "tcp://broker:1883" || cfg.UpstreamTimeout != 3*time.Second {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
	if cfg.FallbackCity != "Cairo" {
		t.Fatalf("expected env to override yaml, got %q", cfg.FallbackCity)
	}
}

func TestLoadMissingYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHER_APP_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLogger(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		level     string
		debugOn   bool
		warnOn    bool
		logFormat string
	}{
		{"debug", true, true, "text"},
		{"info", false, true, "json"},
		{"error", false, false, "text"},
		{"bogus", false, true, "text"},
	}
	for _, tt := range tests {
		l := Config{LogLevel: tt.level, LogFormat: tt.logFormat}.Logger()
		if got := l.Enabled(ctx, slog.LevelDebug); got != tt.debugOn {
			t.Fatalf("level %q: debug enabled = %v", tt.level, got)
		}
		if got := l.Enabled(ctx, slog.LevelWarn); got != tt.warnOn {
			t.Fatalf("level %q: warn enabled = %v", tt.level, got)
		}
	}
}

func TestRateLimitEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"defaults", Config{}, false},
		{"redis without rps", Config{RedisAddr: "redis:6379"}, false},
		{"rps without redis", Config{RateLimitRPS: 5}, false},
		{"explicitly enabled", Config{RedisAddr: "redis:6379", RateLimitRPS: 5}, true},
	}
	for _, tt := range tests {
		if got := tt.cfg.RateLimitEnabled(); got != tt.want {
			t.Fatalf("%s: RateLimitEnabled() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
