package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"port"`

	WeatherAPIKey     string        `mapstructure:"weather_api_key"`
	WeatherAPIBaseURL string        `mapstructure:"weather_api_base_url"`
	GeocodeBaseURL    string        `mapstructure:"geocode_base_url"`
	FallbackCity      string        `mapstructure:"fallback_city"`
	ForecastDays      int           `mapstructure:"forecast_days"`
	SuggestDebounce   time.Duration `mapstructure:"suggest_debounce"`
	UpstreamTimeout   time.Duration `mapstructure:"upstream_timeout"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	ForecastCacheTTL  time.Duration `mapstructure:"forecast_cache_ttl"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	// Rate limiting is an operator guard for the upstream quota and stays off
	// unless RateLimitRPS is set above 0.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	MQTTBrokerURL   string `mapstructure:"mqtt_broker_url"`
	MQTTClientID    string `mapstructure:"mqtt_client_id"`
	MQTTTopicPrefix string `mapstructure:"mqtt_topic_prefix"`
	MQTTUsername    string `mapstructure:"mqtt_username"`
	MQTTPassword    string `mapstructure:"mqtt_password"`
	// MQTTTLSInsecure skips broker certificate checks on mqtts:// brokers.
	MQTTTLSInsecure bool `mapstructure:"mqtt_tls_insecure"`

	OTLPEndpoint string `mapstructure:"otel_exporter_otlp_endpoint"`
	LogFormat    string `mapstructure:"log_format"`
	LogLevel     string `mapstructure:"log_level"`
}

var defaults = map[string]any{
	"port":                 "8096",
	"weather_api_base_url": "https://api.weatherapi.com",
	"geocode_base_url":     "https://api.bigdatacloud.net",
	"fallback_city":        "Lagos",
	"forecast_days":        5,
	"suggest_debounce":     "300ms",
	"upstream_timeout":     "10s",
	"session_ttl":          "30m",
	"forecast_cache_ttl":   "5m",
	"redis_db":             0,
	"rate_limit_rps":       0,
	"rate_limit_burst":     10,
	"mqtt_client_id":       "weather-app",
	"mqtt_topic_prefix":    "weather",
	"mqtt_tls_insecure":    false,
	"log_format":           "text",
	"log_level":            "info",
}

// keys without a default still need binding so AutomaticEnv sees them on Unmarshal.
var unsetKeys = []string{
	"weather_api_key",
	"redis_addr",
	"redis_password",
	"mqtt_broker_url",
	"mqtt_username",
	"mqtt_password",
	"otel_exporter_otlp_endpoint",
}

// Load reads configuration from a .env file (if present), an optional YAML file
// named by WEATHER_APP_CONFIG, and the environment, in increasing precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	for _, k := range unsetKeys {
		if err := v.BindEnv(k); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", k, err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("WEATHER_APP_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// PORT wins over WEATHER_APP_PORT.
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	} else if port := os.Getenv("WEATHER_APP_PORT"); port != "" {
		cfg.Port = port
	}

	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = 5
	}
	if cfg.SuggestDebounce <= 0 {
		cfg.SuggestDebounce = 300 * time.Millisecond
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 10 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if strings.TrimSpace(cfg.FallbackCity) == "" {
		cfg.FallbackCity = "Lagos"
	}
	return cfg, nil
}

// RateLimitEnabled reports whether the operator asked for request limiting. It
// needs Redis for the shared buckets.
func (c Config) RateLimitEnabled() bool {
	return c.RedisAddr != "" && c.RateLimitRPS > 0
}

// Logger builds the process logger from LogFormat and LogLevel.
func (c Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
