package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	AccessCacheTTL    time.Duration
	MessageChannel    string
	SubmitRateLimit   int
	SubmitRateWindow  time.Duration
	MessageRateLimit  int
	MessageRateWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "SkillDesk LMS API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("access.cache_ttl", "5m")
	v.SetDefault("message.channel", "lms.messages")
	v.SetDefault("submit.rate_limit", 5)
	v.SetDefault("submit.rate_window", "1s")
	v.SetDefault("message.rate_limit", 20)
	v.SetDefault("message.rate_window", "1s")

	ttl, err := parseDuration(v.GetString("access.cache_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid access cache ttl: %w", err)
	}

	submitWindow, err := parseDuration(v.GetString("submit.rate_window"), time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid submit rate window: %w", err)
	}

	messageWindow, err := parseDuration(v.GetString("message.rate_window"), time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid message rate window: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		AccessCacheTTL:    ttl,
		MessageChannel:    v.GetString("message.channel"),
		SubmitRateLimit:   v.GetInt("submit.rate_limit"),
		SubmitRateWindow:  submitWindow,
		MessageRateLimit:  v.GetInt("message.rate_limit"),
		MessageRateWindow: messageWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
