package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the forum API.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	AllowOrigins    string
	AccessLog       bool
	DatabaseDriver  string
	DatabaseURL     string
	RedisURL        string
	NATSURL         string
	NATSSubject     string
	JWTSecret       string
	ScoreCacheTTL   time.Duration
	ThreadsPerPage  int
	RepliesPerPage  int
	RateLimitMax    int
	RateLimitWindow time.Duration
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
	v.SetEnvPrefix("FORUM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Campus Forum API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("http.allow_origins", "*")
	v.SetDefault("http.access_log", false)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("nats.subject", "forum.events")
	v.SetDefault("cache.score_ttl", "2m")
	v.SetDefault("forum.threads_per_page", 15)
	v.SetDefault("forum.replies_per_page", 10)
	v.SetDefault("ratelimit.max", 30)
	v.SetDefault("ratelimit.window", "1m")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	scoreTTL, err := parseDuration(v.GetString("cache.score_ttl"), 2*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid score cache ttl: %w", err)
	}

	window, err := parseDuration(v.GetString("ratelimit.window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		AllowOrigins:    v.GetString("http.allow_origins"),
		AccessLog:       v.GetBool("http.access_log"),
		DatabaseDriver:  strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:     v.GetString("database.url"),
		RedisURL:        v.GetString("redis.url"),
		NATSURL:         v.GetString("nats.url"),
		NATSSubject:     v.GetString("nats.subject"),
		JWTSecret:       v.GetString("jwt.secret"),
		ScoreCacheTTL:   scoreTTL,
		ThreadsPerPage:  v.GetInt("forum.threads_per_page"),
		RepliesPerPage:  v.GetInt("forum.replies_per_page"),
		RateLimitMax:    v.GetInt("ratelimit.max"),
		RateLimitWindow: window,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.ThreadsPerPage <= 0 {
		cfg.ThreadsPerPage = 15
	}

	if cfg.RepliesPerPage <= 0 {
		cfg.RepliesPerPage = 10
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
