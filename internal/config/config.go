package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv               string        `validate:"oneof=development production test"`
	LogLevel             string        `validate:"oneof=debug info warn error"`
	Port                 string        `validate:"required,numeric"`
	PlatformAPIBaseURL   string        `validate:"required,url"`
	PostgresURL          string        // empty disables attempt history
	TestDuration         time.Duration `validate:"gt=0"`
	HTTPClientTimeout    time.Duration `validate:"gt=0"`
	ResultPersistTimeout time.Duration `validate:"gt=0"`
	SessionIdleTTL       time.Duration `validate:"gtfield=TestDuration"`
	JanitorSchedule      string        `validate:"required"`
	CORSAllowOrigins     []string      `validate:"min=1"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Port:                 getEnv("PORT", "8080"),
		PlatformAPIBaseURL:   strings.TrimRight(getEnv("PLATFORM_API_BASE_URL", "http://localhost:5000/api"), "/"),
		PostgresURL:          os.Getenv("POSTGRES_URL"),
		TestDuration:         time.Duration(getEnvInt("TEST_DURATION_SECONDS", 1800)) * time.Second,
		HTTPClientTimeout:    getEnvDuration("HTTP_CLIENT_TIMEOUT", 15*time.Second),
		ResultPersistTimeout: getEnvDuration("RESULT_PERSIST_TIMEOUT", 10*time.Second),
		SessionIdleTTL:       getEnvDuration("SESSION_IDLE_TTL", 2*time.Hour),
		JanitorSchedule:      getEnv("JANITOR_SCHEDULE", "@every 1m"),
		CORSAllowOrigins:     splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) HistoryEnabled() bool {
	return c.PostgresURL != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvDuration accepts Go duration strings ("90s", "2h") or plain seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
