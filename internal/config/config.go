package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

const defaultJWTSecret = "dev-secret-change-me"

type Config struct {
	Port                  string
	DatabaseDriver        string
	DatabaseDSN           string
	JWTSecret             string
	Env                   string
	LogLevel              string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	BcryptCost            int
	CORSOrigins           []string
	RateLimitRPS          int
	RateLimitBurst        int
	ServiceName           string
	// OTelExporter is one of none, stdout or otlp.
	OTelExporter     string
	OTelOTLPEndpoint string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// getenvInt falls back to def for unparsable or non-positive values.
func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(getenv(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func Load() Config {
	return Config{
		Port:                  getenv("APP_PORT", "8080"),
		DatabaseDriver:        getenv("DATABASE_DRIVER", "postgres"),
		DatabaseDSN:           getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=louer port=5432 sslmode=disable TimeZone=UTC"),
		JWTSecret:             getenv("JWT_SECRET", defaultJWTSecret),
		Env:                   getenv("APP_ENV", "dev"),
		LogLevel:              getenv("LOG_LEVEL", ""),
		AccessTokenTTLMinutes: getenvInt("ACCESS_TOKEN_TTL_MINUTES", 15),
		RefreshTokenTTLDays:   getenvInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:            getenvInt("BCRYPT_COST", 10),
		CORSOrigins:           splitList(getenv("CORS_ORIGINS", "")),
		RateLimitRPS:          getenvInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst:        getenvInt("RATE_LIMIT_BURST", 40),
		ServiceName:           getenv("SERVICE_NAME", "louer"),
		OTelExporter:          strings.ToLower(getenv("OTEL_EXPORTER", "none")),
		OTelOTLPEndpoint:      getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// Validate rejects configurations the server must not start with.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("APP_PORT must not be empty")
	}
	if strings.TrimSpace(cfg.DatabaseDSN) == "" {
		return errors.New("DATABASE_DSN must not be empty")
	}
	if cfg.Env != "dev" && (cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret) {
		return errors.New("JWT_SECRET must be set outside dev")
	}
	switch cfg.DatabaseDriver {
	case "", "postgres", "sqlite":
	default:
		return errors.New("DATABASE_DRIVER must be postgres or sqlite")
	}
	switch cfg.OTelExporter {
	case "", "none", "stdout":
	case "otlp":
		if cfg.OTelOTLPEndpoint == "" {
			return errors.New("OTEL_EXPORTER_OTLP_ENDPOINT is required for the otlp exporter")
		}
	default:
		return errors.New("OTEL_EXPORTER must be none, stdout or otlp")
	}
	return nil
}
