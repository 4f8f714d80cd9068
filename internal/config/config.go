package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DBDSN         string
	DBMaxConns    int32
	ServerPort    string
	SessionSecret string

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPassword string

	LogLevel  string
	LogFormat string

	AdminLogin    string
	AdminPassword string

	CORSOrigins []string

	OTLPEndpoint string
	OTLPInsecure bool
}

// Load читает .env (если есть), затем переменные окружения.
// envFile == "" означает ".env" в текущей директории.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("JWT_TTL_MINUTES", 480)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)

	cfg := &Config{
		DBDSN:         v.GetString("DB_DSN"),
		DBMaxConns:    v.GetInt32("DB_MAX_CONNS"),
		ServerPort:    v.GetString("SERVER_PORT"),
		SessionSecret: v.GetString("SESSION_SECRET"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTTTL:        time.Duration(v.GetInt("JWT_TTL_MINUTES")) * time.Minute,
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFormat:     v.GetString("LOG_FORMAT"),
		AdminLogin:    v.GetString("ADMIN_LOGIN"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
		CORSOrigins:   splitList(v.GetString("CORS_ORIGINS")),
		OTLPEndpoint:  v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:  v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
	}

	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is not set")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.SessionSecret
	}
	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL_MINUTES must be positive, got %d", v.GetInt("JWT_TTL_MINUTES"))
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
