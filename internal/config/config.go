package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port                 string
	AllowedOrigins       []string
	DatabaseURL          string
	MigrateOnStart       bool
	JWTSecret            string
	SessionTTL           time.Duration
	SecureCookies        bool
	OperatorUsername     string
	OperatorPasswordHash string
	OpenAIAPIKey         string
	OpenAIModel          string
}

func Load() Config {
	ttl, err := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "12"))
	if err != nil || ttl < 1 {
		ttl = 12
	}
	migrate, err := strconv.ParseBool(getEnv("MIGRATE_ON_START", "false"))
	if err != nil {
		migrate = false
	}
	secure, err := strconv.ParseBool(getEnv("COOKIE_SECURE", "true"))
	if err != nil {
		secure = true
	}

	return Config{
		Port:                 getEnv("SERVER_PORT", "8080"),
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MigrateOnStart:       migrate,
		JWTSecret:            strings.TrimSpace(os.Getenv("JWT_SECRET")),
		SessionTTL:           time.Duration(ttl) * time.Hour,
		SecureCookies:        secure,
		OperatorUsername:     getEnv("OPERATOR_USERNAME", "admin"),
		OperatorPasswordHash: strings.TrimSpace(os.Getenv("OPERATOR_PASSWORD_HASH")),
		OpenAIAPIKey:         strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// ValidateServer checks the settings the HTTP server cannot run without.
func (c Config) ValidateServer() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be set and at least 32 characters")
	}
	if c.OperatorPasswordHash == "" {
		return errors.New("OPERATOR_PASSWORD_HASH must be set to a bcrypt hash")
	}
	if !strings.HasPrefix(c.OperatorPasswordHash, "$2") {
		return errors.New("OPERATOR_PASSWORD_HASH is not a bcrypt hash")
	}
	return nil
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
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
