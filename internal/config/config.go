package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "userhub-dev-secret"

type Config struct {
	Env  string
	Port int

	JWTSecret    string
	JWTExpiresIn time.Duration
	BcryptCost   int

	AdminName     string
	AdminEmail    string
	AdminPassword string

	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	OTELEndpoint    string
	OTELServiceName string

	ShutdownGrace time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 3000),

		JWTSecret:    getEnv("JWT_SECRET", devJWTSecret),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", time.Hour),
		BcryptCost:   getEnvInt("BCRYPT_COST", 10),

		AdminName:     getEnv("ADMIN_NAME", "admin"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@spsgroup.com.br"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "1234"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 10<<20)),

		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELServiceName: getEnv("OTEL_SERVICE_NAME", "userhub"),

		ShutdownGrace: getEnvDuration("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func (c Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, errors.New("PORT must be between 0 and 65535"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Env != "dev" && c.Env != "test" && c.JWTSecret == devJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set outside dev"))
	}
	if c.JWTExpiresIn <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 31"))
	}
	if c.AdminEmail == "" || c.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}

	return errors.Join(errs...)
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer in env, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90m", "1h") and bare integers as seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d
	}

	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}

	slog.Warn("invalid duration in env, using default", "key", key, "value", v)
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		return fallback
	}
	return out
}
