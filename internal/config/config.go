package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"dev"`
	Port int    `env:"PORT" envDefault:"8080"`

	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"taxlink"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"taxlink"`
	DBName     string `env:"DB_NAME" envDefault:"taxlink"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret           string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTAccessTTLMinutes int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"60"`

	// Seeded servicing tax accountant, created on startup if missing.
	AccountantUsername string `env:"ACCOUNTANT_USERNAME" envDefault:"taxpro"`
	AccountantEmail    string `env:"ACCOUNTANT_EMAIL"`
	AccountantPassword string `env:"ACCOUNTANT_PASSWORD"`
	AccountantName     string `env:"ACCOUNTANT_NAME" envDefault:"담당 세무사"`

	PaymentWindowDays          int `env:"PAYMENT_WINDOW_DAYS" envDefault:"30"`
	VerificationCodeTTLSeconds int `env:"VERIFICATION_CODE_TTL_SECONDS" envDefault:"180"`

	OTLPEndpoint string   `env:"OTLP_ENDPOINT"`
	CORSOrigins  []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

// Load reads .env (if present) and then the environment.
func Load() (Config, error) {
	// missing .env is fine, real deployments set the environment directly
	_ = godotenv.Load()

	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func (c Config) DBURL() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func (c Config) VerificationCodeTTL() time.Duration {
	return time.Duration(c.VerificationCodeTTLSeconds) * time.Second
}

func (c Config) PaymentWindow() time.Duration {
	return time.Duration(c.PaymentWindowDays) * 24 * time.Hour
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
