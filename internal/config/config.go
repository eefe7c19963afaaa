package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"MERIT_PORT" envDefault:"8080"`
	DBPath   string `env:"MERIT_DB_PATH" envDefault:"merit.db"`
	LogLevel string `env:"MERIT_LOG_LEVEL" envDefault:"info"`

	// JWTSecret verifies the bearer tokens minted by the auth collaborator.
	JWTSecret string `env:"MERIT_JWT_SECRET,required"`

	// VAPID keys for web push. Push delivery is disabled when unset.
	VAPIDPublicKey  string `env:"MERIT_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"MERIT_VAPID_PRIVATE_KEY"`
}

// Load reads an optional .env file and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
