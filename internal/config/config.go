package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL  string `env:"DATABASE_URL,required"`
	RedisURL     string `env:"REDIS_URL" envDefault:"localhost:6379"`
	NatsURL      string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	Port         string `env:"PORT" envDefault:"8082"`

	// Simulated gateway credentials. Passed into the facade constructor,
	// never read as ambient state.
	GatewayAPIKey        string `env:"GATEWAY_API_KEY" envDefault:"dev-api-key"`
	GatewayEncryptionKey string `env:"GATEWAY_ENCRYPTION_KEY" envDefault:"dev-encryption-key"`

	JaegerEndpoint string `env:"JAEGER_ENDPOINT" envDefault:"jaeger:4318"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
