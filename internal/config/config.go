package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del backend.
type Config struct {
	HTTPPort            string        `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL         string        `env:"DATABASE_URL"`
	JWTSecret           string        `env:"JWT_SECRET,required,notEmpty"`
	AccessTokenDuration time.Duration `env:"ACCESS_TOKEN_DURATION" envDefault:"15m"`
	RedisAddr           string        `env:"REDIS_ADDR"`
	RedisPassword       string        `env:"REDIS_PASSWORD"`
	RedisDB             int           `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración del backend desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if cfg.AccessTokenDuration <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_DURATION must be positive, got %s", cfg.AccessTokenDuration)
	}
	return &cfg, nil
}

// Mode selecciona cómo se resuelve la dirección base del API.
type Mode string

const (
	ModeLocal    Mode = "local"
	ModeDeployed Mode = "deployed"
)

// Backends de almacenamiento durable del cliente.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

var (
	ErrInvalidMode    = errors.New("invalid mode")
	ErrInvalidStorage = errors.New("invalid storage backend")
	ErrMissingOrigin  = errors.New("origin required in deployed mode")
)

// ClientConfig es la configuración del cliente. Se evalúa una sola vez al arrancar.
type ClientConfig struct {
	Mode          Mode          `env:"PLOG_MODE" envDefault:"local"`
	Origin        string        `env:"PLOG_ORIGIN"`
	Storage       string        `env:"PLOG_STORAGE" envDefault:"sqlite"`
	StoragePath   string        `env:"PLOG_STORAGE_PATH" envDefault:".plog/storage.db"`
	RedisAddr     string        `env:"PLOG_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"PLOG_REDIS_PASSWORD"`
	RedisDB       int           `env:"PLOG_REDIS_DB" envDefault:"0"`
	HTTPTimeout   time.Duration `env:"PLOG_HTTP_TIMEOUT" envDefault:"30s"`
	LogLevel      string        `env:"PLOG_LOG_LEVEL" envDefault:"info"`
}

// LoadClientConfig carga y valida la configuración del cliente.
func LoadClientConfig() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ClientConfig) Validate() error {
	c.Mode = Mode(strings.ToLower(strings.TrimSpace(string(c.Mode))))
	switch c.Mode {
	case ModeLocal:
	case ModeDeployed:
		if strings.TrimSpace(c.Origin) == "" {
			return ErrMissingOrigin
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
	}

	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case StorageSQLite, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStorage, c.Storage)
	}
	return nil
}
