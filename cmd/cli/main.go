package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"plog/internal/config"
	"plog/internal/gateway"
	"plog/internal/session"
)

const localOrigin = "http://localhost:8080"

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.LoadClientConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	baseURL, err := gateway.ResolveBaseURL(cfg.Mode, cfg.Origin)
	if err != nil {
		log.Fatal(err)
	}

	storage, closeStorage, err := openStorage(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStorage()

	store := session.NewStore(storage, logger)
	client := gateway.New(baseURL, store,
		gateway.WithTimeout(cfg.HTTPTimeout),
		gateway.WithLogger(logger),
	)

	logger.Info("plog client ready",
		zap.String("base_url", baseURL),
		zap.String("storage", cfg.Storage),
		zap.Bool("authenticated", store.Authenticated()),
	)

	app := newApp(client, store, os.Stdin, os.Stdout)
	if err := app.run(ctx); err != nil {
		log.Fatal(err)
	}
}

// newLogger arma un logger de desarrollo con el nivel configurado.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid PLOG_LOG_LEVEL %q: %w", level, err)
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// storageOrigin es la clave de aislamiento de la credencial persistida.
func storageOrigin(cfg *config.ClientConfig) string {
	if cfg.Mode == config.ModeDeployed {
		return strings.TrimRight(strings.TrimSpace(cfg.Origin), "/")
	}
	return localOrigin
}

// openStorage elige el backend durable. Un backend inaccesible no impide
// arrancar: devuelve storage nil y el store queda solo en memoria.
func openStorage(cfg *config.ClientConfig, logger *zap.Logger) (session.Storage, func(), error) {
	origin := storageOrigin(cfg)
	switch cfg.Storage {
	case config.StorageMemory:
		return session.NewMemoryStorage(), func() {}, nil
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, session will not persist", zap.Error(err))
		}
		return session.NewRedisStorage(client, origin), func() { _ = client.Close() }, nil
	case config.StorageSQLite:
		st, err := session.OpenSQLiteStorage(cfg.StoragePath, origin)
		if err != nil {
			logger.Warn("sqlite storage unavailable, session will not persist",
				zap.String("path", cfg.StoragePath),
				zap.Error(err),
			)
			return nil, func() {}, nil
		}
		return st, func() { _ = st.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidStorage, cfg.Storage)
	}
}
