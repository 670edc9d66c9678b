package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"plog/internal/config"
	"plog/internal/db"
	apihttp "plog/internal/http"
	"plog/internal/repository"
	"plog/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var (
		userRepo repository.UserRepository
		postRepo repository.PostRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		userRepo = repository.NewPgUserRepository(pool)
		postRepo = repository.NewPgPostRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		userRepo = repository.NewMemoryUserRepository()
		postRepo = repository.NewMemoryPostRepository()
	}

	var tokenStore service.TokenStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory token store", zap.Error(err))
		} else {
			tokenStore = service.NewRedisTokenStore(redisClient)
		}
		cancel()
	}
	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.AccessTokenDuration, tokenStore)

	userSvc := service.NewUserService(logger, userRepo)
	postSvc := service.NewPostService(logger, postRepo)
	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc)
	postHandler := apihttp.NewPostHandler(logger, postSvc)
	router := apihttp.NewRouter(logger, jwtSvc, userHandler, postHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
