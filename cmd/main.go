package main

import (
	"context"
	"time"

	"github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/yakoovad/teamroom/internal/api"
	"github.com/yakoovad/teamroom/internal/auth"
	"github.com/yakoovad/teamroom/internal/config"
	"github.com/yakoovad/teamroom/internal/db"
	"github.com/yakoovad/teamroom/internal/repository"
	"github.com/yakoovad/teamroom/internal/service"
	"github.com/yakoovad/teamroom/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	logger, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err = pool.Ping(context.Background()); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	logger.Info("database connection established")

	sessions := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	defer sessions.Close()

	if err = sessions.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("failed to ping redis", zap.Error(err))
	}

	logger.Info("redis connection established")

	transactor := db.NewPgxTransactor(pool)

	userRepo := repository.NewPgxUserRepository(pool)
	roomRepo := repository.NewPgxRoomRepository(pool)
	teamRepo := repository.NewPgxTeamRepository(pool)
	taskRepo := repository.NewPgxTaskRepository(pool)
	sessionRepo := repository.NewRedisSessionRepository(sessions)

	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	authSvc := service.NewAuthService(transactor, tokens, hasher).WithUserRepo(userRepo).WithSessionRepo(sessionRepo)
	membership := service.NewMembershipService(transactor).WithUserRepo(userRepo).WithRoomRepo(roomRepo).WithTeamRepo(teamRepo)
	tasks := service.NewTaskService(transactor).WithUserRepo(userRepo).WithTeamRepo(teamRepo).WithTaskRepo(taskRepo)

	healthChecker := api.MustNewHealthChecker(
		health.Config{
			Name:    "postgres",
			Timeout: 5 * time.Second,
			Check: func(ctx context.Context) error {
				return pool.Ping(ctx)
			},
		},
		health.Config{
			Name:    "redis",
			Timeout: 5 * time.Second,
			Check: func(ctx context.Context) error {
				return sessions.Ping(ctx).Err()
			},
		},
	)

	e := echo.New()

	handler := api.NewHandler(logger).
		WithAuthService(authSvc).
		WithMembershipService(membership).
		WithTaskService(tasks).
		WithHealthChecker(healthChecker)

	handler.RegisterRoutes(e)

	logger.Info("server starting", zap.String("addr", cfg.HTTPAddr))
	if err = e.Start(cfg.HTTPAddr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
