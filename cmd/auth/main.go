package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	myPostgresRepo "github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/db/postgres"
	httptransport "github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/password"
	appsvc "github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/service"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/config"
	lg "github.com/Miraines/MoonyAndStarry/session-service/internal/infra/log"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/metrics"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/migrate"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/server"
	"golang.org/x/sync/errgroup"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	hasher, err := password.New(cfg)
	if err != nil {
		zapLog.Fatal("failed to init password hasher", zap.Error(err))
	}
	jwtUtil, err := jwt.NewJWTUtil(cfg)
	if err != nil {
		zapLog.Fatal("failed to init JWT util", zap.Error(err))
	}

	userRepo := myPostgresRepo.NewPostgresUserRepo(db)
	svc := appsvc.New(userRepo, hasher, jwtUtil, validator.New(), zapLog.Named("service"))

	handler := httptransport.NewHandler(svc, zapLog.Named("http"), metrics.New())
	router := httptransport.NewRouter(handler, httptransport.RouterOptions{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: cfg.AllowCredentials,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.StartHTTPServer(ctx, cfg.HTTPAddress, router, cfg.ShutdownTimeout, zapLog)
	})

	zapLog.Info("session service started",
		zap.String("addr", cfg.HTTPAddress),
		zap.String("hasher", cfg.PasswordHasher),
		zap.Duration("access_ttl", cfg.AccessTokenTTL),
		zap.Duration("refresh_ttl", cfg.RefreshTokenTTL),
	)
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
