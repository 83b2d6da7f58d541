package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gin-user-service/internal/core/auth"
	"gin-user-service/internal/core/config"
	"gin-user-service/internal/core/database"
	"gin-user-service/internal/core/logger"
	"gin-user-service/internal/core/server"
	"gin-user-service/internal/domain"
	"gin-user-service/internal/feature/user"
	"gin-user-service/internal/repo"
	"gin-user-service/internal/service"
	"gin-user-service/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(logger.Options{
		Level:     cfg.Log.Level,
		JSON:      cfg.Log.JSON,
		AddCaller: true,
		Rotate: logger.FileRotate{
			Enable:     cfg.Log.Rotate.Enabled,
			Filename:   cfg.Log.Rotate.Filename,
			MaxSizeMB:  cfg.Log.Rotate.MaxSizeMB,
			MaxBackups: cfg.Log.Rotate.MaxBackups,
			MaxAgeDays: cfg.Log.Rotate.MaxAgeDays,
			Compress:   cfg.Log.Rotate.Compress,
		},
	})
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	// gin 自身输出也走 zap
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)

	// 存储（失败会直接 Fatal）
	store, ping, closeStore := mustOpenStore(cfg, log)
	defer closeStore()

	// 依赖
	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL(),
		Leeway: cfg.JWT.Leeway(),
	}
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	order := make([]domain.AuthMethod, 0, len(cfg.Auth.CredentialOrder))
	for _, m := range cfg.Auth.CredentialOrder {
		order = append(order, domain.AuthMethod(m))
	}
	authSvc := service.NewAuthService(store, jwter, hasher, log, service.AuthOptions{
		CredentialOrder:     order,
		DistinguishInactive: cfg.Auth.DistinguishInactive,
	})
	userSvc := service.NewUserService(store, hasher, log)

	// 路由
	r := router.NewAPIEngine(router.Deps{
		Log:   log,
		Cfg:   cfg,
		Auth:  authSvc,
		Users: userSvc,
		Ping:  ping,
	})

	// HTTP Server
	addr := cfg.App.HTTP.Addr()
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
		logger.ToStdLogger(log, zapcore.ErrorLevel),
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("user api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("metrics", baseURL+"/metrics"),
		zap.String("db", cfg.DB.Driver),
		zap.Bool("public_read", cfg.Auth.PublicRead),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("user api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("user api stopped gracefully")
}

// mustOpenStore memory 驱动不连库；其余走 gorm + 迁移
func mustOpenStore(cfg *config.Config, l *zap.Logger) (domain.UserStore, func(context.Context) error, func()) {
	if cfg.DB.Driver == "memory" {
		l.Warn("using in-memory store, data is lost on restart")
		return repo.NewMemoryUserRepo(), nil, func() {}
	}

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                l,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		l.Fatal("db handle", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	gooseLog := logger.ToStdLogger(l.Named("goose"), zapcore.InfoLevel)
	if err := database.Migrate(ctx, db, cfg.DB.Driver, cfg.DB.Migrate, gooseLog, &user.UserModel{}); err != nil {
		l.Fatal("migrate failed", zap.String("mode", cfg.DB.Migrate), zap.Error(err))
	}
	l.Info("database ready", zap.String("driver", cfg.DB.Driver), zap.String("migrate", cfg.DB.Migrate))

	return repo.NewUserRepo(db), sqlDB.PingContext, func() { _ = sqlDB.Close() }
}
