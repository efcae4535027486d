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

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/auth"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/cache"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/config"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/database"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/logger"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/mailer"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/server"
	"github.com/yassin-houari/bubbletech-pointage/internal/service"
	"github.com/yassin-houari/bubbletech-pointage/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// 缓存（可选）
	rc := cache.NewOptional(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unreachable, lookups served from db", zap.Error(err))
		}
		cancel()
		defer rc.Close()
	}

	// 邮件
	sender, err := mailer.FromConfig(cfg.Mail, log)
	if err != nil {
		log.Fatal("mailer", zap.Error(err))
	}
	mail := mailer.NewDispatcher(sender, log, cfg.App.FrontendURL, time.Duration(cfg.Mail.TimeoutSec)*time.Second)

	// JWT
	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	lookups := service.NewLookupService(db, rc, time.Duration(cfg.Redis.TTLSec)*time.Second, log)
	r := router.NewAPIEngine(router.Deps{
		Config:        cfg,
		Log:           log,
		JWT:           jwter,
		Auth:          service.NewAuthService(db, jwter, mail, log),
		Users:         service.NewUserService(db, lookups, mail, log),
		Lookups:       lookups,
		Teams:         service.NewTeamService(db),
		Pointages:     service.NewPointageService(db, log),
		Reports:       service.NewReportService(db),
		Notifications: service.NewNotificationService(db),
		Audit:         service.NewAuditService(db),
		Ping:          func(ctx context.Context) error { return database.Ping(ctx, db) },
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)
	srv.ErrorLog = logger.ToStdLogger(log.Named("http.server"), zapcore.WarnLevel)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("pointage api starting",
		zap.String("env", cfg.App.Env),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/api/health"),
		zap.String("mail", cfg.Mail.Provider),
		zap.Bool("redis", rc != nil),
	)

	// 异步启动
	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("pointage api start FAILED", zap.Error(err))
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
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("pointage api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
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
	return db
}
