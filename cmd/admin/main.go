// admin 初始化或重置管理员账号：迁移表结构后按邮箱创建/提升 admin。
//
//	go run ./cmd/admin -email admin@bubbletech.be -password '...'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/config"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/database"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/logger"
	"github.com/yassin-houari/bubbletech-pointage/internal/service"
)

func main() {
	_ = godotenv.Load()

	var in service.AdminInput
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "config file")
	flag.StringVar(&in.Email, "email", os.Getenv("ADMIN_EMAIL"), "admin email")
	flag.StringVar(&in.Password, "password", os.Getenv("ADMIN_PASSWORD"), "admin password (min 8)")
	flag.StringVar(&in.LastName, "nom", "Admin", "last name")
	flag.StringVar(&in.FirstName, "prenom", "BubbleTech", "first name")
	flag.StringVar(&in.SecretCode, "code", "", "4-digit secret code (random when empty)")
	flag.Parse()

	cfg := config.Load(*cfgPath)
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                log,
	})
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("automigrate failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	users := service.NewUserService(db, nil, nil, log)
	u, created, err := users.EnsureAdmin(ctx, in)
	if err != nil {
		log.Fatal("ensure admin", zap.Error(err))
	}
	action := "updated"
	if created {
		action = "created"
	}
	fmt.Printf("admin %s: id=%d email=%s code_secret=%s\n", action, u.ID, u.Email, u.SecretCode)
}
