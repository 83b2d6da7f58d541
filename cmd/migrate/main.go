package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gin-user-service/internal/core/config"
	"gin-user-service/internal/core/database"
	"gin-user-service/internal/core/logger"
)

const usage = `usage: migrate [-config path] <command> [args]

commands:
  up                 应用所有未执行的迁移
  up-to VERSION      迁移到指定版本
  down               回滚一个版本
  down-to VERSION    回滚到指定版本
  redo               回滚并重新执行最新版本
  reset              回滚全部
  status             查看迁移状态
  version            当前版本
`

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "config file")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.MustLoad(*cfgPath)
	log, cleanup := logger.New(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	defer cleanup()

	if cfg.DB.Driver == "memory" {
		log.Fatal("memory driver has no schema to migrate")
	}
	db, err := database.NewGorm(database.Opts{
		Driver:   cfg.DB.Driver,
		DSN:      cfg.DB.DSN,
		Username: cfg.DB.Username,
		Password: cfg.DB.Password,
		LogLevel: cfg.DB.LogLevel,
		Log:      log,
	})
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	command := flag.Arg(0)
	err = database.Goose(ctx, db, cfg.DB.Driver, command,
		logger.ToStdLogger(log.Named("goose"), zapcore.InfoLevel), flag.Args()[1:]...)
	if err != nil {
		log.Error("migrate failed", zap.String("command", command), zap.Error(err))
		cleanup()
		os.Exit(1)
	}
	log.Info("migrate done", zap.String("command", command), zap.String("driver", cfg.DB.Driver))
}
