package database

import (
	"context"
	"embed"
	"fmt"
	"log"
	"sync"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations
var migrations embed.FS

// driver → goose dialect / 迁移目录
var gooseDialects = map[string]string{
	"postgres": "postgres",
	"mysql":    "mysql",
	"sqlite":   "sqlite3",
}

// goose 的 BaseFS/Dialect 是包级全局
var gooseMu sync.Mutex

// Goose 执行 goose 命令（up / down / status / version / reset / redo）
func Goose(ctx context.Context, db *gorm.DB, driver, command string, logger *log.Logger, args ...string) error {
	dialect, ok := gooseDialects[driver]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	if logger != nil {
		goose.SetLogger(logger)
	}
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.RunContext(ctx, command, sqlDB, "migrations/"+dialect, args...)
}

// Migrate 启动时按配置建表：auto 用 gorm AutoMigrate，goose 跑内嵌 SQL，其它值跳过
func Migrate(ctx context.Context, db *gorm.DB, driver, mode string, logger *log.Logger, models ...any) error {
	switch mode {
	case "auto":
		return db.WithContext(ctx).AutoMigrate(models...)
	case "goose":
		return Goose(ctx, db, driver, "up", logger)
	default:
		return nil
	}
}
