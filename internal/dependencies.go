package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phturb/lolstats-backend-go/model"
	"github.com/robfig/cron/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type dependencies struct {
	db *gorm.DB
	c  *cron.Cron
}

type Dependencies interface {
	Database(ctx context.Context) *gorm.DB
	Cron() *cron.Cron
}

func openDatabase(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "sqlite", "":
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	case "postgres":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func NewDependencies(ctx context.Context) (Dependencies, error) {
	slog.Info("creating dependencies")
	slog.Info(fmt.Sprintf("initializing %s database connection", Config().Database.Driver))
	db, err := openDatabase(Config().Database.Driver, Config().Database.DSN)
	if err != nil {
		return nil, err
	}
	slog.Info("executing database auto migration")
	if err := db.AutoMigrate(&model.Favorite{}); err != nil {
		return nil, err
	}

	c := cron.New()

	return &dependencies{
		db: db,
		c:  c,
	}, nil
}

func (d *dependencies) Database(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

func (d *dependencies) Cron() *cron.Cron {
	return d.c
}
