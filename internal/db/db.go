package db

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"autonomo/internal/config"
	"autonomo/internal/models"
)

// Models in migration order.
func allModels() []any {
	return []any{
		&models.User{}, &models.Client{}, &models.Invoice{}, &models.InvoiceItem{},
		&models.Expense{}, &models.Reminder{},
	}
}

// ConnectAndMigrate opens the configured database and brings the schema up
// to date. Postgres with MIGRATIONS=1 runs SQL migrations via golang-migrate;
// otherwise AutoMigrate keeps the dev loop simple (and is the only path for
// sqlite).
func ConnectAndMigrate(cfg config.Config) (*gorm.DB, error) {
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var db *gorm.DB
	var err error
	switch cfg.DBDriver {
	case "postgres":
		dsn := NormalizePostgresDSN(cfg.DatabaseDSN)
		if dsn == "" {
			return nil, errors.New("DATABASE_DSN is empty")
		}
		for i := 0; i < 10; i++ {
			db, err = gorm.Open(postgres.Open(dsn), gormCfg)
			if err == nil {
				break
			}
			log.Warn().Err(err).Msg("retrying DB connection")
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to connect database after retries: %w", err)
		}
		if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
			if err := runSQLMigrations(dsn); err != nil {
				return nil, fmt.Errorf("sql migrations failed: %w", err)
			}
		} else if err := autoMigrate(db); err != nil {
			return nil, err
		}
	case "sqlite", "":
		db, err = gorm.Open(sqlite.Open(cfg.DatabaseDSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := autoMigrate(db); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"users", "clients", "invoices", "reminders"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	// Seeding only when explicitly requested (e.g. development) via DB_SEED=1|true
	if config.ParseBool("DB_SEED", false) {
		Seed(db)
	}
	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	for _, m := range allModels() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
