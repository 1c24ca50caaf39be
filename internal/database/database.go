package database

import (
	"log/slog"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// pure-Go driver registered as "sqlite"
	_ "modernc.org/sqlite"
)

// Connect opens PostgreSQL for postgres:// DSNs and SQLite for anything else.
func Connect(dsn string, quiet bool) (*gorm.DB, error) {
	cfg := &gorm.Config{}
	if quiet {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		slog.Info("connecting to postgres")
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	slog.Info("using sqlite", "dsn", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		cfg,
	)
}
