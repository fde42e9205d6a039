// Package store opens the sqlite database that holds the VM inventory and the
// request queue.
package store

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQuery = 200 * time.Millisecond

// slogWriter feeds gorm's warnings into the daemon log.
type slogWriter struct {
	table string
}

func (w slogWriter) Printf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...), "table", w.table)
}

// Open connects to the database at path on behalf of one table's package.
func Open(path string, table string) (*gorm.DB, error) {
	gormDB, err := gorm.Open(
		sqlite.Open(path),
		&gorm.Config{
			Logger: logger.New(slogWriter{table: table}, logger.Config{
				SlowThreshold:             slowQuery,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			}),
			PrepareStmt: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("error opening %s database %s: %w", table, path, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting %s connection pool: %w", table, err)
	}

	// sqlite takes one writer at a time
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	return gormDB, nil
}
