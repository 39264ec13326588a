package dbutils

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/jiaming2012/trading-bot/src/logger"
)

const sqlitePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// InitSqlite opens an embedded database. The pool is limited to one connection so that
// :memory: databases are shared by every query.
func InitSqlite(path string, models ...interface{}) (*gorm.DB, error) {
	dsn := path
	if path != ":memory:" && !strings.Contains(path, "?") {
		dsn = path + "?" + sqlitePragmas
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.NewLogrusLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err := migrate(db, models...); err != nil {
		return nil, err
	}

	return db, nil
}
