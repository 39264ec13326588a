package dbutils

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jiaming2012/trading-bot/src/logger"
)

func InitPostgresWithUrl(url string, models ...interface{}) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: logger.NewLogrusLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db, models...); err != nil {
		return nil, err
	}

	return db, nil
}

func InitPostgres(host, port, user, password, dbName string, models ...interface{}) (*gorm.DB, error) {
	url := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC", host, user, password, dbName, port)
	return InitPostgresWithUrl(url, models...)
}

// InitDatabase opens postgres for postgres:// and key=value DSNs, and sqlite for
// sqlite:// DSNs, bare file paths and :memory:.
func InitDatabase(dsn string, models ...interface{}) (*gorm.DB, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.HasPrefix(dsn, "host="):
		return InitPostgresWithUrl(dsn, models...)
	case strings.HasPrefix(dsn, "sqlite://"):
		return InitSqlite(strings.TrimPrefix(dsn, "sqlite://"), models...)
	case dsn == "":
		return nil, fmt.Errorf("InitDatabase: empty dsn")
	}

	return InitSqlite(dsn, models...)
}

func migrate(db *gorm.DB, models ...interface{}) error {
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	return nil
}
