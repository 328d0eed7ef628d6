package sqlite

import (
	"fmt"
	"log"
	"os"

	"github.com/avilar/recordatorio-bot/internal/domain/entity"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens the GORM database connection using SQLite and migrates the
// schema.
func NewDB(dbURL string) (*gorm.DB, error) {
	newLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(sqlite.Open(dbURL), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s: %w", dbURL, err)
	}

	if err := db.AutoMigrate(&entity.Reminder{}); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return db, nil
}

// CloseDB closes the underlying database connection.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}
	return sqlDB.Close()
}
