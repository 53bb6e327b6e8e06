package models

import (
	"fmt"
	"log/slog"
	"os"

	sloggorm "github.com/imdatngo/slog-gorm/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Database struct {
	GormDB *gorm.DB
}

// ConnectDatabase opens the postgres connection from DATABASE_URL.
// TranslateError makes gorm surface unique violations as gorm.ErrDuplicatedKey
// regardless of driver, which IsUniqueViolation relies on.
func ConnectDatabase() (*Database, error) {
	database, err := gorm.Open(postgres.Open(os.Getenv("DATABASE_URL")), &gorm.Config{
		Logger:         sloggorm.New(),
		TranslateError: true,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &Database{GormDB: database}
	if err := db.Migrate(); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *Database) Migrate() error {
	err := db.GormDB.AutoMigrate(&UserProfile{}, &Organization{}, &OrganizationMember{}, &OrgToken{})
	if err != nil {
		slog.Error("failed to run database migrations", "error", err)
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}
