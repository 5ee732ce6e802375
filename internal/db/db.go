package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rehna-jp/Louer/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const pgUniqueViolation = "23505"

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "", "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Connect opens the store and retries while the database container is starting.
func Connect(driver, dsn string) (*gorm.DB, error) {
	dial, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
	var gdb *gorm.DB
	for i := 0; i < 10; i++ {
		gdb, err = gorm.Open(dial, cfg)
		if err == nil {
			sqlDB, err2 := gdb.DB()
			if err2 == nil {
				if driver == "sqlite" {
					// one connection keeps :memory: databases shared and serializes writers
					sqlDB.SetMaxOpenConns(1)
					if err := gdb.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
						return nil, err
					}
					return gdb, nil
				}
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetMaxOpenConns(20)
				sqlDB.SetConnMaxLifetime(time.Hour)
				return gdb, nil
			}
			err = err2
		}
		time.Sleep(time.Duration(500+i*200) * time.Millisecond)
	}
	return nil, err
}

// Close releases the connection pool behind gdb.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates every table the API reads and writes.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.ListingImage{},
		&models.Booking{},
		&models.Favorite{},
		&models.MessageThread{},
		&models.Message{},
		&models.RefreshToken{},
	)
}

// IsUniqueViolation reports whether err came from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}
