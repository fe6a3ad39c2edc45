package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	Driver   string // mysql | postgres | sqlite
	DSN      string
	LogLevel string // silent | error | warn | info
}

// Dialector picks the gorm driver for o.Driver.
func Dialector(o Options) (gorm.Dialector, error) {
	switch strings.ToLower(o.Driver) {
	case "mysql", "":
		return mysql.Open(o.DSN), nil
	case "postgres", "postgresql":
		return postgres.Open(o.DSN), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(o.DSN), nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", o.Driver)
	}
}

func OpenGorm(o Options) (*gorm.DB, error) {
	dial, err := Dialector(o)
	if err != nil {
		return nil, err
	}
	db, err := open(dial, LogLevel(o.LogLevel))
	if err != nil {
		return nil, err
	}
	if dial.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows one writer; a single connection also keeps
		// ":memory:" databases alive
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}
	return db, nil
}

// OpenGormWithDialector opens with a ready dialector, e.g. one wrapping an
// existing *sql.DB.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	return open(dial, logger.Warn)
}

func open(dial gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:               logger.Default.LogMode(level),
		TranslateError:       true,
		DisableAutomaticPing: true,
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func LogLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
