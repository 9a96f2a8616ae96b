package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/lib/pq"                // registers the "postgres" driver
	"github.com/ridloal/gym-membership-service/internal/platform/config"
	"github.com/ridloal/gym-membership-service/internal/platform/logger"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	pingTimeout            = 5 * time.Second
)

// SQLSTATE codes
const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

func Connect(cfg config.DBConfig) (*sql.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "pgx"
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, defaultMaxOpenConns))
	db.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, defaultMaxIdleConns))
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}
	db.SetConnMaxLifetime(lifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database", "driver", driver)
	return db, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// sqlState extracts the SQLSTATE code from either driver's error type.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return sqlState(err) == uniqueViolation
}

func IsCheckViolation(err error) bool {
	return sqlState(err) == checkViolation
}
