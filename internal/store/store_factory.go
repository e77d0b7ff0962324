package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go-portal/internal/shared/connection"
)

const (
	DriverMemory    = "memory"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
)

type Config struct {
	Driver             string
	Postgres           connection.PostgresConfig
	SQLitePath         string
	FirestoreProjectID string
	MaxRetries         int
}

func ConfigFromEnv() Config {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	if driver == "" {
		driver = DriverMemory
	}
	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "portal.db"
	}

	return Config{
		Driver: driver,
		Postgres: connection.PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
			Port:     os.Getenv("DB_PORT"),
			SSLMode:  os.Getenv("DB_SSLMODE"),
		},
		SQLitePath:         sqlitePath,
		FirestoreProjectID: os.Getenv("FIRESTORE_PROJECT_ID"),
		MaxRetries:         5,
	}
}

// Open connects the configured backend, runs migrations for the SQL ones and
// checks the store answers.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.Driver {
	case DriverMemory:
		s = NewMemoryStore()
	case DriverPostgres:
		s, err = openPostgres(ctx, cfg)
	case DriverSQLite:
		s, err = openSQLite(ctx, cfg)
	case DriverFirestore:
		client, cerr := connection.ConnectFirestore(ctx, cfg.FirestoreProjectID)
		if cerr != nil {
			return nil, cerr
		}
		s = NewFirestoreStore(client)
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("store %s unreachable: %w", cfg.Driver, err)
	}
	return s, nil
}

func openPostgres(ctx context.Context, cfg Config) (Store, error) {
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	gormDB, err := connection.ConnectGORMWithRetry(ctx, cfg.Postgres, retries)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, sqlDB, "postgres"); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return NewGormStore(gormDB), nil
}

func openSQLite(ctx context.Context, cfg Config) (Store, error) {
	db, err := connection.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, "sqlite3"); err != nil {
		db.Close()
		return nil, err
	}
	return NewSQLiteStore(db), nil
}
