package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/boxingcrm/core/config"
)

func TestRunMemorySkipsDatabase(t *testing.T) {
	cfg := &coreconfig.Config{Storage: coreconfig.StorageConfig{Driver: coreconfig.StorageMemory}}
	res, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect: func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			t.Fatalf("connect must not be called for memory storage")
			return nil, nil
		},
		Migrate: func(context.Context, coreconfig.DatabaseConfig) error {
			t.Fatalf("migrate must not be called for memory storage")
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.DB != nil {
		t.Fatalf("expected nil DB")
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRunStopsOnMigrationError(t *testing.T) {
	cfg := &coreconfig.Config{Storage: coreconfig.StorageConfig{Driver: coreconfig.StoragePostgres}}
	want := errors.New("dirty")
	connected := false
	_, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Migrate:    func(context.Context, coreconfig.DatabaseConfig) error { return want },
		Connect: func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
	if connected {
		t.Fatalf("connect called after failed migration")
	}
}

func TestRunPropagatesLoggerError(t *testing.T) {
	want := errors.New("no dir")
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return want },
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}
