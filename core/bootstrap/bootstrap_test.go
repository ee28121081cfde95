package bootstrap

import (
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/primatebot/core/config"
	coredatabase "github.com/m3rciful/primatebot/core/database"
)

func testConfig(backend string) *coreconfig.Config {
	return &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{Token: "123:abc"},
		Dataset:  coreconfig.DatasetConfig{Backend: backend},
	}
}

func TestRunSkipsDatabaseForNonPostgres(t *testing.T) {
	connected := false
	_, err := Run(Options{
		Config:     testConfig(coreconfig.BackendMemory),
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if connected {
		t.Fatalf("database must not be touched for the memory backend")
	}
}

func TestRunConvertsDatabaseConfig(t *testing.T) {
	cfg := testConfig(coreconfig.BackendPostgres)
	cfg.Dataset.Database = coreconfig.DBConfig{
		Host:           "db.internal",
		Port:           "5433",
		User:           "bot",
		Password:       "pw",
		Name:           "snapshots",
		SSLMode:        "require",
		MaxConnections: 7,
	}

	var got coredatabase.Config
	_, err := Run(Options{
		Config:     cfg,
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect: func(c coredatabase.Config) (*sqlx.DB, error) {
			got = c
			return nil, nil
		},
		Migrate: func(coredatabase.Config) error { return nil },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := coredatabase.Config{
		Host:           "db.internal",
		Port:           "5433",
		User:           "bot",
		Password:       "pw",
		Name:           "snapshots",
		SSLMode:        "require",
		MaxConnections: 7,
	}
	if got != want {
		t.Fatalf("database config mismatch:\n got %+v\nwant %+v", got, want)
	}
}
