package config

import "testing"

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Token:   "123:abc",
			RunMode: "longpoll",
		},
		Dataset: DatasetConfig{
			Backend: "memory",
		},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dataset.File != "users_db.json" {
		t.Fatalf("expected default dataset file, got %q", cfg.Dataset.File)
	}
	if cfg.Classifier.InputSize != 200 || cfg.Classifier.Model != "human_monkey" {
		t.Fatalf("unexpected classifier defaults: %+v", cfg.Classifier)
	}
}

func TestNormalizeDatasetPostgres(t *testing.T) {
	cfg := validConfig()
	cfg.Dataset.Backend = "postgres"

	if err := Normalize(cfg); err == nil {
		t.Fatalf("expected error for postgres backend without db.host")
	}

	cfg.Dataset.Database = DBConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "primatebot",
		Name:     "primatebot",
		SSLMode:  "disable",
		Password: "pw",
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeDatasetValidation(t *testing.T) {
	cfg := validConfig()
	cfg.Dataset.Backend = "hf"
	if err := Normalize(cfg); err == nil {
		t.Fatalf("expected error for hf backend without repo_id")
	}

	cfg = validConfig()
	cfg.Dataset.Backend = "carrier-pigeon"
	if err := Normalize(cfg); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
