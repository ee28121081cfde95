package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"TELEGRAM_BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "message": standard text messages
// - "photo": photo uploads
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Snapshot store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendHF       = "hf"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
)

// DatasetConfig selects and configures the account snapshot backend.
type DatasetConfig struct {
	Backend string `yaml:"backend" envconfig:"DATASET_BACKEND"`
	// File is the snapshot object name inside the backing store.
	File string `yaml:"file" envconfig:"DATASET_FILE"`
	// Path is the local directory used by the "file" backend.
	Path string `yaml:"path" envconfig:"DATASET_PATH"`

	// RepoID and Token configure the "hf" backend (a dataset repo on the Hub).
	RepoID string `yaml:"repo_id" envconfig:"HF_DATASET_REPO_ID"`
	Token  string `yaml:"token" envconfig:"HF_TOKEN"`

	// Bucket and Region configure the "s3" backend; credentials come from
	// the default AWS credential chain.
	Bucket string `yaml:"bucket" envconfig:"DATASET_S3_BUCKET"`
	Region string `yaml:"region" envconfig:"DATASET_S3_REGION"`

	// Database configures the "postgres" backend.
	Database DBConfig `yaml:"db"`
}

// DBConfig holds connection settings for the postgres snapshot backend.
// It stays inside this package so config has no internal imports; the
// bootstrap converts it to the database layer's own config type.
type DBConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// ClassifierConfig configures the image classification model endpoint.
type ClassifierConfig struct {
	// URL is the base address of a TF Serving compatible endpoint.
	URL   string `yaml:"url" envconfig:"CLASSIFIER_URL"`
	Model string `yaml:"model" envconfig:"CLASSIFIER_MODEL"`
	// InputSize is the square side of the model input; 0 -> 200.
	InputSize      int  `yaml:"input_size" envconfig:"CLASSIFIER_INPUT_SIZE"`
	TimeoutSeconds int  `yaml:"timeout_seconds" envconfig:"CLASSIFIER_TIMEOUT_SECONDS"`
	Disabled       bool `yaml:"disabled" envconfig:"CLASSIFIER_DISABLED"`
}

// AuthConfig tunes credential hashing.
type AuthConfig struct {
	// BcryptCost selects the bcrypt work factor; 0 -> library default.
	BcryptCost int `yaml:"bcrypt_cost" envconfig:"AUTH_BCRYPT_COST"`
}

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram   TelegramConfig   `yaml:"telegram"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Logging    LoggingConfig    `yaml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Dataset    DatasetConfig    `yaml:"dataset"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Auth       AuthConfig       `yaml:"auth"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		"message": {},
		"photo":   {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: message, photo", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if err := normalizeDataset(&cfg.Dataset); err != nil {
		return err
	}
	return normalizeClassifier(&cfg.Classifier)
}

func normalizeDataset(ds *DatasetConfig) error {
	backend := strings.ToLower(strings.TrimSpace(ds.Backend))
	if backend == "" {
		backend = BackendHF
	}
	if strings.TrimSpace(ds.File) == "" {
		ds.File = "users_db.json"
	}
	switch backend {
	case BackendMemory:
	case BackendFile:
		if strings.TrimSpace(ds.Path) == "" {
			return fmt.Errorf("dataset.path is required when dataset.backend is 'file'")
		}
	case BackendHF:
		if strings.TrimSpace(ds.RepoID) == "" {
			return fmt.Errorf("dataset.repo_id is required when dataset.backend is 'hf'")
		}
	case BackendS3:
		if strings.TrimSpace(ds.Bucket) == "" {
			return fmt.Errorf("dataset.bucket is required when dataset.backend is 's3'")
		}
	case BackendPostgres:
		if strings.TrimSpace(ds.Database.Host) == "" {
			return fmt.Errorf("dataset.db.host is required when dataset.backend is 'postgres'")
		}
	default:
		return fmt.Errorf("invalid dataset.backend %q; allowed: memory, file, hf, s3, postgres", ds.Backend)
	}
	ds.Backend = backend
	return nil
}

func normalizeClassifier(cl *ClassifierConfig) error {
	if cl.Disabled {
		return nil
	}
	if cl.InputSize < 0 {
		return fmt.Errorf("classifier.input_size must be >= 0")
	}
	if cl.InputSize == 0 {
		cl.InputSize = 200
	}
	if cl.TimeoutSeconds < 0 {
		return fmt.Errorf("classifier.timeout_seconds must be >= 0")
	}
	if cl.TimeoutSeconds == 0 {
		cl.TimeoutSeconds = 30
	}
	if strings.TrimSpace(cl.Model) == "" {
		cl.Model = "human_monkey"
	}
	return nil
}
