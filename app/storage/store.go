package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/primatebot/app/accounts"
	coreconfig "github.com/m3rciful/primatebot/core/config"
	"github.com/m3rciful/primatebot/core/logger"
)

// backend moves raw snapshot bytes to and from a storage location.
// Publish takes a path to a local scratch file holding the encoded
// snapshot; the caller owns the file's lifetime.
type backend interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
	Publish(ctx context.Context, scratchPath string) error
}

// SnapshotStore encodes the account table as a single JSON document and
// hands it to a backend, full replace on every save.
type SnapshotStore struct {
	backend  backend
	fileName string
}

// New builds a SnapshotStore for the configured backend. db is only
// consulted for the postgres backend and may be nil otherwise.
func New(cfg coreconfig.DatasetConfig, db *sqlx.DB) (*SnapshotStore, error) {
	var (
		b   backend
		err error
	)

	switch cfg.Backend {
	case coreconfig.BackendMemory:
		b = NewMemoryBackend()
	case coreconfig.BackendFile:
		b = newFileBackend(cfg.Path, cfg.File)
	case coreconfig.BackendHF:
		b, err = newHubBackend(cfg.RepoID, cfg.File, cfg.Token)
	case coreconfig.BackendS3:
		b, err = newS3Backend(context.Background(), cfg.Bucket, cfg.Region, cfg.File)
	case coreconfig.BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("storage: postgres backend requires a database connection")
		}
		b = newPostgresBackend(db, cfg.File)
	default:
		return nil, fmt.Errorf("storage: unknown dataset backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	return &SnapshotStore{backend: b, fileName: cfg.File}, nil
}

// NewWithBackend is a constructor for tests and custom wiring.
func NewWithBackend(b backend, fileName string) *SnapshotStore {
	return &SnapshotStore{backend: b, fileName: fileName}
}

// Load fetches and decodes the last snapshot. A missing snapshot is a
// normal first run and yields an empty table without error; any other
// failure also yields an empty table so the bot can keep working.
func (s *SnapshotStore) Load(ctx context.Context) (map[string]*accounts.Account, error) {
	data, err := s.backend.Fetch(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]*accounts.Account), nil
		}
		return make(map[string]*accounts.Account), fmt.Errorf("storage: fetch %s from %s: %w", s.fileName, s.backend.Name(), err)
	}

	table, err := Decode(data)
	if err != nil {
		return make(map[string]*accounts.Account), fmt.Errorf("storage: decode %s: %w", s.fileName, err)
	}
	return table, nil
}

// Save encodes the full table into a scratch file, publishes it and
// removes the scratch file on every outcome.
func (s *SnapshotStore) Save(ctx context.Context, table map[string]*accounts.Account) error {
	data, err := Encode(table)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", s.fileName, err)
	}

	scratch := filepath.Join(os.TempDir(), s.fileName)
	if err := os.WriteFile(scratch, data, 0o600); err != nil {
		return fmt.Errorf("storage: write scratch %s: %w", scratch, err)
	}
	defer func() {
		if err := os.Remove(scratch); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn(ctx, "store", "scratch.remove",
				slog.String("path", scratch),
				slog.String("err", err.Error()),
			)
		}
	}()

	if err := s.backend.Publish(ctx, scratch); err != nil {
		return fmt.Errorf("storage: publish %s to %s: %w", s.fileName, s.backend.Name(), err)
	}

	logger.Debug(ctx, "store", "snapshot.publish",
		slog.String("backend", s.backend.Name()),
		slog.String("object", s.fileName),
		slog.Int("accounts", len(table)),
		slog.Int("bytes", len(data)),
	)
	return nil
}

// Encode renders the table as one JSON object with 4-space indentation
// and unescaped non-ASCII. The output is byte-stable across
// encode/decode round trips.
func Encode(table map[string]*accounts.Account) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a snapshot document. Empty input yields an empty table.
func Decode(data []byte) (map[string]*accounts.Account, error) {
	table := make(map[string]*accounts.Account)
	if len(bytes.TrimSpace(data)) == 0 {
		return table, nil
	}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	for k, v := range table {
		if v == nil {
			table[k] = &accounts.Account{}
		}
	}
	return table, nil
}
