package storage

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"

	"github.com/jmoiron/sqlx"
)

// postgresBackend keeps the snapshot as one row in the snapshots table,
// full document replace on every publish.
type postgresBackend struct {
	db   *sqlx.DB
	name string
}

func newPostgresBackend(db *sqlx.DB, name string) *postgresBackend {
	return &postgresBackend{db: db, name: name}
}

func (b *postgresBackend) Name() string { return "postgres" }

func (b *postgresBackend) Fetch(ctx context.Context) ([]byte, error) {
	var body []byte
	err := b.db.GetContext(ctx, &body,
		`SELECT body FROM snapshots WHERE name = $1`, b.name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fs.ErrNotExist
		}
		return nil, err
	}
	return body, nil
}

func (b *postgresBackend) Publish(ctx context.Context, scratchPath string) error {
	data, err := os.ReadFile(scratchPath)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO snapshots (name, body, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE
		 SET body = EXCLUDED.body, updated_at = now()`,
		b.name, data)
	return err
}
