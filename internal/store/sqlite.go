package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLite keeps documents in the collections table.
type SQLite struct {
	DB  *sql.DB
	Now func() time.Time
}

func (s SQLite) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s SQLite) Load(ctx context.Context, name string) ([]byte, bool, error) {
	var payload string
	err := s.DB.QueryRowContext(ctx, `SELECT payload_json FROM collections WHERE name=?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(payload), true, nil
}

func (s SQLite) Save(ctx context.Context, name string, data []byte) error {
	now := s.now().UTC().Format(time.RFC3339)
	_, err := s.DB.ExecContext(ctx, `INSERT INTO collections(name,payload_json,updated_at) VALUES (?,?,?)
ON CONFLICT(name) DO UPDATE SET payload_json=excluded.payload_json, updated_at=excluded.updated_at`, name, string(data), now)
	return err
}

// Names lists stored documents with their last write time.
func (s SQLite) Names(ctx context.Context) (map[string]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT name, updated_at FROM collections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]string{}
	for rows.Next() {
		var name, updated string
		if err := rows.Scan(&name, &updated); err != nil {
			return nil, err
		}
		res[name] = updated
	}
	return res, rows.Err()
}
