package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// DB records entries in the history table next to the stored collections.
type DB struct {
	DB  *sql.DB
	Now func() time.Time
}

func (w DB) Append(ctx context.Context, e Entry) error {
	if e.TS.IsZero() {
		e.TS = now(w.Now)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	_, err = w.DB.ExecContext(ctx, `INSERT INTO history(ts,type,title,performer,receiver,points,payload_json) VALUES (?,?,?,?,?,?,?)`,
		e.TS.UTC().Format(time.RFC3339), e.Type, e.Title, nullable(e.Performer), nullable(e.Receiver), e.Points, string(data))
	return err
}

func (w DB) Tail(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		n = -1
	}
	rows, err := w.DB.QueryContext(ctx, `SELECT payload_json FROM (SELECT id, payload_json FROM history ORDER BY id DESC LIMIT ?) ORDER BY id ASC`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []string
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var e Entry
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		lines = append(lines, e.String())
	}
	return lines, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
