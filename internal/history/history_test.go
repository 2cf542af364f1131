package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloverville/internal/db"
	"cloverville/internal/history"
	"cloverville/internal/migrate"
)

func TestEntryString(t *testing.T) {
	e := history.Entry{
		TS:        time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC),
		Type:      "TRADE_TASK",
		Title:     "Fix fence",
		Performer: "Ada",
		Receiver:  "Bo",
		Points:    5,
	}
	assert.Equal(t, "[2024-02-03] TRADE_TASK | Fix fence | Ada → Bo | 5 points", e.String())
}

func sinks(t *testing.T) map[string]history.Sink {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = migrate.Migrate(context.Background(), conn)
	require.NoError(t, err)
	clock := func() time.Time { return time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC) }
	return map[string]history.Sink{
		"file": history.File{Path: filepath.Join(t.TempDir(), "logs", "history.txt"), Now: clock},
		"db":   history.DB{DB: conn, Now: clock},
	}
}

func TestAppendAndTail(t *testing.T) {
	ctx := context.Background()
	for name, sink := range sinks(t) {
		t.Run(name, func(t *testing.T) {
			lines, err := sink.Tail(ctx, 5)
			require.NoError(t, err)
			assert.Empty(t, lines)

			for _, title := range []string{"one", "two", "three"} {
				require.NoError(t, sink.Append(ctx, history.Entry{Type: "GREEN", Title: title, Points: 1}))
			}
			lines, err = sink.Tail(ctx, 2)
			require.NoError(t, err)
			assert.Equal(t, []string{
				"[2024-02-03] GREEN | two |  →  | 1 points",
				"[2024-02-03] GREEN | three |  →  | 1 points",
			}, lines)

			all, err := sink.Tail(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}
