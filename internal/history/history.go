// Package history keeps the plain-text audit trail of logged and completed
// activities.
package history

import (
	"context"
	"fmt"
	"time"
)

type Entry struct {
	TS        time.Time `json:"ts"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Performer string    `json:"performer,omitempty"`
	Receiver  string    `json:"receiver,omitempty"`
	Points    int       `json:"points"`
}

// String renders the entry as one history line.
func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s | %s | %s → %s | %d points",
		e.TS.Format("2006-01-02"), e.Type, e.Title, e.Performer, e.Receiver, e.Points)
}

// Sink stores history entries. Tail returns the newest n rendered lines,
// oldest first.
type Sink interface {
	Append(ctx context.Context, e Entry) error
	Tail(ctx context.Context, n int) ([]string, error)
}

// Discard drops every entry.
type Discard struct{}

func (Discard) Append(context.Context, Entry) error         { return nil }
func (Discard) Tail(context.Context, int) ([]string, error) { return nil, nil }
