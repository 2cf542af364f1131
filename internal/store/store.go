// Package store persists the point economy as named JSON documents. Each
// activity partition, the member list and the settings singleton live in
// their own document, rewritten in full on every save.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection names.
const (
	Green    = "green"
	Trade    = "trade"
	Communal = "communal"
	Members  = "members"
	Settings = "settings"
)

// Backend reads and writes raw documents by name. Load reports ok=false when
// the document has never been written.
type Backend interface {
	Load(ctx context.Context, name string) (data []byte, ok bool, err error)
	Save(ctx context.Context, name string, data []byte) error
}

func LoadCollection[T any](ctx context.Context, b Backend, name string) ([]T, error) {
	data, ok, err := b.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return items, nil
}

func SaveCollection[T any](ctx context.Context, b Backend, name string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := b.Save(ctx, name, data); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func LoadSingleton[T any](ctx context.Context, b Backend, name string) (T, bool, error) {
	var v T
	data, ok, err := b.Load(ctx, name)
	if err != nil {
		return v, false, fmt.Errorf("load %s: %w", name, err)
	}
	if !ok || len(data) == 0 {
		return v, false, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, true, nil
}

func SaveSingleton[T any](ctx context.Context, b Backend, name string, v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := b.Save(ctx, name, data); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}
