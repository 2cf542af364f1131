package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// Files keeps each document as <Dir>/<name>.json.
type Files struct {
	Dir string
}

func (f Files) path(name string) string {
	return filepath.Join(f.Dir, name+".json")
}

func (f Files) Load(_ context.Context, name string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Save replaces the document atomically via a temp file and rename.
func (f Files) Save(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.Dir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path(name))
}
