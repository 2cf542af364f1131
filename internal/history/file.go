package history

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// File appends one line per entry to a plain-text file.
type File struct {
	Path string
	Now  func() time.Time
}

func (f File) Append(_ context.Context, e Entry) error {
	if e.TS.IsZero() {
		e.TS = now(f.Now)
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	w, err := os.OpenFile(f.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := w.WriteString(e.String() + "\n"); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (f File) Tail(_ context.Context, n int) ([]string, error) {
	r, err := os.Open(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if n > 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines, scanner.Err()
}

func now(fn func() time.Time) time.Time {
	if fn != nil {
		return fn()
	}
	return time.Now()
}
