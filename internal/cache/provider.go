// Package cache persists analysis results between survey runs so unchanged
// recordings are not re-filtered.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Provider defines the minimal cache operations needed by the survey runner.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Close() error
}

// ErrCacheMiss signals that a cache key was not found.
var ErrCacheMiss = errors.New("cache miss")

// NoopProvider implements Provider but never stores data.
type NoopProvider struct{}

// Get always returns ErrCacheMiss.
func (NoopProvider) Get(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

// Set discards the value and returns nil.
func (NoopProvider) Set(context.Context, string, []byte) error { return nil }

// Del is a no-op for the noop cache.
func (NoopProvider) Del(context.Context, string) error { return nil }

// Close is a no-op.
func (NoopProvider) Close() error { return nil }

// entrySuffix keeps cached entries recognisable as the JSON documents the
// survey runner stores.
const entrySuffix = ".json"

// DirProvider stores each entry as a file under a cache directory. Entries
// are content-addressed by the caller, so they never expire.
type DirProvider struct {
	dir string
}

// NewDirProvider creates the cache directory if needed.
func NewDirProvider(dir string) (*DirProvider, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &DirProvider{dir: dir}, nil
}

// Get reads an entry, returning ErrCacheMiss when it does not exist.
func (p *DirProvider) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := p.entryPath(key)
	if err != nil {
		return nil, err
	}
	value, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}
	return value, nil
}

// Set writes an entry through a temporary file so concurrent survey workers
// never observe a half-written value.
func (p *DirProvider) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := p.entryPath(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(p.dir, "entry-*")
	if err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish cache entry: %w", err)
	}
	return nil
}

// Del removes an entry if present.
func (p *DirProvider) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := p.entryPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache entry: %w", err)
	}
	return nil
}

// Close is a no-op for a directory cache.
func (p *DirProvider) Close() error { return nil }

func (p *DirProvider) entryPath(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty cache key")
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return "", fmt.Errorf("invalid cache key %q", key)
		}
	}
	return filepath.Join(p.dir, key+entrySuffix), nil
}
