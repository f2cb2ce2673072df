// Package storage provides opaque key-value blob persistence.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/safa0/radiantctl/config"
)

// ErrNotFound is returned by Get when no blob is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// KV stores opaque blobs by key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Close() error
}

// Open builds the backend selected by cfg.
func Open(cfg config.StorageConfig) (KV, error) {
	switch cfg.Backend {
	case "file":
		return NewFileKV(cfg.Path)
	case "sqlite":
		return OpenSQLite(cfg.Path)
	case "memory":
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
