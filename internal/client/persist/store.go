package persist

import (
	"context"
	"errors"
)

// ErrNotExist is returned by ReadFile for an unknown path.
var ErrNotExist = errors.New("persist: file does not exist")

// Store is the durable file contract used by the sync engine.
type Store interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	Exists(ctx context.Context, path string) (bool, error)
	Remove(ctx context.Context, path string) error
	Close() error
}
