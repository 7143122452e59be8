package persist

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/mediakeeper/internal/filex"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Config selects and locates the local store.
type Config struct {
	Backend    string
	Dir        string
	Passphrase string
}

// Open builds the configured backend under cfg.Dir, wrapped in an
// EncryptedStore when a passphrase is set.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)

	if cfg.Dir != "" {
		dir, err := filex.EnsureDir(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		cfg.Dir = dir
	}

	switch cfg.Backend {
	case BackendSQLite, "":
		s, err = OpenSQLite(ctx, filepath.Join(cfg.Dir, "mediakeeper.db"))
	case BackendBadger:
		s, err = OpenBadger(filepath.Join(cfg.Dir, "badger"))
	case BackendFile:
		s, err = NewFileStore(filepath.Join(cfg.Dir, "files"))
	case BackendMemory:
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Passphrase == "" {
		return s, nil
	}

	enc, err := NewEncryptedStore(ctx, s, []byte(cfg.Passphrase))
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return enc, nil
}
