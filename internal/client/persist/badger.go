package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "doc:"

// BadgerStore keeps every path as one Badger key.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens a Badger database in dir. An empty dir opens an
// in-memory database, which is only useful in tests.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = true
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func badgerKey(path string) []byte {
	return []byte(badgerKeyPrefix + path)
}

func (s *BadgerStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(path))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("badger read %s: %w", path, err)
	}
	return data, nil
}

func (s *BadgerStore) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(badgerKey(path), data))
	})
	if err != nil {
		return fmt.Errorf("badger write %s: %w", path, err)
	}
	return nil
}

func (s *BadgerStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.ReadFile(ctx, path)
	if errors.Is(err, ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *BadgerStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(path))
	})
	if err != nil {
		return fmt.Errorf("badger delete %s: %w", path, err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
