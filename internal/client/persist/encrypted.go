package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/cryptox"
)

const (
	saltPath  = "_crypto/salt"
	checkPath = "_crypto/check"
)

var checkPlaintext = []byte("mediakeeper")

// ErrWrongPassphrase is returned by NewEncryptedStore when the passphrase
// does not match the one the store was created with.
var ErrWrongPassphrase = errors.New("persist: wrong passphrase")

// EncryptedStore seals every value before handing it to the wrapped store.
// Paths are stored in clear.
type EncryptedStore struct {
	inner Store
	key   []byte
}

// NewEncryptedStore derives the key from passphrase and a salt kept in
// inner. The first call on an empty store creates the salt and a check
// value; later calls verify the passphrase against it.
func NewEncryptedStore(ctx context.Context, inner Store, passphrase []byte) (*EncryptedStore, error) {
	salt, err := inner.ReadFile(ctx, saltPath)
	switch {
	case errors.Is(err, ErrNotExist):
		salt = common.GenerateRandByteArray(cryptox.SaltSize)
		if err := inner.WriteFile(ctx, saltPath, salt); err != nil {
			return nil, fmt.Errorf("store salt: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("read salt: %w", err)
	}

	s := &EncryptedStore{inner: inner, key: cryptox.DeriveKey(passphrase, salt)}

	check, err := inner.ReadFile(ctx, checkPath)
	switch {
	case errors.Is(err, ErrNotExist):
		sealed, err := cryptox.Seal(s.key, checkPlaintext)
		if err != nil {
			return nil, err
		}
		if err := inner.WriteFile(ctx, checkPath, sealed); err != nil {
			return nil, fmt.Errorf("store check value: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("read check value: %w", err)
	default:
		if _, err := cryptox.Open(s.key, check); err != nil {
			common.WipeByteArray(s.key)
			return nil, ErrWrongPassphrase
		}
	}

	return s, nil
}

func (s *EncryptedStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	sealed, err := s.inner.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	data, err := cryptox.Open(s.key, sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", path, err)
	}
	return data, nil
}

func (s *EncryptedStore) WriteFile(ctx context.Context, path string, data []byte) error {
	sealed, err := cryptox.Seal(s.key, data)
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", path, err)
	}
	return s.inner.WriteFile(ctx, path, sealed)
}

func (s *EncryptedStore) Exists(ctx context.Context, path string) (bool, error) {
	return s.inner.Exists(ctx, path)
}

func (s *EncryptedStore) Remove(ctx context.Context, path string) error {
	return s.inner.Remove(ctx, path)
}

func (s *EncryptedStore) Close() error {
	common.WipeByteArray(s.key)
	return s.inner.Close()
}
