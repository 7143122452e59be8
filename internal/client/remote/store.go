package remote

import (
	"context"

	"github.com/dmitrijs2005/mediakeeper/internal/models"
)

// Store is the authoritative store contract.
type Store interface {
	Upsert(ctx context.Context, entityType string, p models.Payload) (models.Payload, error)
	Delete(ctx context.Context, entityType, id string) (bool, error)
	ListAll(ctx context.Context, entityType string) ([]models.Payload, error)
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Client is a Store that can also be pinged and closed.
type Client interface {
	Store
	Pinger
	Close() error
}
