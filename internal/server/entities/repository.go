// Package entities stores the records of the authoritative store, scoped
// per user and entity type.
package entities

import (
	"context"

	"github.com/dmitrijs2005/mediakeeper/internal/models"
)

// Repository persists records. Payloads always carry their id.
type Repository interface {
	// Upsert creates or replaces the record and returns what was stored.
	Upsert(ctx context.Context, userID, entityType string, p models.Payload) (models.Payload, error)
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, userID, entityType, id string) (bool, error)
	// ListAll returns records in creation order.
	ListAll(ctx context.Context, userID, entityType string) ([]models.Payload, error)
}
