package entities

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/mediakeeper/internal/models"
)

// MemoryRepository keeps records in process memory. It backs the server
// when no database DSN is configured.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[string]models.Dataset // by user
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: map[string]models.Dataset{}}
}

func (r *MemoryRepository) Upsert(ctx context.Context, userID, entityType string, p models.Payload) (models.Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.data[userID]
	if !ok {
		d = models.Dataset{}
		r.data[userID] = d
	}
	d.Upsert(entityType, p.Clone())
	return p.Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, userID, entityType, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.data[userID]
	before := len(d[entityType])
	if before == 0 {
		return false, nil
	}
	d.Remove(entityType, id)
	return len(d[entityType]) < before, nil
}

func (r *MemoryRepository) ListAll(ctx context.Context, userID, entityType string) ([]models.Payload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.data[userID][entityType]
	out := make([]models.Payload, 0, len(records))
	for _, p := range records {
		out = append(out, p.Clone())
	}
	return out, nil
}
