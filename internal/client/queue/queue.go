// Package queue is the durable FIFO of writes made while offline.
//
// The whole queue is persisted as one JSON document. Every mutation is
// written through before it is acknowledged, and a failed write leaves the
// in-memory list untouched, so memory and disk never disagree about what
// has been acknowledged. List order is insertion order and is the order the
// sync coordinator replays in.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/client/persist"
	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/metrics"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/goccy/go-json"
)

// DefaultKey is the persistent path of the queue document.
const DefaultKey = "pending_changes.json"

// DefaultMaxEntries caps the queue so a long offline period cannot grow it
// without bound.
const DefaultMaxEntries = 10000

type Queue struct {
	store      persist.Store
	key        string
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	loaded  bool
	changes []models.PendingChange
	lastID  string
}

type Option func(*Queue)

func WithKey(key string) Option { return func(q *Queue) { q.key = key } }

func WithMaxEntries(n int) Option { return func(q *Queue) { q.maxEntries = n } }

func WithClock(now func() time.Time) Option { return func(q *Queue) { q.now = now } }

func New(store persist.Store, opts ...Option) *Queue {
	q := &Queue{
		store:      store,
		key:        DefaultKey,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Append records a change and returns its id once it is durable.
func (q *Queue) Append(ctx context.Context, op models.Operation, entityType string, payload models.Payload) (string, error) {
	if !op.Valid() {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidOperation, op)
	}
	if entityType == "" {
		return "", common.ErrInvalidEntityType
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.loadLocked(ctx); err != nil {
		return "", err
	}
	if q.maxEntries > 0 && len(q.changes) >= q.maxEntries {
		return "", common.ErrQueueFull
	}

	now := q.now()
	change := models.PendingChange{
		ID:         q.nextIDLocked(entityType, payload, now),
		Operation:  op,
		EntityType: entityType,
		Payload:    payload.Clone(),
		CreatedAt:  now,
	}

	next := make([]models.PendingChange, len(q.changes), len(q.changes)+1)
	copy(next, q.changes)
	next = append(next, change)

	if err := q.flushLocked(ctx, next); err != nil {
		return "", err
	}
	q.changes = next
	q.lastID = change.ID
	metrics.PendingChanges.Set(float64(len(next)))

	return change.ID, nil
}

// List returns a copy of the queued changes, oldest first.
func (q *Queue) List(ctx context.Context) ([]models.PendingChange, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.loadLocked(ctx); err != nil {
		return nil, err
	}

	out := make([]models.PendingChange, len(q.changes))
	copy(out, q.changes)
	return out, nil
}

// Remove deletes the change with id. Unknown ids are ignored and do not
// touch the persistent store.
func (q *Queue) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.loadLocked(ctx); err != nil {
		return err
	}

	idx := -1
	for i, c := range q.changes {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	next := make([]models.PendingChange, 0, len(q.changes)-1)
	next = append(next, q.changes[:idx]...)
	next = append(next, q.changes[idx+1:]...)

	if err := q.flushLocked(ctx, next); err != nil {
		return err
	}
	q.changes = next
	metrics.PendingChanges.Set(float64(len(next)))

	return nil
}

// Count returns the number of queued changes.
func (q *Queue) Count(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.loadLocked(ctx); err != nil {
		return 0, err
	}
	return len(q.changes), nil
}

func (q *Queue) loadLocked(ctx context.Context) error {
	if q.loaded {
		return nil
	}

	b, err := q.store.ReadFile(ctx, q.key)
	switch {
	case errors.Is(err, persist.ErrNotExist):
		q.changes = nil
	case err != nil:
		return common.Persistence("load pending changes", err)
	default:
		var changes []models.PendingChange
		if err := json.Unmarshal(b, &changes); err != nil {
			return common.Persistence("decode pending changes", err)
		}
		q.changes = changes
	}

	q.loaded = true
	metrics.PendingChanges.Set(float64(len(q.changes)))
	return nil
}

func (q *Queue) flushLocked(ctx context.Context, changes []models.PendingChange) error {
	if changes == nil {
		changes = []models.PendingChange{}
	}
	b, err := json.Marshal(changes)
	if err != nil {
		return common.Persistence("encode pending changes", err)
	}
	if err := q.store.WriteFile(ctx, q.key, b); err != nil {
		return common.Persistence("write pending changes", err)
	}
	return nil
}

// nextIDLocked builds entityType:primaryKey:unixNano, adding a counter
// suffix when the clock has not moved since the previous append.
func (q *Queue) nextIDLocked(entityType string, payload models.Payload, now time.Time) string {
	base := entityType + ":" + models.PrimaryKey(payload) + ":" + strconv.FormatInt(now.UnixNano(), 10)
	id := base
	for n := 1; q.hasIDLocked(id); n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	return id
}

func (q *Queue) hasIDLocked(id string) bool {
	if id == q.lastID {
		return true
	}
	for i := len(q.changes) - 1; i >= 0; i-- {
		if q.changes[i].ID == id {
			return true
		}
	}
	return false
}
