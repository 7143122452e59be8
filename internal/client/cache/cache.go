// Package cache keeps the last full dataset fetched from the authoritative
// store so reads keep working offline.
//
// Get only returns an entry while it is fresh: it must carry the current
// SchemaVersion and be younger than its TTL. A stale, foreign or
// undecodable entry reads as absent rather than as an error.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/client/persist"
	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/metrics"
	"github.com/goccy/go-json"
)

// SchemaVersion must be bumped whenever the cached data shape changes.
const SchemaVersion = 3

// DefaultTTL is how long a cached dataset is served.
const DefaultTTL = 24 * time.Hour

// DefaultKey is the persistent path of the cached dataset.
const DefaultKey = "offline_cache.json"

// Entry is the persisted envelope around the cached data.
type Entry[T any] struct {
	Data          T             `json:"data"`
	CapturedAt    time.Time     `json:"timestamp"`
	TTL           time.Duration `json:"ttl"`
	SchemaVersion int           `json:"version"`
}

// Fresh reports whether the entry may be served at now.
func (e Entry[T]) Fresh(now time.Time, version int) bool {
	return e.SchemaVersion == version && now.Sub(e.CapturedAt) < e.TTL
}

// Store is a typed single-entry cache over a persist.Store.
type Store[T any] struct {
	store   persist.Store
	key     string
	ttl     time.Duration
	version int
	now     func() time.Time
}

type Option func(*options)

type options struct {
	key     string
	ttl     time.Duration
	version int
	now     func() time.Time
}

func WithTTL(d time.Duration) Option { return func(o *options) { o.ttl = d } }

func WithKey(key string) Option { return func(o *options) { o.key = key } }

func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithSchemaVersion overrides SchemaVersion; used to exercise migrations.
func WithSchemaVersion(v int) Option { return func(o *options) { o.version = v } }

func New[T any](store persist.Store, opts ...Option) *Store[T] {
	o := options{key: DefaultKey, ttl: DefaultTTL, version: SchemaVersion, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{store: store, key: o.key, ttl: o.ttl, version: o.version, now: o.now}
}

// Put replaces the cached entry with data captured now.
func (s *Store[T]) Put(ctx context.Context, data T) error {
	e := Entry[T]{
		Data:          data,
		CapturedAt:    s.now(),
		TTL:           s.ttl,
		SchemaVersion: s.version,
	}

	b, err := json.Marshal(e)
	if err != nil {
		return common.Persistence("encode cache entry", err)
	}
	if err := s.store.WriteFile(ctx, s.key, b); err != nil {
		return common.Persistence("write cache entry", err)
	}
	return nil
}

// Get returns the cached data and true while the entry is fresh. Only a
// failing persistent store yields an error, wrapping common.ErrPersistence.
func (s *Store[T]) Get(ctx context.Context) (T, bool, error) {
	var zero T

	e, ok, err := s.load(ctx)
	if err != nil || !ok {
		return zero, false, err
	}

	switch {
	case e.SchemaVersion != s.version:
		metrics.CacheLookups.WithLabelValues("schema_mismatch").Inc()
		return zero, false, nil
	case !e.Fresh(s.now(), s.version):
		metrics.CacheLookups.WithLabelValues("expired").Inc()
		return zero, false, nil
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return e.Data, true, nil
}

// Entry returns the stored envelope with its capture metadata regardless of
// freshness, for status reporting. ok is false when nothing decodable is stored.
func (s *Store[T]) Entry(ctx context.Context) (Entry[T], bool, error) {
	return s.load(ctx)
}

// Invalidate drops the cached entry.
func (s *Store[T]) Invalidate(ctx context.Context) error {
	return common.Persistence("remove cache entry", s.store.Remove(ctx, s.key))
}

func (s *Store[T]) load(ctx context.Context) (Entry[T], bool, error) {
	var e Entry[T]

	b, err := s.store.ReadFile(ctx, s.key)
	if errors.Is(err, persist.ErrNotExist) {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return e, false, nil
	}
	if err != nil {
		return e, false, common.Persistence("read cache entry", err)
	}

	if err := json.Unmarshal(b, &e); err != nil {
		metrics.CacheLookups.WithLabelValues("corrupt").Inc()
		return e, false, nil
	}
	return e, true, nil
}
