// Package engine is the facade the application layer talks to.
//
// Writes go straight to the authoritative store while the network monitor
// reports online. Offline, or when the store turns out to be unreachable,
// they are queued and folded into the cached dataset so reads keep
// reflecting them until the coordinator replays the queue.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/client/remote"
	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/eventbus"
	"github.com/dmitrijs2005/mediakeeper/internal/logging"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
)

// refreshTimeout bounds the cache refresh that follows a sync pass.
const refreshTimeout = 30 * time.Second

type Monitor interface {
	Status() bool
	Snapshot() models.NetworkStatus
	Refresh(ctx context.Context) bool
	SetOnline(ctx context.Context, online bool)
}

type Queue interface {
	Append(ctx context.Context, op models.Operation, entityType string, payload models.Payload) (string, error)
	List(ctx context.Context) ([]models.PendingChange, error)
	Count(ctx context.Context) (int, error)
}

type Cache interface {
	Get(ctx context.Context) (models.Dataset, bool, error)
	Put(ctx context.Context, data models.Dataset) error
}

type Syncer interface {
	ForceSync(ctx context.Context) (models.SyncResult, error)
	Start(interval time.Duration)
	Stop()
	LastResult() (models.SyncResult, bool)
}

// Deps are the components an Engine is assembled from.
type Deps struct {
	Bus         *eventbus.Bus
	Monitor     Monitor
	Cache       Cache
	Queue       Queue
	Coordinator Syncer
	Remote      remote.Store
	// EntityTypes are fetched on every online read so the cached dataset
	// covers all of them.
	EntityTypes []string
	Logger      logging.Logger
}

type WriteResult struct {
	ID       string         `json:"id"`
	ChangeID string         `json:"changeId,omitempty"`
	Queued   bool           `json:"queued"`
	Entity   models.Payload `json:"entity,omitempty"`
}

type WriteOutcome struct {
	Result WriteResult
	Err    error
}

type ReadResult struct {
	Records   []models.Payload `json:"records"`
	FromCache bool             `json:"fromCache"`
}

type Engine struct {
	bus         *eventbus.Bus
	monitor     Monitor
	cache       Cache
	queue       Queue
	coordinator Syncer
	remote      remote.Store
	entityTypes []string
	logger      logging.Logger

	// cacheMu serialises read-modify-write cycles on the cached dataset.
	cacheMu sync.Mutex

	// refreshMu guards the post-sync refresh state. At most one refresh
	// runs; completions arriving meanwhile fold into one more run.
	refreshMu    sync.Mutex
	refreshing   bool
	refreshAgain bool
	closed       bool
	refreshWG    sync.WaitGroup
	refreshCtx   context.Context
	stopRefresh  context.CancelFunc

	unsubscribe func()
}

func New(d Deps) *Engine {
	e := &Engine{
		bus:         d.Bus,
		monitor:     d.Monitor,
		cache:       d.Cache,
		queue:       d.Queue,
		coordinator: d.Coordinator,
		remote:      d.Remote,
		entityTypes: d.EntityTypes,
		logger:      d.Logger.With("module", "engine"),
	}
	e.refreshCtx, e.stopRefresh = context.WithCancel(context.Background())
	e.unsubscribe = e.bus.Subscribe(eventbus.KindSyncCompleted, e.onSyncCompleted)
	return e
}

// Close detaches the engine from the bus and waits for a cache refresh in
// flight, cancelling it.
func (e *Engine) Close() {
	e.unsubscribe()

	e.refreshMu.Lock()
	e.closed = true
	e.refreshMu.Unlock()

	e.stopRefresh()
	e.refreshWG.Wait()
}

func (e *Engine) NetworkStatus() bool { return e.monitor.Status() }

func (e *Engine) NetworkSnapshot() models.NetworkStatus { return e.monitor.Snapshot() }

// SetOnline overrides the monitor's determination.
func (e *Engine) SetOnline(ctx context.Context, online bool) { e.monitor.SetOnline(ctx, online) }

func (e *Engine) Subscribe(kind eventbus.Kind, h eventbus.Handler) func() {
	return e.bus.Subscribe(kind, h)
}

func (e *Engine) ForceSync(ctx context.Context) (models.SyncResult, error) {
	return e.coordinator.ForceSync(ctx)
}

func (e *Engine) Start(interval time.Duration) { e.coordinator.Start(interval) }

func (e *Engine) Stop() { e.coordinator.Stop() }

func (e *Engine) PendingCount(ctx context.Context) (int, error) { return e.queue.Count(ctx) }

func (e *Engine) PendingChanges(ctx context.Context) ([]models.PendingChange, error) {
	return e.queue.List(ctx)
}

func (e *Engine) LastSyncResult() (models.SyncResult, bool) { return e.coordinator.LastResult() }

// Write applies a mutation. Online it reaches the authoritative store and
// its errors are returned as they are, except connectivity failures, which
// fall back to queueing. Offline the change is queued and the call
// succeeds once the queue entry is durable.
func (e *Engine) Write(ctx context.Context, entityType string, op models.Operation, payload models.Payload) (WriteResult, error) {
	if !op.Valid() {
		return WriteResult{}, fmt.Errorf("%w: %q", common.ErrInvalidOperation, op)
	}
	if entityType == "" {
		return WriteResult{}, common.ErrInvalidEntityType
	}

	p := payload.Clone()
	if p == nil {
		p = models.Payload{}
	}
	if models.PrimaryKey(p) == "" {
		if op != models.OperationAdd {
			return WriteResult{}, common.ErrMissingID
		}
		p[models.IDField] = uuid.NewString()
	}

	if e.monitor.Status() {
		res, err := e.writeRemote(ctx, entityType, op, p)
		if err == nil {
			return res, nil
		}
		if !isUnreachable(err) {
			return WriteResult{}, err
		}
		e.logger.Warn(ctx, "authoritative store unreachable, queueing write", "entityType", entityType, "error", err)
		go e.monitor.Refresh(context.WithoutCancel(ctx))
	}

	return e.writeOffline(ctx, entityType, op, p)
}

// WriteAsync runs Write in the background and delivers its outcome on the
// returned channel.
func (e *Engine) WriteAsync(ctx context.Context, entityType string, op models.Operation, payload models.Payload) <-chan WriteOutcome {
	out := make(chan WriteOutcome, 1)
	go func() {
		res, err := e.Write(ctx, entityType, op, payload)
		out <- WriteOutcome{Result: res, Err: err}
		close(out)
	}()
	return out
}

func (e *Engine) writeRemote(ctx context.Context, entityType string, op models.Operation, p models.Payload) (WriteResult, error) {
	id := models.PrimaryKey(p)

	if op == models.OperationDelete {
		if _, err := e.remote.Delete(ctx, entityType, id); err != nil {
			return WriteResult{}, err
		}
		e.applyToCache(ctx, false, op, entityType, p)
		return WriteResult{ID: id}, nil
	}

	entity, err := e.remote.Upsert(ctx, entityType, p)
	if err != nil {
		return WriteResult{}, err
	}
	if entity == nil {
		entity = p
	}
	e.applyToCache(ctx, false, op, entityType, entity)
	return WriteResult{ID: id, Entity: entity}, nil
}

func (e *Engine) writeOffline(ctx context.Context, entityType string, op models.Operation, p models.Payload) (WriteResult, error) {
	changeID, err := e.queue.Append(ctx, op, entityType, p)
	if err != nil {
		return WriteResult{}, err
	}

	e.applyToCache(ctx, true, op, entityType, p)

	if n, err := e.queue.Count(ctx); err == nil {
		e.bus.Emit(eventbus.PendingChangesUpdated{Count: n})
	}

	res := WriteResult{ID: models.PrimaryKey(p), ChangeID: changeID, Queued: true}
	if op != models.OperationDelete {
		res.Entity = p
	}
	return res, nil
}

// applyToCache folds one change into the cached dataset. When nothing is
// cached the change is dropped unless create is set, in which case it
// starts an empty dataset. Failures only degrade the read path and are
// logged.
func (e *Engine) applyToCache(ctx context.Context, create bool, op models.Operation, entityType string, p models.Payload) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	ds, ok, err := e.cache.Get(ctx)
	if err != nil {
		e.logger.Error(ctx, "failed to read offline cache", "error", err)
		return
	}
	if !ok {
		if !create {
			return
		}
		ds = models.Dataset{}
	}

	ds = ds.Clone()
	ds.Apply(op, entityType, p.Clone())

	if err := e.cache.Put(ctx, ds); err != nil {
		e.logger.Error(ctx, "failed to update offline cache", "error", err)
	}
}

// Read returns the records of entityType. Online it fetches every
// configured entity type and replaces the cache with the result. Offline,
// or when the fetch fails, it serves the cache.
func (e *Engine) Read(ctx context.Context, entityType string) (ReadResult, error) {
	if entityType == "" {
		return ReadResult{}, common.ErrInvalidEntityType
	}

	if e.monitor.Status() {
		ds, err := e.fetchAll(ctx, entityType)
		if err == nil {
			return ReadResult{Records: nonNil(ds[entityType])}, nil
		}
		e.logger.Warn(ctx, "remote read failed, serving cache", "entityType", entityType, "error", err)
		if isUnreachable(err) {
			go e.monitor.Refresh(context.WithoutCancel(ctx))
		}
	}

	e.cacheMu.Lock()
	ds, ok, err := e.cache.Get(ctx)
	e.cacheMu.Unlock()
	if err != nil {
		return ReadResult{}, err
	}
	if !ok {
		return ReadResult{}, common.ErrLocalDataNotAvailable
	}
	return ReadResult{Records: nonNil(ds[entityType]), FromCache: true}, nil
}

// fetchAll lists every configured entity type plus extra, folds the still
// queued changes on top and caches the combined dataset.
func (e *Engine) fetchAll(ctx context.Context, extra string) (models.Dataset, error) {
	types := e.entityTypes
	if extra != "" && !slices.Contains(types, extra) {
		types = append(append([]string(nil), types...), extra)
	}

	ds := make(models.Dataset, len(types))
	for _, t := range types {
		records, err := e.remote.ListAll(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", t, err)
		}
		ds[t] = records
	}

	pending, err := e.queue.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range pending {
		ds.Apply(c.Operation, c.EntityType, c.Payload.Clone())
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if err := e.cache.Put(ctx, ds); err != nil {
		e.logger.Error(ctx, "failed to store offline cache", "error", err)
	}
	return ds, nil
}

// onSyncCompleted schedules a cache refresh from the authoritative store
// after a pass applied at least one change, so the cache stops relying on
// the locally folded copies. The refresh runs in the background: the
// handler is called from inside the pass and must not hold it up.
func (e *Engine) onSyncCompleted(ev eventbus.Event) error {
	done, ok := ev.(eventbus.SyncCompleted)
	if !ok || done.Result.SuccessCount == 0 || len(e.entityTypes) == 0 {
		return nil
	}

	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()
	switch {
	case e.closed:
	case e.refreshing:
		e.refreshAgain = true
	default:
		e.refreshing = true
		e.refreshWG.Add(1)
		go e.refreshLoop()
	}
	return nil
}

func (e *Engine) refreshLoop() {
	defer e.refreshWG.Done()
	for {
		e.refreshOnce()

		e.refreshMu.Lock()
		if !e.refreshAgain || e.closed {
			e.refreshing, e.refreshAgain = false, false
			e.refreshMu.Unlock()
			return
		}
		e.refreshAgain = false
		e.refreshMu.Unlock()
	}
}

func (e *Engine) refreshOnce() {
	ctx, cancel := context.WithTimeout(e.refreshCtx, refreshTimeout)
	defer cancel()
	if _, err := e.fetchAll(ctx, ""); err != nil {
		e.logger.Warn(ctx, "cache refresh after sync failed", "error", err)
	}
}

func isUnreachable(err error) bool {
	return errors.Is(err, common.ErrUnavailable) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}

func nonNil(records []models.Payload) []models.Payload {
	if records == nil {
		return []models.Payload{}
	}
	return records
}
