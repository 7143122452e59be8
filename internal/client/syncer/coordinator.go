package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/client/remote"
	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/eventbus"
	"github.com/dmitrijs2005/mediakeeper/internal/logging"
	"github.com/dmitrijs2005/mediakeeper/internal/metrics"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultInterval is the periodic pass interval when none is given.
	DefaultInterval = 15 * time.Minute
	// MinInterval is the floor applied to any configured interval.
	MinInterval = 5 * time.Minute
	// DefaultMaxBackoff caps the periodic delay after failing passes.
	DefaultMaxBackoff = 2 * time.Hour

	flightKey   = "sync"
	deferredMsg = "deferred: an earlier change for this entity failed"
)

// State of the coordinator.
type State int32

const (
	Idle State = iota
	Syncing
)

func (s State) String() string {
	if s == Syncing {
		return "syncing"
	}
	return "idle"
}

// Queue is the part of the pending change queue a pass consumes.
type Queue interface {
	List(ctx context.Context) ([]models.PendingChange, error)
	Remove(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Network reports the cached reachability determination.
type Network interface {
	Status() bool
}

type Coordinator struct {
	queue  Queue
	net    Network
	store  remote.Store
	bus    *eventbus.Bus
	logger logging.Logger

	now         func() time.Time
	minInterval time.Duration
	maxBackoff  time.Duration

	group singleflight.Group
	state atomic.Int32

	mu         sync.Mutex
	last       models.SyncResult
	hasLast    bool
	failStreak int

	runMu    sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

type Option func(*Coordinator)

func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// WithInterval sets the periodic interval Serve uses.
func WithInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.interval = c.clampInterval(d) }
}

func WithMaxBackoff(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.maxBackoff = d
		}
	}
}

func New(q Queue, n Network, store remote.Store, bus *eventbus.Bus, l logging.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		queue:       q,
		net:         n,
		store:       store,
		bus:         bus,
		logger:      l.With("module", "syncer"),
		now:         time.Now,
		minInterval: MinInterval,
		maxBackoff:  DefaultMaxBackoff,
		interval:    DefaultInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) State() State { return State(c.state.Load()) }

// LastResult returns the result of the most recent pass that ran.
func (c *Coordinator) LastResult() (models.SyncResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasLast
}

// ForceSync runs a pass now. A caller arriving while a pass is in flight
// waits for that pass and receives its result. The pass itself is detached
// from ctx: cancelling ctx stops the wait, never the pass.
func (c *Coordinator) ForceSync(ctx context.Context) (models.SyncResult, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.pass(detached)
	})

	select {
	case r := <-ch:
		res, _ := r.Val.(models.SyncResult)
		return res, r.Err
	case <-ctx.Done():
		return models.SyncResult{}, ctx.Err()
	}
}

func (c *Coordinator) pass(ctx context.Context) (models.SyncResult, error) {
	count, err := c.queue.Count(ctx)
	if err != nil {
		return models.SyncResult{}, err
	}

	online := c.net.Status()
	if !online {
		return models.SyncResult{
			Timestamp:           c.now(),
			PendingChangesCount: count,
		}, common.ErrOffline
	}
	if count == 0 {
		return models.SyncResult{Timestamp: c.now(), IsOnline: true}, nil
	}

	c.state.Store(int32(Syncing))
	defer c.state.Store(int32(Idle))

	start := time.Now()
	c.bus.Emit(eventbus.SyncStarted{})

	snapshot, err := c.queue.List(ctx)
	if err != nil {
		c.finishFailed(ctx, models.SyncResult{Timestamp: c.now(), IsOnline: online, PendingChangesCount: count}, err, 0, start)
		return models.SyncResult{}, err
	}
	known := len(snapshot)

	var (
		res      = models.SyncResult{IsOnline: online, Errors: []string{}}
		failed   = map[string]bool{}
		deferred int
		abort    error
	)

	for i, change := range snapshot {
		key := change.EntityKey()
		if failed[key] {
			res.FailedCount++
			deferred++
			res.Errors = append(res.Errors, (&common.ReplayError{
				ChangeID:  change.ID,
				EntityKey: key,
				Err:       errors.New(deferredMsg),
			}).Error())
			continue
		}

		err := c.replay(ctx, change)
		if err != nil && isUnreachable(err) {
			abort = &common.PassAbortError{Err: err, Remaining: len(snapshot) - i}
			break
		}
		if err == nil {
			if err = c.queue.Remove(ctx, change.ID); err == nil {
				res.SuccessCount++
				continue
			}
		}

		rerr := &common.ReplayError{ChangeID: change.ID, EntityKey: key, Err: err}
		c.logger.Warn(ctx, "pending change not replayed", "id", change.ID, "error", err)
		failed[key] = true
		res.FailedCount++
		res.Errors = append(res.Errors, rerr.Error())
	}

	pending, err := c.queue.Count(ctx)
	if err != nil {
		c.logger.Error(ctx, "failed to count pending changes", "error", err)
		pending = known - res.SuccessCount
	}
	if pending != known {
		c.bus.Emit(eventbus.PendingChangesUpdated{Count: pending})
	}

	res.Timestamp = c.now()
	res.PendingChangesCount = pending
	res.HasPendingChanges = res.FailedCount > 0

	if abort != nil {
		c.finishFailed(ctx, res, abort, deferred, start)
		return res, abort
	}

	c.record(res, res.FailedCount == 0)
	metrics.RecordSyncPass(true, res.SuccessCount, res.FailedCount, deferred, time.Since(start))
	c.logger.Info(ctx, "sync pass completed",
		"success", res.SuccessCount, "failed", res.FailedCount, "pending", pending)
	c.bus.Emit(eventbus.SyncCompleted{Result: res})

	return res, nil
}

func (c *Coordinator) finishFailed(ctx context.Context, res models.SyncResult, err error, deferred int, start time.Time) {
	res.Errors = append(res.Errors, err.Error())
	c.record(res, false)
	metrics.RecordSyncPass(false, res.SuccessCount, res.FailedCount, deferred, time.Since(start))
	c.logger.Warn(ctx, "sync pass failed", "error", err)
	c.bus.Emit(eventbus.SyncFailed{Err: err})
}

func (c *Coordinator) record(res models.SyncResult, clean bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = res
	c.hasLast = true
	if clean {
		c.failStreak = 0
	} else {
		c.failStreak++
	}
}

func (c *Coordinator) replay(ctx context.Context, change models.PendingChange) error {
	switch change.Operation {
	case models.OperationAdd, models.OperationUpdate:
		_, err := c.store.Upsert(ctx, change.EntityType, change.Payload)
		return err
	case models.OperationDelete:
		id := models.PrimaryKey(change.Payload)
		if id == "" {
			return common.ErrMissingID
		}
		// A record that is already gone counts as deleted.
		_, err := c.store.Delete(ctx, change.EntityType, id)
		return err
	default:
		return fmt.Errorf("%w: %q", common.ErrInvalidOperation, change.Operation)
	}
}

func isUnreachable(err error) bool {
	return errors.Is(err, common.ErrUnavailable) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}

// nextDelay is the wait before the next periodic pass: the interval,
// doubled for each consecutive failing pass after the first.
func (c *Coordinator) nextDelay(interval time.Duration) time.Duration {
	c.mu.Lock()
	n := c.failStreak
	c.mu.Unlock()

	d := interval
	for i := 1; i < n; i++ {
		d *= 2
		if d >= c.maxBackoff {
			return c.maxBackoff
		}
	}
	return d
}

// Start runs the periodic timer in the background. A zero interval picks
// DefaultInterval and anything below MinInterval is raised to it. Calling
// Start again restarts the timer with the new interval.
func (c *Coordinator) Start(interval time.Duration) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	c.stopLocked()

	interval = c.clampInterval(interval)
	c.interval = interval
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel, c.done = cancel, done

	go func() {
		defer close(done)
		c.loop(ctx, interval)
	}()
}

// Stop stops the periodic timer. A pass in flight runs to completion.
func (c *Coordinator) Stop() {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.stopLocked()
}

// stopLocked waits only for the timer loop: the loop never holds runMu and
// a pass it started keeps running detached.
func (c *Coordinator) stopLocked() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel, c.done = nil, nil
}

// Serve runs the periodic timer until ctx is done. It implements
// suture.Service.
func (c *Coordinator) Serve(ctx context.Context) error {
	c.runMu.Lock()
	interval := c.interval
	c.runMu.Unlock()

	c.loop(ctx, interval)
	return ctx.Err()
}

func (c *Coordinator) String() string { return "sync-coordinator" }

func (c *Coordinator) clampInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultInterval
	}
	if d < c.minInterval {
		return c.minInterval
	}
	return d
}

func (c *Coordinator) loop(ctx context.Context, interval time.Duration) {
	unsubscribe := c.bus.Subscribe(eventbus.KindConnectionRestored, func(eventbus.Event) error {
		go c.trigger(ctx, "connection restored")
		return nil
	})
	defer unsubscribe()

	timer := time.NewTimer(c.nextDelay(interval))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			c.trigger(ctx, "timer")
			timer.Reset(c.nextDelay(interval))
		case <-ctx.Done():
			return
		}
	}
}

func (c *Coordinator) trigger(ctx context.Context, reason string) {
	_, err := c.ForceSync(ctx)
	switch {
	case err == nil, errors.Is(err, common.ErrOffline), errors.Is(err, context.Canceled):
	default:
		c.logger.Debug(ctx, "background sync ended with error", "reason", reason, "error", err)
	}
}
