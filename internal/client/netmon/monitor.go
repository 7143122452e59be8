package netmon

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/client/persist"
	"github.com/dmitrijs2005/mediakeeper/internal/eventbus"
	"github.com/dmitrijs2005/mediakeeper/internal/logging"
	"github.com/dmitrijs2005/mediakeeper/internal/metrics"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	// DefaultInterval is the polling period of Serve.
	DefaultInterval = 30 * time.Second
	// StaleAfter is the age beyond which a determination is re-probed
	// before Fresh trusts it.
	StaleAfter = 5 * time.Minute
	// DefaultKey is the persistent path of the status document.
	DefaultKey = "network_status.json"
)

type Monitor struct {
	prober   Prober
	store    persist.Store
	bus      *eventbus.Bus
	logger   logging.Logger
	interval time.Duration
	key      string
	now      func() time.Time
	limiter  *rate.Limiter

	// transition serialises apply so that events of two transitions never
	// interleave.
	transition sync.Mutex

	mu     sync.RWMutex
	status models.NetworkStatus
}

type Option func(*Monitor)

func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option { return func(m *Monitor) { m.now = now } }

func WithKey(key string) Option { return func(m *Monitor) { m.key = key } }

// WithSignalLimit limits how often host signals may trigger a probe.
func WithSignalLimit(every time.Duration, burst int) Option {
	return func(m *Monitor) { m.limiter = rate.NewLimiter(rate.Every(every), burst) }
}

func New(prober Prober, store persist.Store, bus *eventbus.Bus, l logging.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		prober:   prober,
		store:    store,
		bus:      bus,
		logger:   l.With("module", "netmon"),
		interval: DefaultInterval,
		key:      DefaultKey,
		now:      time.Now,
		limiter:  rate.NewLimiter(rate.Every(2*time.Second), 3),
		status:   models.NetworkStatus{Online: true},
	}
	for _, opt := range opts {
		opt(m)
	}
	metrics.SetOnline(m.status.Online)
	return m
}

// Load restores the persisted determination. A missing or unreadable
// document keeps the optimistic online default.
func (m *Monitor) Load(ctx context.Context) error {
	b, err := m.store.ReadFile(ctx, m.key)
	if errors.Is(err, persist.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var st models.NetworkStatus
	if err := json.Unmarshal(b, &st); err != nil {
		m.logger.Warn(ctx, "ignoring corrupt network status", "error", err)
		return nil
	}

	m.mu.Lock()
	m.status = st
	m.mu.Unlock()
	metrics.SetOnline(st.Online)
	return nil
}

// Status returns the cached determination without probing.
func (m *Monitor) Status() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online
}

// Snapshot returns the cached determination with its timestamp.
func (m *Monitor) Snapshot() models.NetworkStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Fresh returns the cached determination if it is younger than StaleAfter
// and probes first otherwise.
func (m *Monitor) Fresh(ctx context.Context) bool {
	if !m.Snapshot().Stale(m.now(), StaleAfter) {
		return m.Status()
	}
	return m.Refresh(ctx)
}

// Refresh checks reachability now and applies the result. A check cut
// short because ctx ended says nothing about reachability: the cached
// determination is kept and returned.
func (m *Monitor) Refresh(ctx context.Context) bool {
	start := time.Now()
	err := m.prober.Probe(ctx)
	if err != nil && ctx.Err() != nil {
		m.logger.Debug(ctx, "reachability check abandoned", "error", ctx.Err())
		return m.Status()
	}
	online := err == nil
	metrics.RecordProbe(online, time.Since(start))

	if err != nil {
		m.logger.Debug(ctx, "probe failed", "error", err)
	}

	m.apply(ctx, online)
	return online
}

// SetOnline forces a determination, e.g. from an operator command.
func (m *Monitor) SetOnline(ctx context.Context, online bool) {
	m.apply(ctx, online)
}

// Signal is the entry point for host connectivity callbacks. A lost link
// is applied at once. A regained link only triggers a probe, subject to
// the signal rate limit.
func (m *Monitor) Signal(ctx context.Context, linkUp bool) {
	if !linkUp {
		m.apply(ctx, false)
		return
	}
	if !m.limiter.Allow() {
		m.logger.Debug(ctx, "connectivity signal rate limited")
		return
	}
	m.Refresh(ctx)
}

// Serve polls until ctx is done. It implements suture.Service.
func (m *Monitor) Serve(ctx context.Context) error {
	m.Refresh(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Monitor) String() string { return "network-monitor" }

func (m *Monitor) apply(ctx context.Context, online bool) {
	m.transition.Lock()
	defer m.transition.Unlock()

	now := m.now()

	m.mu.Lock()
	changed := m.status.Online != online
	m.status.LastChecked = now
	if !changed {
		m.mu.Unlock()
		return
	}
	m.status.Online = online
	st := m.status
	m.mu.Unlock()

	metrics.SetOnline(online)
	m.persist(ctx, st)

	m.logger.Info(ctx, "network status changed", "online", online)

	m.bus.Emit(eventbus.StatusChanged{Online: online})
	if online {
		m.bus.Emit(eventbus.ConnectionRestored{})
	} else {
		m.bus.Emit(eventbus.ConnectionLost{})
	}
}

func (m *Monitor) persist(ctx context.Context, st models.NetworkStatus) {
	b, err := json.Marshal(st)
	if err == nil {
		err = m.store.WriteFile(ctx, m.key, b)
	}
	if err != nil {
		m.logger.Error(ctx, "failed to persist network status", "error", err)
	}
}
