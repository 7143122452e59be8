package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/client/api"
	"github.com/dmitrijs2005/mediakeeper/internal/client/cache"
	"github.com/dmitrijs2005/mediakeeper/internal/client/config"
	"github.com/dmitrijs2005/mediakeeper/internal/client/engine"
	"github.com/dmitrijs2005/mediakeeper/internal/client/netmon"
	"github.com/dmitrijs2005/mediakeeper/internal/client/persist"
	"github.com/dmitrijs2005/mediakeeper/internal/client/queue"
	"github.com/dmitrijs2005/mediakeeper/internal/client/remote"
	"github.com/dmitrijs2005/mediakeeper/internal/client/syncer"
	"github.com/dmitrijs2005/mediakeeper/internal/eventbus"
	"github.com/dmitrijs2005/mediakeeper/internal/logging"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/dmitrijs2005/mediakeeper/internal/supervisor"
)

// promptPassphrase is the -k value that asks for the passphrase on the
// terminal instead of taking it from the command line.
const promptPassphrase = "-"

// Engine is the part of engine.Engine the commands use.
type Engine interface {
	NetworkSnapshot() models.NetworkStatus
	SetOnline(ctx context.Context, online bool)
	PendingCount(ctx context.Context) (int, error)
	PendingChanges(ctx context.Context) ([]models.PendingChange, error)
	LastSyncResult() (models.SyncResult, bool)
	ForceSync(ctx context.Context) (models.SyncResult, error)
	Write(ctx context.Context, entityType string, op models.Operation, payload models.Payload) (engine.WriteResult, error)
	Read(ctx context.Context, entityType string) (engine.ReadResult, error)
}

type App struct {
	config *config.Config
	logger logging.Logger
	engine Engine
	reader *bufio.Reader
	out    io.Writer

	bus     *eventbus.Bus
	monitor *netmon.Monitor
	tree    *supervisor.Tree
	closers []func() error
}

// NewApp assembles the client from c. Nothing is started until Run.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(logging.Config{Level: c.LogLevel, Format: c.LogFormat, Output: os.Stderr})
	a := &App{
		config: c,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	if c.StoragePassphrase == promptPassphrase {
		pw, err := GetPassword(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read passphrase: %w", err)
		}
		c.StoragePassphrase = string(pw)
	}

	if err := a.wire(ctx); err != nil {
		a.close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	c := a.config

	store, err := persist.Open(ctx, persist.Config{
		Backend:    c.StorageBackend,
		Dir:        c.StorageDir,
		Passphrase: c.StoragePassphrase,
	})
	if err != nil {
		return fmt.Errorf("open local storage: %w", err)
	}
	a.closers = append(a.closers, store.Close)

	client, err := newRemote(ctx, c)
	if err != nil {
		return fmt.Errorf("authoritative store: %w", err)
	}
	rc := remote.NewBreaker(client, remote.BreakerConfig{Name: c.RemoteKind}, a.logger)
	a.closers = append(a.closers, rc.Close)

	var prober netmon.Prober = netmon.NewPingProber(rc, c.ProbeTimeout)
	if c.ProbeURL != "" {
		prober = netmon.NewHTTPProber(c.ProbeURL, c.ProbeTimeout)
	}

	a.bus = eventbus.New(a.logger)
	a.monitor = netmon.New(prober, store, a.bus, a.logger, netmon.WithInterval(c.OnlineCheckInterval))
	q := queue.New(store)
	ds := cache.New[models.Dataset](store, cache.WithTTL(c.CacheTTL))
	coord := syncer.New(q, a.monitor, rc, a.bus, a.logger, syncer.WithInterval(c.SyncInterval))

	e := engine.New(engine.Deps{
		Bus:         a.bus,
		Monitor:     a.monitor,
		Cache:       ds,
		Queue:       q,
		Coordinator: coord,
		Remote:      rc,
		EntityTypes: c.EntityTypes,
		Logger:      a.logger,
	})
	a.engine = e
	a.closers = append(a.closers, func() error { e.Close(); return nil })

	a.tree = supervisor.NewTree(a.logger, supervisor.DefaultTreeConfig())
	a.tree.AddEngineService(a.monitor)
	a.tree.AddEngineService(coord)
	if c.APIAddr != "" {
		a.tree.AddAPIService(api.New(c.APIAddr, e, a.logger))
	}

	a.bus.Subscribe(eventbus.KindStatusChange, a.onStatusChange)
	a.bus.Subscribe(eventbus.KindSyncCompleted, a.onSyncCompleted)
	return nil
}

func newRemote(ctx context.Context, c *config.Config) (remote.Client, error) {
	switch c.RemoteKind {
	case config.RemoteGRPC, "":
		return remote.NewGRPCStore(c.ServerEndpointAddr, c.AccessToken)
	case config.RemoteS3:
		return remote.NewS3Store(ctx, remote.S3Config{
			Bucket:       c.S3Bucket,
			Prefix:       c.S3Prefix,
			Region:       c.S3Region,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown remote kind %q", c.RemoteKind)
	}
}

// Run starts the background services and blocks in the REPL until the
// user exits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer a.close(ctx)
	defer cancel()

	if err := a.monitor.Load(ctx); err != nil {
		a.logger.Warn(ctx, "could not restore network status", "error", err)
	}
	done := a.tree.ServeBackground(ctx)

	fmt.Fprintln(a.out, "MediaKeeper client (type 'help' for commands)")
	runREPL(ctx, a, a.prompt, a.reader)

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Debug(ctx, "supervisor stopped", "error", err)
		}
	case <-time.After(supervisor.DefaultTreeConfig().ShutdownTimeout):
		a.logger.Warn(ctx, "services did not stop in time")
	}
	return nil
}

func (a *App) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn(ctx, "close failed", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) prompt() string {
	if a.engine.NetworkSnapshot().Online {
		return "(online)"
	}
	return "(offline)"
}

func (a *App) onStatusChange(e eventbus.Event) error {
	if ev, ok := e.(eventbus.StatusChanged); ok {
		fmt.Fprintf(a.out, "Switched to %s mode\n", modeName(ev.Online))
	}
	return nil
}

func (a *App) onSyncCompleted(e eventbus.Event) error {
	if ev, ok := e.(eventbus.SyncCompleted); ok && ev.Result.SuccessCount+ev.Result.FailedCount > 0 {
		fmt.Fprintf(a.out, "Synced %d change(s), %d failed\n", ev.Result.SuccessCount, ev.Result.FailedCount)
	}
	return nil
}

func modeName(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}
