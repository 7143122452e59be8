// Package api exposes the engine to a local UI over HTTP.
//
// Routes:
//
//	GET  /status           network determination
//	GET  /pending          queued changes
//	GET  /sync/last        result of the last pass
//	POST /sync             run a pass now and wait for it
//	POST /write            write through the engine
//	GET  /entities/{type}  read records, falling back to the cache
//	GET  /events           websocket stream of bus events
//	GET  /metrics          prometheus collectors
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/client/engine"
	"github.com/dmitrijs2005/mediakeeper/internal/eventbus"
	"github.com/dmitrijs2005/mediakeeper/internal/logging"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Engine is what the API needs from engine.Engine.
type Engine interface {
	NetworkSnapshot() models.NetworkStatus
	PendingChanges(ctx context.Context) ([]models.PendingChange, error)
	LastSyncResult() (models.SyncResult, bool)
	ForceSync(ctx context.Context) (models.SyncResult, error)
	Write(ctx context.Context, entityType string, op models.Operation, payload models.Payload) (engine.WriteResult, error)
	Read(ctx context.Context, entityType string) (engine.ReadResult, error)
	Subscribe(kind eventbus.Kind, h eventbus.Handler) func()
}

type Server struct {
	engine   Engine
	logger   logging.Logger
	addr     string
	upgrader websocket.Upgrader
}

func New(addr string, e Engine, l logging.Logger) *Server {
	return &Server{
		engine: e,
		logger: l.With("module", "api"),
		addr:   addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameHost,
		},
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/status", s.handleStatus)
	r.Get("/pending", s.handlePending)
	r.Get("/sync/last", s.handleLastSync)
	r.Post("/sync", s.handleSync)
	r.Post("/write", s.handleWrite)
	r.Get("/entities/{type}", s.handleRead)
	r.Get("/events", s.handleEvents)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Serve listens until ctx is done, then shuts the server down. It
// implements suture.Service.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.logger.Info(ctx, "control API listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "control API shutdown", "error", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

func (s *Server) String() string { return "control-api" }

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"requestID", chimiddleware.GetReqID(r.Context()))
	})
}

// sameHost accepts websocket upgrades from pages served by this host and
// from clients that send no Origin at all.
func sameHost(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
