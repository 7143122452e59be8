// Package server wires and runs the authoritative store: configuration,
// the entities repository (Postgres or in-memory), and the gRPC endpoint.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/mediakeeper/internal/logging"
	"github.com/dmitrijs2005/mediakeeper/internal/server/auth"
	"github.com/dmitrijs2005/mediakeeper/internal/server/config"
	"github.com/dmitrijs2005/mediakeeper/internal/server/entities"

	gs "github.com/dmitrijs2005/mediakeeper/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	entities *entities.Service
	closeDB  func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(logging.Config{Level: c.LogLevel, Format: c.LogFormat, Output: os.Stdout})

	app := &App{config: c, logger: logger, closeDB: func() error { return nil }}

	var repo entities.Repository
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, records are kept in memory")
		repo = entities.NewMemoryRepository()
	} else {
		db, err := entities.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.closeDB = db.Close
		repo = entities.NewPostgresRepository(db)
	}

	app.entities = entities.NewService(repo)
	return app, nil
}

// IssueToken writes an access token for user, signed with the configured
// secret, to w.
func IssueToken(w io.Writer, c *config.Config, user string) error {
	tok, err := auth.GenerateToken(user, []byte(c.SecretKey), c.AccessTokenValidityDuration)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, tok)
	return err
}

// Run serves until ctx is done or SIGINT/SIGTERM/SIGQUIT arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	defer func() {
		if err := app.closeDB(); err != nil {
			app.logger.Warn(ctx, "closing database", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting app...")

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.entities, app.config.SecretKey)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		return err
	}
	return nil
}
