// Package grpc serves the mediakeeper.v1.EntityStore service.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/mediakeeper/internal/logging"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/dmitrijs2005/mediakeeper/internal/rpc"
	"google.golang.org/grpc"
)

// EntityService is the business layer behind the handlers.
type EntityService interface {
	Upsert(ctx context.Context, userID, entityType string, p models.Payload) (models.Payload, error)
	Delete(ctx context.Context, userID, entityType, id string) (bool, error)
	ListAll(ctx context.Context, userID, entityType string) ([]models.Payload, error)
}

type GRPCServer struct {
	address   string
	entities  EntityService
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, es EntityService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		entities:  es,
		jwtSecret: []byte(secretKey),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor))
	rpc.RegisterEntityStoreServer(srv, s)

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			srv.GracefulStop()
		case <-stopped:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return srv.Serve(listen)
}
