package remote

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/dmitrijs2005/mediakeeper/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GRPCStore is the gRPC client of the mediakeeper server.
type GRPCStore struct {
	endpointURL string
	accessToken string
	conn        *grpc.ClientConn
	client      rpc.EntityStoreClient
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCStore) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCStore dials endpointURL lazily; no I/O happens until the first
// call.
func NewGRPCStore(endpointURL, accessToken string, opts ...grpc.DialOption) (*GRPCStore, error) {
	s := &GRPCStore{endpointURL: endpointURL, accessToken: accessToken}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	s.client = rpc.NewEntityStoreClient(conn)
	return s, nil
}

func (s *GRPCStore) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return callError(ctx, err)
	}
	if resp.GetValue() != common.PingStatusOK {
		return common.ErrUnavailable
	}
	return nil
}

func (s *GRPCStore) Upsert(ctx context.Context, entityType string, p models.Payload) (models.Payload, error) {
	req, err := rpc.NewUpsertRequest(entityType, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRejected, err)
	}

	resp, err := s.client.Upsert(ctx, req)
	if err != nil {
		return nil, callError(ctx, err)
	}
	return rpc.StructToPayload(resp), nil
}

func (s *GRPCStore) Delete(ctx context.Context, entityType, id string) (bool, error) {
	resp, err := s.client.Delete(ctx, rpc.NewDeleteRequest(entityType, id))
	if err != nil {
		return false, callError(ctx, err)
	}
	return resp.GetValue(), nil
}

func (s *GRPCStore) ListAll(ctx context.Context, entityType string) ([]models.Payload, error) {
	resp, err := s.client.ListAll(ctx, wrapperspb.String(entityType))
	if err != nil {
		return nil, callError(ctx, err)
	}
	return rpc.ListToPayloads(resp), nil
}

func (s *GRPCStore) Close() error {
	return s.conn.Close()
}

// callError reports the caller's own cancellation or deadline as such, so
// it is never mistaken for an unreachable server.
func callError(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return mapError(err)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return common.ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, st.Message())
	case codes.InvalidArgument, codes.FailedPrecondition, codes.NotFound, codes.AlreadyExists, codes.OutOfRange:
		return fmt.Errorf("%w: %s", common.ErrRejected, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
