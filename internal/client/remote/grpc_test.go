package remote

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/dmitrijs2005/mediakeeper/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

/*************
 * Fake server
 *************/

type fakeServer struct {
	mu sync.Mutex

	lastToken      string
	lastUpsertType string
	lastUpsert     models.Payload
	lastDeleteType string
	lastDeleteID   string
	lastListType   string

	pingStatus string
	upsertErr  error
	deleteResp bool
	deleteErr  error
	listResp   []models.Payload
	listErr    error
}

func (f *fakeServer) token(ctx context.Context) {
	md, _ := metadata.FromIncomingContext(ctx)
	if v := md.Get(common.AccessTokenHeaderName); len(v) > 0 {
		f.lastToken = v[0]
	}
}

func (f *fakeServer) Ping(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(f.pingStatus), nil
}

func (f *fakeServer) Upsert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token(ctx)
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	typ, p, err := rpc.ParseUpsertRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f.lastUpsertType, f.lastUpsert = typ, p
	p["version"] = 1
	return rpc.PayloadToStruct(p)
}

func (f *fakeServer) Delete(ctx context.Context, in *structpb.Struct) (*wrapperspb.BoolValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token(ctx)
	f.lastDeleteType, f.lastDeleteID, _ = rpc.ParseDeleteRequest(in)
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return wrapperspb.Bool(f.deleteResp), nil
}

func (f *fakeServer) ListAll(ctx context.Context, in *wrapperspb.StringValue) (*structpb.ListValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token(ctx)
	f.lastListType = in.GetValue()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return rpc.PayloadsToList(f.listResp)
}

func startFake(t *testing.T, f *fakeServer, token string) *GRPCStore {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	rpc.RegisterEntityStoreServer(srv, f)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	s, err := NewGRPCStore("passthrough:///bufnet", token,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGRPCStore_UpsertSendsTokenAndPayload(t *testing.T) {
	f := &fakeServer{}
	s := startFake(t, f, "jwt-token")

	out, err := s.Upsert(context.Background(), "movie", models.Payload{"id": "m1", "title": "Arrival"})
	require.NoError(t, err)

	assert.Equal(t, "jwt-token", f.lastToken)
	assert.Equal(t, "movie", f.lastUpsertType)
	assert.Equal(t, "Arrival", f.lastUpsert["title"])
	assert.Equal(t, float64(1), out["version"])
}

func TestGRPCStore_DeleteAndList(t *testing.T) {
	f := &fakeServer{deleteResp: true, listResp: []models.Payload{{"id": "b1"}, {"id": "b2"}}}
	s := startFake(t, f, "t")
	ctx := context.Background()

	existed, err := s.Delete(ctx, "book", "b9")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, "book", f.lastDeleteType)
	assert.Equal(t, "b9", f.lastDeleteID)

	list, err := s.ListAll(ctx, "book")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "book", f.lastListType)
}

func TestGRPCStore_Ping(t *testing.T) {
	f := &fakeServer{pingStatus: common.PingStatusOK}
	s := startFake(t, f, "")
	require.NoError(t, s.Ping(context.Background()))

	f.pingStatus = "DRAINING"
	require.ErrorIs(t, s.Ping(context.Background()), common.ErrUnavailable)
}

func TestGRPCStore_ErrorsAreMapped(t *testing.T) {
	f := &fakeServer{upsertErr: status.Error(codes.InvalidArgument, "title required")}
	s := startFake(t, f, "t")

	_, err := s.Upsert(context.Background(), "movie", models.Payload{"id": "x"})
	require.ErrorIs(t, err, common.ErrRejected)
	assert.Contains(t, err.Error(), "title required")
}

func TestGRPCStore_UnreachableIsUnavailable(t *testing.T) {
	lis := bufconn.Listen(1024)
	require.NoError(t, lis.Close())

	s, err := NewGRPCStore("passthrough:///bufnet", "",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ListAll(context.Background(), "movie")
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"unauthenticated", status.Error(codes.Unauthenticated, "x"), common.ErrUnauthorized},
		{"permission denied", status.Error(codes.PermissionDenied, "x"), common.ErrUnauthorized},
		{"unavailable", status.Error(codes.Unavailable, "x"), common.ErrUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "x"), common.ErrUnavailable},
		{"invalid argument", status.Error(codes.InvalidArgument, "x"), common.ErrRejected},
		{"not found", status.Error(codes.NotFound, "x"), common.ErrRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.in), tt.want)
		})
	}

	assert.Nil(t, mapError(nil))

	other := mapError(status.Error(codes.Internal, "boom"))
	assert.False(t, errors.Is(other, common.ErrUnavailable))
	assert.False(t, errors.Is(other, common.ErrRejected))
	assert.Contains(t, other.Error(), "rpc error")
}

func TestGRPCStore_CallerCancellationIsNotUnavailable(t *testing.T) {
	s := startFake(t, &fakeServer{}, "t")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Upsert(ctx, "movie", models.Payload{"id": "m1"})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, common.ErrUnavailable))

	_, err = s.ListAll(ctx, "movie")
	require.ErrorIs(t, err, context.Canceled)

	// A server side Canceled with a live caller context still means the
	// server could not be reached.
	assert.ErrorIs(t, callError(context.Background(), status.Error(codes.Canceled, "x")), common.ErrUnavailable)
}
