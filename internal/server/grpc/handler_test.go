package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/logging"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/dmitrijs2005/mediakeeper/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ---- fakes ----

type fakeEntities struct {
	lastUser string
	lastType string
	lastID   string
	lastP    models.Payload

	upsertOut models.Payload
	deleteOut bool
	listOut   []models.Payload
	err       error
}

func (f *fakeEntities) Upsert(ctx context.Context, userID, entityType string, p models.Payload) (models.Payload, error) {
	f.lastUser, f.lastType, f.lastP = userID, entityType, p
	return f.upsertOut, f.err
}

func (f *fakeEntities) Delete(ctx context.Context, userID, entityType, id string) (bool, error) {
	f.lastUser, f.lastType, f.lastID = userID, entityType, id
	return f.deleteOut, f.err
}

func (f *fakeEntities) ListAll(ctx context.Context, userID, entityType string) ([]models.Payload, error) {
	f.lastUser, f.lastType = userID, entityType
	return f.listOut, f.err
}

// ---- helpers ----

func newServer(es EntityService) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", logging.Discard(), es, "k")
}

func asUser(user string) context.Context {
	return context.WithValue(context.Background(), userIDKey, user)
}

// ---- tests ----

func TestPing_OK(t *testing.T) {
	s := newServer(&fakeEntities{})
	resp, err := s.Ping(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, common.PingStatusOK, resp.GetValue())
}

func TestUpsert_OK(t *testing.T) {
	f := &fakeEntities{upsertOut: models.Payload{"id": "a1", "title": "Akira"}}
	s := newServer(f)

	req, err := rpc.NewUpsertRequest("anime", models.Payload{"title": "Akira"})
	require.NoError(t, err)

	resp, err := s.Upsert(asUser("alice"), req)
	require.NoError(t, err)

	assert.Equal(t, "alice", f.lastUser)
	assert.Equal(t, "anime", f.lastType)
	assert.Equal(t, models.Payload{"title": "Akira"}, f.lastP)
	assert.Equal(t, models.Payload{"id": "a1", "title": "Akira"}, rpc.StructToPayload(resp))
}

func TestUpsert_Malformed(t *testing.T) {
	s := newServer(&fakeEntities{})
	_, err := s.Upsert(asUser("alice"), &structpb.Struct{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHandlers_RequireUser(t *testing.T) {
	s := newServer(&fakeEntities{})
	ctx := context.Background()

	_, err := s.Upsert(ctx, &structpb.Struct{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = s.Delete(ctx, rpc.NewDeleteRequest("anime", "a1"))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = s.ListAll(ctx, wrapperspb.String("anime"))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestDelete_OK(t *testing.T) {
	f := &fakeEntities{deleteOut: true}
	s := newServer(f)

	resp, err := s.Delete(asUser("bob"), rpc.NewDeleteRequest("manga", "m1"))
	require.NoError(t, err)
	assert.True(t, resp.GetValue())
	assert.Equal(t, "bob", f.lastUser)
	assert.Equal(t, "m1", f.lastID)

	_, err = s.Delete(asUser("bob"), rpc.NewDeleteRequest("manga", ""))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestListAll_OK(t *testing.T) {
	f := &fakeEntities{listOut: []models.Payload{{"id": "a1"}, {"id": "a2"}}}
	s := newServer(f)

	resp, err := s.ListAll(asUser("alice"), wrapperspb.String("anime"))
	require.NoError(t, err)
	assert.Len(t, rpc.ListToPayloads(resp), 2)
	assert.Equal(t, "anime", f.lastType)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"invalid type", common.ErrInvalidEntityType, codes.InvalidArgument},
		{"missing id", common.ErrMissingID, codes.InvalidArgument},
		{"cancelled", context.Canceled, codes.Canceled},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"db down", errors.New("db down"), codes.Internal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newServer(&fakeEntities{err: tc.err})
			_, err := s.ListAll(asUser("alice"), wrapperspb.String("anime"))
			assert.Equal(t, tc.want, status.Code(err))
		})
	}
}
