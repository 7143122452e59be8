package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/client/engine"
	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/logging"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	status  models.NetworkStatus
	online  *bool
	pending []models.PendingChange
	pendErr error

	writeType    string
	writeOp      models.Operation
	writePayload models.Payload
	writeRes     engine.WriteResult
	writeErr     error

	readRes engine.ReadResult
	readErr error

	syncRes models.SyncResult
	syncErr error

	last    models.SyncResult
	hasLast bool
}

func (f *fakeEngine) NetworkSnapshot() models.NetworkStatus { return f.status }
func (f *fakeEngine) SetOnline(ctx context.Context, online bool) {
	f.online = &online
	f.status.Online = online
}
func (f *fakeEngine) PendingCount(ctx context.Context) (int, error) {
	return len(f.pending), f.pendErr
}
func (f *fakeEngine) PendingChanges(ctx context.Context) ([]models.PendingChange, error) {
	return f.pending, f.pendErr
}
func (f *fakeEngine) LastSyncResult() (models.SyncResult, bool) { return f.last, f.hasLast }
func (f *fakeEngine) ForceSync(ctx context.Context) (models.SyncResult, error) {
	return f.syncRes, f.syncErr
}
func (f *fakeEngine) Write(ctx context.Context, entityType string, op models.Operation, payload models.Payload) (engine.WriteResult, error) {
	f.writeType, f.writeOp, f.writePayload = entityType, op, payload
	return f.writeRes, f.writeErr
}
func (f *fakeEngine) Read(ctx context.Context, entityType string) (engine.ReadResult, error) {
	return f.readRes, f.readErr
}

func newTestApp(e Engine, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		engine: e,
		logger: logging.Discard(),
		reader: rdr(input),
		out:    &out,
	}, &out
}

func TestStatus(t *testing.T) {
	e := &fakeEngine{
		status:  models.NetworkStatus{Online: true, LastChecked: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		pending: []models.PendingChange{{ID: "c1"}, {ID: "c2"}},
	}
	a, out := newTestApp(e, "")

	require.NoError(t, a.Status(context.Background()))
	assert.Contains(t, out.String(), "Network: online")
	assert.Contains(t, out.String(), "Pending changes: 2")

	e.pendErr = errors.New("disk gone")
	assert.Error(t, a.Status(context.Background()))
}

func TestStatus_NeverChecked(t *testing.T) {
	a, out := newTestApp(&fakeEngine{}, "")
	require.NoError(t, a.Status(context.Background()))
	assert.Contains(t, out.String(), "offline (checked never)")
}

func TestSetMode(t *testing.T) {
	e := &fakeEngine{}
	a, _ := newTestApp(e, "")

	require.NoError(t, a.SetMode(context.Background(), true))
	require.NotNil(t, e.online)
	assert.True(t, *e.online)
	assert.Equal(t, "(online)", a.prompt())

	require.NoError(t, a.SetMode(context.Background(), false))
	assert.False(t, *e.online)
	assert.Equal(t, "(offline)", a.prompt())
}

func TestWrite_InlineJSON(t *testing.T) {
	e := &fakeEngine{writeRes: engine.WriteResult{ID: "a1"}}
	a, out := newTestApp(e, "")

	err := a.Write(context.Background(), models.OperationAdd, "anime", `{"title": "Akira", "year": 1988}`)
	require.NoError(t, err)

	assert.Equal(t, "anime", e.writeType)
	assert.Equal(t, models.OperationAdd, e.writeOp)
	assert.Equal(t, models.Payload{"title": "Akira", "year": float64(1988)}, e.writePayload)
	assert.Contains(t, out.String(), "Saved anime a1")
}

func TestWrite_ReadsBodyFromInput(t *testing.T) {
	e := &fakeEngine{writeRes: engine.WriteResult{ID: "m1", Queued: true}}
	a, out := newTestApp(e, "{\"id\": \"m1\",\n \"chapters\": 120}\n\n")

	require.NoError(t, a.Write(context.Background(), models.OperationUpdate, "manga", ""))

	assert.Equal(t, models.Payload{"id": "m1", "chapters": float64(120)}, e.writePayload)
	assert.Contains(t, out.String(), "Queued update of manga m1")
}

func TestWrite_Delete(t *testing.T) {
	e := &fakeEngine{writeRes: engine.WriteResult{ID: "a9"}}
	a, _ := newTestApp(e, "")

	require.NoError(t, a.Write(context.Background(), models.OperationDelete, "anime", "a9"))
	assert.Equal(t, models.Payload{"id": "a9"}, e.writePayload)
}

func TestWrite_Errors(t *testing.T) {
	a, _ := newTestApp(&fakeEngine{}, "")
	err := a.Write(context.Background(), models.OperationAdd, "anime", "not json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON object")

	a, _ = newTestApp(&fakeEngine{writeErr: common.ErrRejected}, "")
	err = a.Write(context.Background(), models.OperationAdd, "anime", `{"title": "x"}`)
	assert.ErrorIs(t, err, common.ErrRejected)
}

func TestList(t *testing.T) {
	e := &fakeEngine{readRes: engine.ReadResult{
		Records:   []models.Payload{{"id": "a1", "title": "Akira"}},
		FromCache: true,
	}}
	a, out := newTestApp(e, "")

	require.NoError(t, a.List(context.Background(), "anime"))
	assert.Contains(t, out.String(), "(from local cache)")
	assert.Contains(t, out.String(), `"title":"Akira"`)
}

func TestList_EmptyAndUnavailable(t *testing.T) {
	a, out := newTestApp(&fakeEngine{}, "")
	require.NoError(t, a.List(context.Background(), "manga"))
	assert.Contains(t, out.String(), "No manga records")

	a, out = newTestApp(&fakeEngine{readErr: common.ErrLocalDataNotAvailable}, "")
	require.NoError(t, a.List(context.Background(), "manga"))
	assert.Contains(t, out.String(), "nothing cached yet")

	a, _ = newTestApp(&fakeEngine{readErr: common.ErrUnauthorized}, "")
	assert.ErrorIs(t, a.List(context.Background(), "manga"), common.ErrUnauthorized)
}

func TestPending(t *testing.T) {
	a, out := newTestApp(&fakeEngine{}, "")
	require.NoError(t, a.Pending(context.Background()))
	assert.Contains(t, out.String(), "No pending changes")

	a, out = newTestApp(&fakeEngine{pending: []models.PendingChange{{
		ID:         "c1",
		Operation:  models.OperationDelete,
		EntityType: "anime",
		Payload:    models.Payload{"id": "a1"},
		CreatedAt:  time.Now(),
	}}}, "")
	require.NoError(t, a.Pending(context.Background()))
	assert.Contains(t, out.String(), "anime a1")
	assert.Contains(t, out.String(), "c1")
}

func TestSync(t *testing.T) {
	tests := []struct {
		name    string
		res     models.SyncResult
		err     error
		want    string
		wantErr bool
	}{
		{
			name: "offline",
			res:  models.SyncResult{PendingChangesCount: 3},
			err:  common.ErrOffline,
			want: "Offline, 3 change(s) waiting",
		},
		{
			name: "empty queue",
			res:  models.SyncResult{IsOnline: true, Timestamp: time.Now()},
			want: "Nothing to sync",
		},
		{
			name: "partial failure",
			res: models.SyncResult{
				Timestamp:           time.Now(),
				SuccessCount:        2,
				FailedCount:         1,
				PendingChangesCount: 1,
				Errors:              []string{"change c3 (anime#a3): rejected"},
			},
			want: "2 succeeded, 1 failed, 1 still pending",
		},
		{
			name:    "aborted",
			err:     &common.PassAbortError{Err: common.ErrUnavailable, Remaining: 2},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, out := newTestApp(&fakeEngine{syncRes: tc.res, syncErr: tc.err}, "")
			err := a.Sync(context.Background())
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), tc.want)
		})
	}
}

func TestLast(t *testing.T) {
	a, out := newTestApp(&fakeEngine{}, "")
	require.NoError(t, a.Last(context.Background()))
	assert.Contains(t, out.String(), "No sync has run yet")

	a, out = newTestApp(&fakeEngine{hasLast: true, last: models.SyncResult{Timestamp: time.Now(), SuccessCount: 4}}, "")
	require.NoError(t, a.Last(context.Background()))
	assert.Contains(t, out.String(), "4 succeeded, 0 failed")
}
