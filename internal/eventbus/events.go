package eventbus

import "github.com/dmitrijs2005/mediakeeper/internal/models"

// Kind names an event family.
type Kind string

const (
	KindStatusChange          Kind = "statusChange"
	KindConnectionLost        Kind = "connectionLost"
	KindConnectionRestored    Kind = "connectionRestored"
	KindSyncStarted           Kind = "syncStarted"
	KindSyncCompleted         Kind = "syncCompleted"
	KindSyncFailed            Kind = "syncFailed"
	KindPendingChangesUpdated Kind = "pendingChangesUpdated"
)

// Kinds lists every event family in a stable order.
var Kinds = []Kind{
	KindStatusChange,
	KindConnectionLost,
	KindConnectionRestored,
	KindSyncStarted,
	KindSyncCompleted,
	KindSyncFailed,
	KindPendingChangesUpdated,
}

// Event is implemented by every event type below.
type Event interface {
	Kind() Kind
}

type StatusChanged struct {
	Online bool `json:"isOnline"`
}

type ConnectionLost struct{}

type ConnectionRestored struct{}

type SyncStarted struct{}

type SyncCompleted struct {
	Result models.SyncResult `json:"result"`
}

// SyncFailed carries the error that aborted a pass.
type SyncFailed struct {
	Err error `json:"-"`
}

type PendingChangesUpdated struct {
	Count int `json:"count"`
}

func (StatusChanged) Kind() Kind         { return KindStatusChange }
func (ConnectionLost) Kind() Kind        { return KindConnectionLost }
func (ConnectionRestored) Kind() Kind    { return KindConnectionRestored }
func (SyncStarted) Kind() Kind           { return KindSyncStarted }
func (SyncCompleted) Kind() Kind         { return KindSyncCompleted }
func (SyncFailed) Kind() Kind            { return KindSyncFailed }
func (PendingChangesUpdated) Kind() Kind { return KindPendingChangesUpdated }
