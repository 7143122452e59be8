package models

import (
	"fmt"
	"time"
)

// Operation is the kind of mutation a pending change carries.
type Operation string

const (
	OperationAdd    Operation = "add"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

func (o Operation) Valid() bool {
	switch o {
	case OperationAdd, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// ParseOperation accepts the lowercase operation names.
func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if !op.Valid() {
		return "", fmt.Errorf("unknown operation %q", s)
	}
	return op, nil
}

// PendingChange is a write made while offline, waiting to be replayed
// against the authoritative store. It is never mutated after it is queued.
type PendingChange struct {
	ID         string    `json:"id"`
	Operation  Operation `json:"operation"`
	EntityType string    `json:"entityType"`
	Payload    Payload   `json:"payload"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EntityKey identifies the record a change targets, across entity types.
func (c PendingChange) EntityKey() string {
	return c.EntityType + "#" + PrimaryKey(c.Payload)
}

// NetworkStatus is the persisted connectivity determination.
type NetworkStatus struct {
	Online      bool      `json:"isOnline"`
	LastChecked time.Time `json:"lastChecked"`
}

// Stale reports whether the determination is older than threshold.
func (s NetworkStatus) Stale(now time.Time, threshold time.Duration) bool {
	return s.LastChecked.IsZero() || now.Sub(s.LastChecked) > threshold
}

// SyncResult summarises one replay pass.
type SyncResult struct {
	Timestamp           time.Time `json:"timestamp"`
	SuccessCount        int       `json:"successCount"`
	FailedCount         int       `json:"failedCount"`
	HasPendingChanges   bool      `json:"hasPendingChanges"`
	PendingChangesCount int       `json:"pendingChangesCount"`
	IsOnline            bool      `json:"isOnline"`
	Errors              []string  `json:"errors,omitempty"`
}
