// Package syncer drains the pending change queue against the
// authoritative store.
//
// The Coordinator is the only component that removes entries from the
// queue. A pass replays a snapshot of the queue strictly in order, one
// change at a time, and removes each change only after the store confirmed
// it. A change the store refuses stays queued for the next pass; a store
// that cannot be reached aborts the pass and leaves every untried change in
// place. At most one pass runs at a time.
package syncer
