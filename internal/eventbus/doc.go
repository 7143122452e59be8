// Package eventbus is the single in-process publish/subscribe channel the
// sync engine uses to tell the rest of the application about connectivity
// changes and sync progress.
//
// # Semantics
//
// Events are a closed set of Go types, each reporting its Kind. Handlers
// subscribe to one Kind and are called synchronously, in registration
// order, on the goroutine that calls Emit. Emit dispatches to a snapshot of
// the subscriber list, so a handler may subscribe or unsubscribe (itself or
// others) without affecting the dispatch in progress.
//
// A handler that returns an error or panics is logged and skipped; later
// handlers still run and the emitter never sees the failure.
package eventbus
