// Package remote talks to the authoritative store.
//
// Store is the narrow contract the sync engine needs: upsert, delete and
// list-all, each addressed by entity type. Implementations classify their
// failures with the sentinels from package common:
//
//   - common.ErrUnavailable – the store could not be reached at all
//     (connection refused, timeout, breaker open). Callers treat this as
//     transient and stop talking to the store for now.
//   - common.ErrUnauthorized – credentials were refused.
//   - common.ErrRejected – the store answered and refused this one request.
//
// GRPCStore speaks to the mediakeeper server, S3Store keeps records as JSON
// objects in an S3-compatible bucket, and Breaker wraps either one in a
// circuit breaker.
package remote
