// Package netmon decides whether the authoritative store is reachable.
//
// The Monitor holds a two-state determination (online or offline) that is
// persisted across restarts. It is refreshed by a polling loop, by host
// connectivity signals and on demand. Events are emitted only when the
// state actually changes: first StatusChanged, then ConnectionLost or
// ConnectionRestored. The new state is persisted before anything is
// emitted.
//
// On first boot, with nothing persisted, the monitor assumes online.
package netmon
