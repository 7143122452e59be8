// Package cli provides the interactive MediaKeeper command-line client.
//
// It wires configuration, local persistence, the authoritative store
// client, the network monitor, the pending change queue, the cache, the
// sync coordinator and the engine, then runs them under a supervisor tree
// while a REPL accepts commands on stdin.
//
// Commands:
//   - status, online, offline
//   - add | update <type> [json], delete <type> <id>
//   - list <type>, pending
//   - sync, last
//   - help, exit | quit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See NewApp and runREPL for details.
package cli
