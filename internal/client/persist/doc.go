// Package persist provides the durable key/value file store that the
// pending change queue, the cache and the network monitor write through.
//
// # Contract
//
// A Store maps a path to an opaque byte blob. WriteFile replaces the whole
// value and is durable once it returns nil. ReadFile on an unknown path
// returns ErrNotExist; every other error is an I/O or backend failure.
//
// # Backends
//
//   - SQLiteStore  – single table in a local SQLite database (modernc.org/sqlite),
//     schema managed by embedded goose migrations.
//   - BadgerStore  – embedded Badger LSM store with synchronous writes.
//   - FileStore    – one file per path in a directory, atomic rename on write.
//   - EncryptedStore – AES-GCM wrapper over any of the above; the key is
//     derived from a passphrase with argon2id.
//
// Open builds the backend named in Config.
package persist
