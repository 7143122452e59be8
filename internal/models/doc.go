// Package models holds the domain types shared by the sync engine, the
// authoritative store client and the server.
//
// Records are opaque JSON-like values (Payload). The only field the engine
// itself interprets is "id", the primary key used to address a record
// inside its entity type.
package models
