// Package storage is the client's persistence capability: a small key/value
// store that is fully loaded into memory when opened, so reads are
// synchronous, while writes go through to a durable backend (SQLite or Redis)
// before the in-memory copy changes.
//
// On top of raw string and JSON values it keeps the persisted session
// (token + Session snapshot) and a per-installation id.
package storage
