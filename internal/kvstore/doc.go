// Package kvstore abstracts the durable client-side store the widget uses
// for persisted identity.
//
// In a browser the widget keeps its guest session id in localStorage; here
// the same contract is a small Store interface with three drivers:
//
//   - MemoryStore: process-local, for tests and throwaway embeddings
//   - SQLiteStore: durable on-disk store (modernc.org/sqlite, WAL mode)
//   - RedisStore: shared store for fleets of embeddings (go-redis, TTL keys)
//
// The engine only ever stores one key per widget (the guest session id
// keyed by widget id), reads it once at bootstrap, and deletes it when the
// backend reports it invalid.
package kvstore
