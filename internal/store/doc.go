// Package store persists reindex results in SQLite so they can be looked up
// later without re-reading the source.
//
// A saved index is a row in `indexes` plus one row per record in `entries`.
// Records are stored as canonical JSON compressed with zstd; keys are stored
// as JSON scalar literals next to their xxhash64 so point lookups use an
// integer index.
//
// # Ordering
//
//   - Indexes are listed ORDER BY seq ASC, id ASC COLLATE BINARY. seq is a
//     logical counter assigned at save time, never a timestamp.
//   - Entries are read ORDER BY key_hash, key, position so a loaded grouped
//     index keeps each group's input order.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: deleting an index cascades to its entries
//
// Loaded results are cached in an LRU keyed by index ID. Cached results are
// shared; callers must not mutate them.
package store
