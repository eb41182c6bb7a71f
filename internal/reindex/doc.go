// Package reindex turns a collection of records into a lookup keyed by the
// value found at a path inside each record.
//
// The work is split into three pure steps:
//
//	Normalize  - a record or a sequence of records becomes []ir.Record
//	Resolve    - each record is walked along the Path (strict or loose)
//	aggregate  - keys and records are collected into Unique or Grouped
//
// Loose resolution treats any shape mismatch or missing key as "no value"
// and silently drops the record. Strict resolution fails the whole call on
// the first record that does not resolve to a scalar key.
//
// Unique aggregation (Index) fails with DUPLICATE_KEY when two records share
// a key. Grouped aggregation (Group) collects such records into a slice in
// input order. Reindex selects between the two from Options and returns a
// Result tagged with its Mode.
//
// Records are never copied or mutated; results reference the caller's maps.
// Every function is safe for concurrent use as long as the input records are
// not mutated concurrently.
package reindex
