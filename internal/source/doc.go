// Package source reads reindex input from files and streams.
//
// The decoder is chosen from the file extension:
//
//	.json           one JSON document
//	.ndjson .jsonl  one JSON document per line, collected into a sequence
//	.yaml .yml      one or more YAML documents (several become a sequence)
//	.cue            a CUE file, or a directory holding a CUE package
//
// Every decoder funnels its output through ir.NormalizeValue so the
// reindexer sees the same value kinds whatever the source format: string
// keyed mappings, []any sequences, int64 and float64 numbers.
package source
