// Package harness provides conformance testing for reindex behavior.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: nested_unique
//	description: "Unique index on a nested key"
//	input:                        # or input_file: ../inputs/people.ndjson
//	  - {a: A1, b: {c: 1}}
//	  - {a: A2, b: {c: 2}}
//	by: [b, c]                    # a key or a list of keys
//	strict: false                 # optional, must be a bool
//	group: false                  # optional, must be a bool
//	workers: 0                    # optional, non-negative integer
//	expect:
//	  entries:                    # unique result, or:
//	    - key: 1
//	      record: {a: A1, b: {c: 1}}
//	  # groups:  [{key: A1, records: [...]}]   grouped result
//	  # error:   DUPLICATE_KEY                 expected error code
//	  # dropped: 0                             records without a key
//
// Unknown fields are rejected so typos fail loudly. by, strict, group and
// workers are passed through reindex.NewPath and reindex.ParseOptions as
// decoded, so a scenario can assert INVALID_PATH_TYPE or INVALID_FLAG_TYPE.
//
// # Properties
//
// Every successful run is also checked against properties that hold for
// any input, independent of the scenario's expectations:
//
//   - coverage: every record is either indexed or counted as dropped
//   - consistency: every indexed record resolves to the key it is under
//   - order: grouped records keep their input order
//   - parallel: a multi-worker run produces the same result
//   - persistence: saving to and loading from the store is lossless
//
// # Golden Files
//
// Snapshot renders a run as canonical JSON. RunWithGolden compares it
// against testdata/golden/<name>.golden; regenerate with
//
//	go test ./internal/harness -update
package harness
