// Package ir provides the value types shared by every other package:
// records, scalar keys, canonical JSON and content hashes.
//
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Records are plain map[string]any values and are never copied or mutated
//   - Keys are a sealed union of comparable scalar types (string, int, float, bool)
//   - Integral floats normalize to KeyInt; NaN is never a key
//   - Canonical JSON sorts object keys by UTF-16 code units (RFC 8785)
package ir
