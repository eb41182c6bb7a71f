package reindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/reindex/internal/ir"
)

// Error is returned for every reindex failure.
//
// All failures are deterministic data-shape mismatches: nothing is retried
// and no partial result accompanies an Error.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the key path being resolved, when relevant.
	Path Path

	// Index is the position of the offending record in the input
	// sequence, or -1 when no single record is responsible.
	Index int

	// Key is the colliding key (DUPLICATE_KEY only).
	Key ir.Key

	// FirstIndex is the position of the record that first claimed Key
	// (DUPLICATE_KEY only).
	FirstIndex int

	// Field names the offending argument (INVALID_PATH_TYPE, INVALID_FLAG_TYPE).
	Field string
}

// ErrorCode categorizes reindex errors.
type ErrorCode string

const (
	// CodeInvalidInputKind: input is neither a mapping nor a sequence of mappings.
	CodeInvalidInputKind ErrorCode = "INVALID_INPUT_KIND"

	// CodeInvalidPathType: the path is not a string or a sequence of strings.
	CodeInvalidPathType ErrorCode = "INVALID_PATH_TYPE"

	// CodeInvalidFlagType: a strict/group/workers option has the wrong type.
	CodeInvalidFlagType ErrorCode = "INVALID_FLAG_TYPE"

	// CodePathType: strict resolution walked into a non-mapping value.
	CodePathType ErrorCode = "PATH_TYPE"

	// CodePathKey: strict resolution found a key missing from a record.
	CodePathKey ErrorCode = "PATH_KEY"

	// CodeNonScalarKey: strict resolution ended on a value that cannot be a key.
	CodeNonScalarKey ErrorCode = "NON_SCALAR_KEY"

	// CodeDuplicateKey: unique aggregation saw the same key twice.
	CodeDuplicateKey ErrorCode = "DUPLICATE_KEY"
)

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrInvalidInputKind = &Error{Code: CodeInvalidInputKind}
	ErrInvalidPathType  = &Error{Code: CodeInvalidPathType}
	ErrInvalidFlagType  = &Error{Code: CodeInvalidFlagType}
	ErrPathType         = &Error{Code: CodePathType}
	ErrPathKey          = &Error{Code: CodePathKey}
	ErrNonScalarKey     = &Error{Code: CodeNonScalarKey}
	ErrDuplicateKey     = &Error{Code: CodeDuplicateKey}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches sentinel errors by code. A PATH_TYPE error also matches
// ErrPathKey: walking through a non-mapping means the requested key does
// not exist in that record.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Code == e.Code {
		return true
	}
	return e.Code == CodePathType && t.Code == CodePathKey
}

// CodeOf returns the ErrorCode of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func newInputKindError(index int, got any) *Error {
	msg := fmt.Sprintf("input must be a mapping or a sequence of mappings, got %s", describe(got))
	if index >= 0 {
		msg = fmt.Sprintf("input sequence element %d must be a mapping, got %s", index, describe(got))
	}
	return &Error{Code: CodeInvalidInputKind, Message: msg, Index: index}
}

func newPathTypeError(field string, got any) *Error {
	return &Error{
		Code:    CodeInvalidPathType,
		Message: fmt.Sprintf("%q must be a string or a sequence of strings, not %s", field, describe(got)),
		Index:   -1,
		Field:   field,
	}
}

func newFlagTypeError(field, want string, got any) *Error {
	return &Error{
		Code:    CodeInvalidFlagType,
		Message: fmt.Sprintf("argument %q invalid type %s, expected %s", field, describe(got), want),
		Index:   -1,
		Field:   field,
	}
}

func newWalkTypeError(path Path, depth, index int, got any) *Error {
	return &Error{
		Code: CodePathType,
		Message: fmt.Sprintf("access path %s leads to a non-mapping value (%s) at %s in record %d; try strict=false",
			path, describe(got), path[:depth], index),
		Path:  path,
		Index: index,
	}
}

func newMissingKeyError(path Path, depth, index int) *Error {
	return &Error{
		Code: CodePathKey,
		Message: fmt.Sprintf("key path %s does not exist in all records: record %d has no %q; try strict=false",
			path, index, path[depth]),
		Path:  path,
		Index: index,
	}
}

func newNonScalarError(path Path, index int, got any) *Error {
	return &Error{
		Code: CodeNonScalarKey,
		Message: fmt.Sprintf("key path %s resolves to %s in record %d, which cannot be used as a key; try strict=false",
			path, describe(got), index),
		Path:  path,
		Index: index,
	}
}

func newDuplicateKeyError(path Path, key ir.Key, first, index int) *Error {
	return &Error{
		Code: CodeDuplicateKey,
		Message: fmt.Sprintf("multiple records contain value %s at %s (records %d and %d); try group=true",
			quoteKey(key), path, first, index),
		Path:       path,
		Index:      index,
		Key:        key,
		FirstIndex: first,
	}
}

func quoteKey(k ir.Key) string {
	if k == nil {
		return "null"
	}
	if b, err := ir.MarshalKey(k); err == nil {
		return string(b)
	}
	return k.String()
}

// describe names the dynamic kind of a decoded value for error messages.
func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "mapping"
	case []any:
		return "sequence"
	case string:
		return "string"
	case bool:
		return "bool"
	}
	if _, ok := ir.KeyOf(v); ok {
		return "number"
	}
	switch v.(type) {
	case json.Number, uint64:
		return "an out-of-range number"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*")
}
