package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSource = "reindex/source/v1"
	DomainRecord = "reindex/record/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SourceHash computes a content hash for a whole reindex input (a record or
// a sequence of records). Two inputs with equal canonical JSON hash equally,
// regardless of map iteration order or source file format.
func SourceHash(input any) (string, error) {
	canonical, err := MarshalCanonical(input)
	if err != nil {
		return "", fmt.Errorf("SourceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSource, canonical), nil
}

// RecordHash computes a content hash for a single record.
func RecordHash(rec Record) (string, error) {
	canonical, err := MarshalCanonical(rec)
	if err != nil {
		return "", fmt.Errorf("RecordHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// MustSourceHash is like SourceHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSourceHash(input any) string {
	h, err := SourceHash(input)
	if err != nil {
		panic(err)
	}
	return h
}
