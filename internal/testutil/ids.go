package testutil

import (
	"fmt"
	"sync"
)

// IDSequence generates prefixed, monotonically numbered IDs for tests:
// "idx-1", "idx-2", and so on. It satisfies store.IDGenerator.
//
// Unlike store.FixedGenerator, IDSequence never runs out and can be reset,
// so the same scenario can run repeatedly with identical IDs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type IDSequence struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewIDSequence creates a sequence starting at 0. The first call to
// Generate returns prefix + "-1".
func NewIDSequence(prefix string) *IDSequence {
	return &IDSequence{prefix: prefix}
}

// Generate increments the sequence and returns the next ID.
func (s *IDSequence) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("%s-%d", s.prefix, s.seq)
}

// Current returns the last issued sequence number without incrementing.
func (s *IDSequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset rewinds the sequence; the next Generate returns prefix + "-1".
func (s *IDSequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
