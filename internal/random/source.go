package random

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Source derives 16 pseudo-random bytes from a fixed seed and a subject.
type Source struct {
	seed []byte
}

// NewSource returns a source keyed by seed. Empty seeds are rejected.
func NewSource(seed []byte) (*Source, error) {
	if len(seed) == 0 {
		return nil, errors.New("entropy seed is required")
	}
	if len(seed) > blake2b.Size {
		return nil, fmt.Errorf("entropy seed must be at most %d bytes, got %d", blake2b.Size, len(seed))
	}
	return &Source{seed: append([]byte(nil), seed...)}, nil
}

// Random hashes subject under the seed with BLAKE2b-128.
func (s *Source) Random(subject []byte) [16]byte {
	var out [16]byte
	h, err := blake2b.New(16, s.seed)
	if err != nil {
		// Key length is checked by NewSource.
		panic(fmt.Sprintf("blake2b: %v", err))
	}
	h.Write(subject)
	copy(out[:], h.Sum(nil))
	return out
}

// Seed returns a copy of the seed.
func (s *Source) Seed() []byte {
	return append([]byte(nil), s.seed...)
}
