// Package random provides seed generation and the deterministic entropy
// source used when minting kitties.
//
// Seeds come from crypto/rand. Once a seed is fixed, every draw is a pure
// function of the seed and the subject bytes, so replaying the same calls
// produces the same genomes.
package random

import (
	crand "crypto/rand"
	"fmt"
)

// SeedSize is the length of a ledger entropy seed in bytes.
const SeedSize = 32

// NewSeedBytes generates a SeedSize byte seed using crypto/rand.
func NewSeedBytes() ([]byte, error) {
	seed := make([]byte, SeedSize)
	if _, err := crand.Read(seed); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return seed, nil
}
