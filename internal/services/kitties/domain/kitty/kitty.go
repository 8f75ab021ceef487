package kitty

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/kitties/internal/platform/errors"
)

// DNASize is the genome length in bytes.
const DNASize = 16

// ID identifies a kitty. Zero is never assigned.
type ID uint32

// MaxID is the counter value at which allocation fails.
const MaxID ID = math.MaxUint32

// AccountID identifies an authenticated account.
type AccountID uint64

// Balance is an amount of the currency collaborator's unit.
type Balance uint64

// DNA is the immutable genome of a kitty.
type DNA [DNASize]byte

// Kitty pairs a kitty identifier with its genome.
type Kitty struct {
	ID  ID
	DNA DNA
}

// ErrCounterOverflow indicates the identifier space is exhausted.
var ErrCounterOverflow = apperrors.New(apperrors.CodeKittyCounterOverflow, "kitty counter overflow")

// NextID returns the identifier to assign to the next kitty given the stored
// counter. A zero counter means no kitty exists yet and yields 1. The caller
// advances the counter to id+1 once the kitty is stored.
func NextID(count ID) (ID, error) {
	if count == 0 {
		return 1, nil
	}
	if count == MaxID {
		return 0, ErrCounterOverflow
	}
	return count, nil
}

// String renders the id in decimal.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses a decimal kitty id.
func ParseID(value string) (ID, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse kitty id %q: %w", value, err)
	}
	return ID(parsed), nil
}

// String renders the account id in decimal.
func (a AccountID) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// ParseAccountID parses a decimal account id.
func ParseAccountID(value string) (AccountID, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse account id %q: %w", value, err)
	}
	return AccountID(parsed), nil
}

// String renders the balance in decimal.
func (b Balance) String() string {
	return strconv.FormatUint(uint64(b), 10)
}

// ParseBalance parses a decimal balance.
func ParseBalance(value string) (Balance, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", value, err)
	}
	return Balance(parsed), nil
}

// String renders the genome as lowercase hex.
func (d DNA) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDNA decodes a 32 character hex genome.
func ParseDNA(value string) (DNA, error) {
	var dna DNA
	decoded, err := hex.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return dna, fmt.Errorf("decode dna: %w", err)
	}
	if len(decoded) != DNASize {
		return dna, fmt.Errorf("dna must be %d bytes, got %d", DNASize, len(decoded))
	}
	copy(dna[:], decoded)
	return dna, nil
}

// MarshalText encodes the genome as hex.
func (d DNA) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a hex genome.
func (d *DNA) UnmarshalText(text []byte) error {
	parsed, err := ParseDNA(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
