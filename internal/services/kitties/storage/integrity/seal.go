package integrity

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/event"
)

// JournalName scopes the derived signing key of the kitty event journal.
const JournalName = "kitties"

// ErrTimestampInvalid indicates an event timestamp that is unset or cannot
// be stored as nanoseconds since the Unix epoch.
var ErrTimestampInvalid = errors.New("event timestamp is unset or out of range")

var (
	minTimestamp = time.Unix(0, math.MinInt64)
	maxTimestamp = time.Unix(0, math.MaxInt64)
)

// Sealer assigns sequence and integrity fields to events. A nil Keyring
// leaves events unsigned.
type Sealer struct {
	Keyring *Keyring
}

// Seal returns evt with Seq, Hash, PrevHash, ChainHash and, when a keyring
// is configured, its signature set.
func (s Sealer) Seal(evt event.Event, seq uint64, prevChainHash string) (event.Event, error) {
	if evt.Timestamp.IsZero() || evt.Timestamp.Before(minTimestamp) || evt.Timestamp.After(maxTimestamp) {
		return event.Event{}, fmt.Errorf("%w: %s", ErrTimestampInvalid, evt.Timestamp)
	}
	hash, err := event.EventHash(evt)
	if err != nil {
		return event.Event{}, fmt.Errorf("compute event hash: %w", err)
	}
	evt.Seq = seq
	evt.Hash = hash
	evt.PrevHash = prevChainHash

	chainHash, err := event.ChainHash(evt, prevChainHash)
	if err != nil {
		return event.Event{}, fmt.Errorf("compute chain hash: %w", err)
	}
	evt.ChainHash = chainHash
	evt.Signature = ""
	evt.SignatureKeyID = ""
	if s.Keyring != nil {
		signature, keyID, err := s.Keyring.Sign(JournalName, chainHash)
		if err != nil {
			return event.Event{}, fmt.Errorf("sign chain hash: %w", err)
		}
		evt.Signature = signature
		evt.SignatureKeyID = keyID
	}
	return evt, nil
}

// Chain verifies a journal incrementally, one event at a time in sequence
// order.
type Chain struct {
	sealer  Sealer
	lastSeq uint64
	last    string
}

// NewChain starts verification at the beginning of the journal.
func (s Sealer) NewChain() *Chain {
	return &Chain{sealer: s}
}

// Next checks evt against the previously verified event.
func (c *Chain) Next(evt event.Event) error {
	if evt.Seq != c.lastSeq+1 {
		return fmt.Errorf("sequence gap: expected %d, got %d", c.lastSeq+1, evt.Seq)
	}
	if evt.PrevHash != c.last {
		return fmt.Errorf("prev hash mismatch seq=%d", evt.Seq)
	}
	hash, err := event.EventHash(evt)
	if err != nil {
		return fmt.Errorf("compute event hash seq=%d: %w", evt.Seq, err)
	}
	if hash != evt.Hash {
		return fmt.Errorf("event hash mismatch seq=%d", evt.Seq)
	}
	chainHash, err := event.ChainHash(evt, c.last)
	if err != nil {
		return fmt.Errorf("compute chain hash seq=%d: %w", evt.Seq, err)
	}
	if chainHash != evt.ChainHash {
		return fmt.Errorf("chain hash mismatch seq=%d", evt.Seq)
	}
	if c.sealer.Keyring != nil {
		if err := c.sealer.Keyring.Verify(JournalName, chainHash, evt.Signature, evt.SignatureKeyID); err != nil {
			return fmt.Errorf("signature invalid seq=%d: %w", evt.Seq, err)
		}
	}
	c.lastSeq = evt.Seq
	c.last = evt.ChainHash
	return nil
}
