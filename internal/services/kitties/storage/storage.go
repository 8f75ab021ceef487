// Package storage defines persistence contracts for the kitty ledger.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/currency"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/engine"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/event"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/ledger"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrNotInitialized indicates the store has no genesis yet.
	ErrNotInitialized = errors.New("store is not initialized")
)

const (
	// DefaultPageSize is used when a caller does not ask for a page size.
	DefaultPageSize = 50
	// MaxPageSize bounds a single event page.
	MaxPageSize = 500
)

// Genesis is the initial configuration written to an empty store.
type Genesis struct {
	Seed     []byte
	Balances []currency.Change
}

// LedgerStore persists accepted batches and reloads the ledger.
type LedgerStore interface {
	engine.Store
	// Init writes genesis to an empty store and returns its seed. An
	// initialized store keeps its existing genesis and returns the stored
	// seed.
	Init(ctx context.Context, genesis Genesis) ([]byte, error)
	// Load fills state and bank from persisted rows.
	Load(ctx context.Context, state *ledger.State, bank *currency.Memory) error
}

// EventStore reads the event journal.
type EventStore interface {
	// ListEvents returns up to limit events with sequence greater than afterSeq.
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
	// GetEvent returns the event at seq.
	GetEvent(ctx context.Context, seq uint64) (event.Event, error)
	// VerifyEvents recomputes hashes and signatures across the journal.
	VerifyEvents(ctx context.Context) error
}

// Store is the full storage surface used by the kitties service.
type Store interface {
	LedgerStore
	EventStore
	Close() error
}

// NormalizePageSize clamps a requested page size into [1, MaxPageSize].
func NormalizePageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
