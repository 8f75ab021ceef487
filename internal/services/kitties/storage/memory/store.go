// Package memory provides an in-process kitty store for tests and local
// runs. Nothing survives a restart.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/currency"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/engine"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/event"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/ledger"
	"github.com/louisbranch/kitties/internal/services/kitties/storage"
	"github.com/louisbranch/kitties/internal/services/kitties/storage/integrity"
)

// Store keeps the ledger rows and event journal in memory.
type Store struct {
	sealer integrity.Sealer

	mu       sync.Mutex
	seed     []byte
	state    *ledger.State
	accounts map[kitty.AccountID]currency.Account
	events   []event.Event
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store. A nil keyring leaves events unsigned.
func New(keyring *integrity.Keyring) *Store {
	return &Store{
		sealer:   integrity.Sealer{Keyring: keyring},
		state:    ledger.NewState(),
		accounts: make(map[kitty.AccountID]currency.Account),
	}
}

// Init records genesis on first use and returns the stored seed.
func (s *Store) Init(ctx context.Context, genesis storage.Genesis) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seed != nil {
		return bytes.Clone(s.seed), nil
	}
	if len(genesis.Seed) == 0 {
		return nil, fmt.Errorf("genesis seed is required")
	}
	s.seed = bytes.Clone(genesis.Seed)
	s.applyBalances(genesis.Balances)
	return bytes.Clone(s.seed), nil
}

// Load copies the stored rows into state and bank.
func (s *Store) Load(ctx context.Context, state *ledger.State, bank *currency.Memory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seed == nil {
		return storage.ErrNotInitialized
	}
	state.NextID = s.state.NextID
	state.Nonce = s.state.Nonce
	for id, dna := range s.state.Kitties {
		state.Kitties[id] = dna
	}
	for id, owner := range s.state.Owners {
		state.Owners[id] = owner
	}
	for id, price := range s.state.Prices {
		state.Prices[id] = price
	}
	for who, acct := range s.accounts {
		bank.Load(who, acct)
	}
	return nil
}

// Commit seals the batch event and applies the batch.
func (s *Store) Commit(ctx context.Context, batch engine.Batch) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seed == nil {
		return event.Event{}, storage.ErrNotInitialized
	}

	prev := ""
	if n := len(s.events); n > 0 {
		prev = s.events[n-1].ChainHash
	}
	sealed, err := s.sealer.Seal(batch.Event, uint64(len(s.events))+1, prev)
	if err != nil {
		return event.Event{}, err
	}
	s.state.Apply(batch.Ledger)
	s.applyBalances(batch.Balances)
	s.events = append(s.events, sealed)
	return sealed, nil
}

// ListEvents returns up to limit events after afterSeq.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	limit = storage.NormalizePageSize(limit)
	if afterSeq >= uint64(len(s.events)) {
		return nil, nil
	}
	end := min(afterSeq+uint64(limit), uint64(len(s.events)))
	return append([]event.Event(nil), s.events[afterSeq:end]...), nil
}

// GetEvent returns the event at seq.
func (s *Store) GetEvent(ctx context.Context, seq uint64) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == 0 || seq > uint64(len(s.events)) {
		return event.Event{}, storage.ErrNotFound
	}
	return s.events[seq-1], nil
}

// VerifyEvents walks the journal chain.
func (s *Store) VerifyEvents(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chain := s.sealer.NewChain()
	for _, evt := range s.events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := chain.Next(evt); err != nil {
			return fmt.Errorf("verify event journal: %w", err)
		}
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) applyBalances(changes []currency.Change) {
	for _, change := range changes {
		if change.Account == nil {
			delete(s.accounts, change.Who)
			continue
		}
		s.accounts[change.Who] = *change.Account
	}
}
