// Package storagetest is a conformance suite run against every
// storage.Store implementation.
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/currency"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/engine"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/event"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/ledger"
	"github.com/louisbranch/kitties/internal/services/kitties/storage"
	"github.com/louisbranch/kitties/internal/services/kitties/storage/integrity"
)

// Opener returns a fresh, empty store.
type Opener func(t *testing.T) storage.Store

// Run executes the suite.
func Run(t *testing.T, open Opener) {
	t.Run("init keeps first genesis", func(t *testing.T) { testInit(t, open(t)) })
	t.Run("commit requires init", func(t *testing.T) { testCommitRequiresInit(t, open(t)) })
	t.Run("load round trip", func(t *testing.T) { testLoad(t, open(t)) })
	t.Run("event paging", func(t *testing.T) { testEvents(t, open(t)) })
	t.Run("commit rejects unstorable timestamp", func(t *testing.T) { testCommitRejectsTimestamp(t, open(t)) })
}

var seed = []byte("0123456789abcdef0123456789abcdef")

func genesis() storage.Genesis {
	return storage.Genesis{
		Seed: seed,
		Balances: []currency.Change{
			{Who: 1, Account: &currency.Account{Free: 100}},
			{Who: 2, Account: &currency.Account{Free: 50}},
		},
	}
}

func mustInit(t *testing.T, store storage.Store) {
	t.Helper()
	if _, err := store.Init(context.Background(), genesis()); err != nil {
		t.Fatalf("init: %v", err)
	}
}

func createdEvent(t *testing.T, id kitty.ID, owner kitty.AccountID, dna kitty.DNA, at int) event.Event {
	t.Helper()
	evt, err := event.New(event.TypeCreated, owner, id, event.CreatedPayload{Owner: owner, KittyID: id, DNA: dna})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	evt.Timestamp = time.Date(2026, 3, 1, 0, 0, at, 0, time.UTC)
	evt.RequestID = "req"
	return evt
}

func testInit(t *testing.T, store storage.Store) {
	ctx := context.Background()
	got, err := store.Init(ctx, genesis())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !bytes.Equal(got, seed) {
		t.Fatalf("seed = %x, want %x", got, seed)
	}

	again, err := store.Init(ctx, storage.Genesis{Seed: []byte("another seed")})
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !bytes.Equal(again, seed) {
		t.Fatalf("second init seed = %x, want original %x", again, seed)
	}

	bank := currency.NewMemory(0)
	if err := store.Load(ctx, ledger.NewState(), bank); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := bank.Account(2).Free; got != 50 {
		t.Fatalf("genesis balance = %d, want 50", got)
	}
}

func testCommitRequiresInit(t *testing.T, store storage.Store) {
	ctx := context.Background()
	if err := store.Load(ctx, ledger.NewState(), currency.NewMemory(0)); !errors.Is(err, storage.ErrNotInitialized) {
		t.Fatalf("load err = %v, want %v", err, storage.ErrNotInitialized)
	}
	_, err := store.Commit(ctx, engine.Batch{Event: createdEvent(t, 1, 1, kitty.DNA{}, 0)})
	if !errors.Is(err, storage.ErrNotInitialized) {
		t.Fatalf("commit err = %v, want %v", err, storage.ErrNotInitialized)
	}
}

func testLoad(t *testing.T, store storage.Store) {
	ctx := context.Background()
	mustInit(t, store)

	price := kitty.Balance(7)
	batches := []engine.Batch{
		{
			Event: createdEvent(t, 1, 1, kitty.DNA{1}, 1),
			Ledger: ledger.Changes{
				NextID:  2,
				Nonce:   1,
				Kitties: []kitty.Kitty{{ID: 1, DNA: kitty.DNA{1}}},
				Owners:  []ledger.OwnerChange{{KittyID: 1, Owner: 1}},
			},
			Balances: []currency.Change{{Who: 1, Account: &currency.Account{Free: 99, Reserved: 1}}},
		},
		{
			Event: createdEvent(t, 2, 2, kitty.DNA{2}, 2),
			Ledger: ledger.Changes{
				NextID:  3,
				Nonce:   2,
				Kitties: []kitty.Kitty{{ID: 2, DNA: kitty.DNA{2}}},
				Owners:  []ledger.OwnerChange{{KittyID: 2, Owner: 2}},
				Prices:  []ledger.PriceChange{{KittyID: 2, Price: &price}},
			},
			Balances: []currency.Change{
				{Who: 2, Account: nil},
				{Who: 3, Account: &currency.Account{Free: 50}},
			},
		},
		{
			Event: createdEvent(t, 1, 1, kitty.DNA{1}, 3),
			Ledger: ledger.Changes{
				NextID: 3,
				Nonce:  2,
				Owners: []ledger.OwnerChange{{KittyID: 1, Owner: 3}},
				Prices: []ledger.PriceChange{{KittyID: 9}},
			},
		},
	}
	for i, batch := range batches {
		stored, err := store.Commit(ctx, batch)
		if err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
		if stored.Seq != uint64(i+1) {
			t.Fatalf("seq = %d, want %d", stored.Seq, i+1)
		}
	}

	state := ledger.NewState()
	bank := currency.NewMemory(0)
	if err := store.Load(ctx, state, bank); err != nil {
		t.Fatalf("load: %v", err)
	}
	want := &ledger.State{
		NextID:  3,
		Nonce:   2,
		Kitties: map[kitty.ID]kitty.DNA{1: {1}, 2: {2}},
		Owners:  map[kitty.ID]kitty.AccountID{1: 3, 2: 2},
		Prices:  map[kitty.ID]kitty.Balance{2: 7},
	}
	if diff := cmp.Diff(want, state); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]kitty.AccountID{1, 3}, bank.Accounts()); diff != "" {
		t.Fatalf("accounts mismatch (-want +got):\n%s", diff)
	}
	if got := bank.Account(1); got != (currency.Account{Free: 99, Reserved: 1}) {
		t.Fatalf("account 1 = %v", got)
	}
}

func testEvents(t *testing.T, store storage.Store) {
	ctx := context.Background()
	mustInit(t, store)

	for i := 1; i <= 5; i++ {
		id := kitty.ID(i)
		batch := engine.Batch{
			Event: createdEvent(t, id, 1, kitty.DNA{byte(i)}, i),
			Ledger: ledger.Changes{
				NextID:  id + 1,
				Nonce:   uint64(i),
				Kitties: []kitty.Kitty{{ID: id, DNA: kitty.DNA{byte(i)}}},
				Owners:  []ledger.OwnerChange{{KittyID: id, Owner: 1}},
			},
		}
		if _, err := store.Commit(ctx, batch); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	page, err := store.ListEvents(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(page) != 2 || page[0].Seq != 2 || page[1].Seq != 3 {
		t.Fatalf("page = %+v", page)
	}
	if page[1].PrevHash != page[0].ChainHash {
		t.Fatal("listed events are not chained")
	}
	if page[0].RequestID != "req" || page[0].KittyID != 2 || page[0].ActorID != 1 {
		t.Fatalf("envelope not preserved: %+v", page[0])
	}
	var payload event.CreatedPayload
	if err := page[0].Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.DNA != (kitty.DNA{2}) {
		t.Fatalf("dna = %s", payload.DNA)
	}

	rest, err := store.ListEvents(ctx, 3, 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(rest) != 2 || rest[1].Seq != 5 {
		t.Fatalf("rest = %+v", rest)
	}
	if tail, err := store.ListEvents(ctx, 5, 10); err != nil || len(tail) != 0 {
		t.Fatalf("tail = %v, %v", tail, err)
	}

	got, err := store.GetEvent(ctx, 4)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.Seq != 4 || !got.Timestamp.Equal(time.Date(2026, 3, 1, 0, 0, 4, 0, time.UTC)) {
		t.Fatalf("event = %+v", got)
	}
	if _, err := store.GetEvent(ctx, 6); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing event err = %v, want %v", err, storage.ErrNotFound)
	}

	if err := store.VerifyEvents(ctx); err != nil {
		t.Fatalf("verify events: %v", err)
	}
}

func testCommitRejectsTimestamp(t *testing.T, store storage.Store) {
	ctx := context.Background()
	mustInit(t, store)

	evt := createdEvent(t, 1, 1, kitty.DNA{1}, 0)
	evt.Timestamp = time.Time{}
	batch := engine.Batch{
		Event: evt,
		Ledger: ledger.Changes{
			NextID:  2,
			Nonce:   1,
			Kitties: []kitty.Kitty{{ID: 1, DNA: kitty.DNA{1}}},
			Owners:  []ledger.OwnerChange{{KittyID: 1, Owner: 1}},
		},
	}
	if _, err := store.Commit(ctx, batch); !errors.Is(err, integrity.ErrTimestampInvalid) {
		t.Fatalf("commit err = %v, want %v", err, integrity.ErrTimestampInvalid)
	}

	events, err := store.ListEvents(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("events = %d, want 0", len(events))
	}
	state := ledger.NewState()
	if err := store.Load(ctx, state, currency.NewMemory(0)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(state.Kitties) != 0 {
		t.Fatalf("kitties = %v, want none", state.Kitties)
	}

	batch.Event.Timestamp = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := store.Commit(ctx, batch); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := store.VerifyEvents(ctx); err != nil {
		t.Fatalf("verify events: %v", err)
	}
}
