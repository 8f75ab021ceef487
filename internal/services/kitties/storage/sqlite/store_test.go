package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/currency"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/engine"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/event"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/ledger"
	"github.com/louisbranch/kitties/internal/services/kitties/storage"
	"github.com/louisbranch/kitties/internal/services/kitties/storage/integrity"
	"github.com/louisbranch/kitties/internal/services/kitties/storage/storagetest"
)

func testKeyring(t *testing.T) *integrity.Keyring {
	t.Helper()
	ring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("secret")}, "v1")
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	return ring
}

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, _, err := Open(context.Background(), path, testKeyring(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return openTestStore(t, filepath.Join(t.TempDir(), "kitties.db"))
	})
}

func TestOpenValidation(t *testing.T) {
	if _, _, err := Open(context.Background(), " ", testKeyring(t)); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, _, err := Open(context.Background(), filepath.Join(t.TempDir(), "k.db"), nil); err == nil {
		t.Fatal("expected error for missing keyring")
	}
}

func TestOpenReportsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kitties.db")
	store, applied, err := Open(context.Background(), path, testKeyring(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(applied) != 1 || applied[0] != "001_ledger.sql" {
		t.Fatalf("applied = %v", applied)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, applied, err = Open(context.Background(), path, testKeyring(t))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	if len(applied) != 0 {
		t.Fatalf("reopen applied = %v", applied)
	}
}

func TestStoreSurvivesReopenWithFullRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kitties.db")
	ctx := context.Background()
	const whale = kitty.AccountID(math.MaxUint64)
	price := kitty.Balance(math.MaxUint64 - 1)

	store, _, err := Open(ctx, path, testKeyring(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.Init(ctx, storage.Genesis{
		Seed:     []byte("seed"),
		Balances: []currency.Change{{Who: whale, Account: &currency.Account{Free: math.MaxUint64}}},
	}); err != nil {
		t.Fatalf("init: %v", err)
	}
	evt, err := event.New(event.TypeAsk, whale, kitty.MaxID-1, event.AskPayload{Owner: whale, KittyID: kitty.MaxID - 1, Price: &price})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	evt.Timestamp = time.Date(2026, 5, 6, 7, 8, 9, 123456789, time.UTC)
	if _, err := store.Commit(ctx, engine.Batch{
		Event: evt,
		Ledger: ledger.Changes{
			NextID:  kitty.MaxID,
			Nonce:   math.MaxUint64,
			Kitties: []kitty.Kitty{{ID: kitty.MaxID - 1, DNA: kitty.DNA{0xff}}},
			Owners:  []ledger.OwnerChange{{KittyID: kitty.MaxID - 1, Owner: whale}},
			Prices:  []ledger.PriceChange{{KittyID: kitty.MaxID - 1, Price: &price}},
		},
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openTestStore(t, path)
	state := ledger.NewState()
	bank := currency.NewMemory(0)
	if err := reopened.Load(ctx, state, bank); err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.NextID != kitty.MaxID || state.Nonce != math.MaxUint64 {
		t.Fatalf("meta = %d/%d", state.NextID, state.Nonce)
	}
	if owner, _ := state.Owner(kitty.MaxID - 1); owner != whale {
		t.Fatalf("owner = %d, want %d", owner, whale)
	}
	if p, _ := state.Price(kitty.MaxID - 1); p != price {
		t.Fatalf("price = %d, want %d", p, price)
	}
	if got := bank.Account(whale).Free; got != math.MaxUint64 {
		t.Fatalf("free = %d", got)
	}

	stored, err := reopened.GetEvent(ctx, 1)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if !stored.Timestamp.Equal(evt.Timestamp) || stored.ActorID != whale {
		t.Fatalf("event = %+v", stored)
	}
	if err := reopened.VerifyEvents(ctx); err != nil {
		t.Fatalf("verify after reopen: %v", err)
	}
}

func TestCommitRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "kitties.db"))
	if _, err := store.Init(ctx, storage.Genesis{Seed: []byte("seed")}); err != nil {
		t.Fatalf("init: %v", err)
	}
	evt, err := event.New(event.TypeCreated, 1, 1, event.CreatedPayload{Owner: 1, KittyID: 1})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	evt.Timestamp = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	batch := engine.Batch{
		Event: evt,
		Ledger: ledger.Changes{
			NextID:  2,
			Kitties: []kitty.Kitty{{ID: 1}},
			Owners:  []ledger.OwnerChange{{KittyID: 1, Owner: 1}},
		},
	}
	if _, err := store.Commit(ctx, batch); err != nil {
		t.Fatalf("commit: %v", err)
	}
	// Re-inserting kitty 1 violates its primary key.
	if _, err := store.Commit(ctx, batch); err == nil {
		t.Fatal("expected duplicate kitty error")
	}

	events, err := store.ListEvents(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "kitties.db"))
	if _, err := store.Init(ctx, storage.Genesis{Seed: []byte("seed")}); err != nil {
		t.Fatalf("init: %v", err)
	}
	evt, err := event.New(event.TypeTransferred, 1, 1, event.TransferredPayload{From: 1, To: 2, KittyID: 1})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	evt.Timestamp = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := store.Commit(ctx, engine.Batch{Event: evt, Ledger: ledger.Changes{NextID: 2}}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := store.VerifyEvents(ctx); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if _, err := store.sqlDB.ExecContext(ctx, `UPDATE events SET payload_json = ? WHERE seq = 1`,
		[]byte(`{"from":1,"kitty_id":1,"to":3}`)); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if err := store.VerifyEvents(ctx); err == nil {
		t.Fatal("expected tampered journal to fail verification")
	}
}
