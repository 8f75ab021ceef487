package currency

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
)

func endowed(t *testing.T, ed kitty.Balance, balances map[kitty.AccountID]kitty.Balance) *Memory {
	t.Helper()
	m := NewMemory(ed)
	tx := m.Begin()
	for who, amount := range balances {
		if err := tx.Deposit(who, amount); err != nil {
			t.Fatalf("deposit %d: %v", who, err)
		}
	}
	tx.Commit()
	return m
}

func TestReserve(t *testing.T) {
	m := endowed(t, 0, map[kitty.AccountID]kitty.Balance{1: 10})
	tx := m.Begin()
	if err := tx.Reserve(1, 4); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if got := m.Account(1); got != (Account{Free: 10}) {
		t.Fatalf("committed before Commit: %v", got)
	}
	tx.Commit()
	if got := m.Account(1); got != (Account{Free: 6, Reserved: 4}) {
		t.Fatalf("account = %v", got)
	}

	tx = m.Begin()
	if err := tx.Reserve(1, 7); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want %v", err, ErrInsufficientBalance)
	}
	if err := tx.Reserve(2, 1); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("unknown account err = %v, want %v", err, ErrInsufficientBalance)
	}
}

func TestTransfer(t *testing.T) {
	m := endowed(t, 0, map[kitty.AccountID]kitty.Balance{1: 100, 2: 5})
	tx := m.Begin()
	if err := tx.Transfer(1, 2, 30, KeepAlive); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := tx.Transfer(1, 3, 70, KeepAlive); err != nil {
		t.Fatalf("drain with zero existential deposit: %v", err)
	}
	tx.Commit()

	want := map[kitty.AccountID]Account{1: {}, 2: {Free: 35}, 3: {Free: 70}}
	for who, acct := range want {
		if got := m.Account(who); got != acct {
			t.Fatalf("account %d = %v, want %v", who, got, acct)
		}
	}
	if diff := cmp.Diff([]kitty.AccountID{2, 3}, m.Accounts()); diff != "" {
		t.Fatalf("accounts mismatch (-want +got):\n%s", diff)
	}
}

func TestTransferNoops(t *testing.T) {
	m := endowed(t, 0, map[kitty.AccountID]kitty.Balance{1: 1})
	tx := m.Begin()
	if err := tx.Transfer(1, 1, 1000, KeepAlive); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	if err := tx.Transfer(2, 1, 0, KeepAlive); err != nil {
		t.Fatalf("zero transfer: %v", err)
	}
	if len(tx.Changes()) != 0 {
		t.Fatalf("changes = %v, want none", tx.Changes())
	}
}

func TestTransferExistentialDeposit(t *testing.T) {
	m := endowed(t, 10, map[kitty.AccountID]kitty.Balance{1: 50})

	tx := m.Begin()
	if err := tx.Transfer(1, 2, 45, KeepAlive); !errors.Is(err, ErrKeepAlive) {
		t.Fatalf("keep alive err = %v, want %v", err, ErrKeepAlive)
	}
	if err := tx.Transfer(1, 2, 5, AllowDeath); !errors.Is(err, ErrExistentialDeposit) {
		t.Fatalf("recipient err = %v, want %v", err, ErrExistentialDeposit)
	}
	if len(tx.Changes()) != 0 {
		t.Fatal("failed transfers must not stage changes")
	}

	if err := tx.Transfer(1, 2, 45, AllowDeath); err != nil {
		t.Fatalf("allow death: %v", err)
	}
	tx.Commit()
	if got := m.Account(1); got != (Account{}) {
		t.Fatalf("sender = %v, want reaped", got)
	}
	if diff := cmp.Diff([]kitty.AccountID{2}, m.Accounts()); diff != "" {
		t.Fatalf("accounts mismatch (-want +got):\n%s", diff)
	}
}

func TestOverflow(t *testing.T) {
	m := endowed(t, 0, map[kitty.AccountID]kitty.Balance{1: 10, 2: math.MaxUint64})
	tx := m.Begin()
	if err := tx.Transfer(1, 2, 1, KeepAlive); !errors.Is(err, ErrOverflow) {
		t.Fatalf("err = %v, want %v", err, ErrOverflow)
	}
	if err := tx.Deposit(2, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("deposit err = %v, want %v", err, ErrOverflow)
	}
}

func TestChangesAreSortedAndDetached(t *testing.T) {
	m := endowed(t, 0, map[kitty.AccountID]kitty.Balance{3: 10, 1: 10})
	tx := m.Begin()
	if err := tx.Transfer(3, 2, 10, AllowDeath); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := tx.Reserve(1, 1); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	changes := tx.Changes()
	var order []kitty.AccountID
	for _, c := range changes {
		order = append(order, c.Who)
	}
	if diff := cmp.Diff([]kitty.AccountID{1, 2, 3}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if changes[2].Account != nil {
		t.Fatalf("drained account should be reaped, got %v", changes[2].Account)
	}
	changes[0].Account.Free = 999
	if got := tx.Account(1); got.Free != 9 {
		t.Fatalf("changes must be copies, staged free = %d", got.Free)
	}
}

func TestLoad(t *testing.T) {
	m := NewMemory(0)
	m.Load(4, Account{Free: 1, Reserved: 2})
	m.Load(5, Account{})
	if diff := cmp.Diff([]kitty.AccountID{4}, m.Accounts()); diff != "" {
		t.Fatalf("accounts mismatch (-want +got):\n%s", diff)
	}
	if got := m.Account(4).Total(); got != 3 {
		t.Fatalf("total = %d, want 3", got)
	}
}
