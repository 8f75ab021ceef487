// Package currency is the balance ledger the kitty handlers pay through.
//
// Accounts hold a free and a reserved balance. Funds move only through a Tx,
// which stages account changes until Commit so a failed operation leaves
// every balance untouched. Accounts whose total falls below the existential
// deposit are reaped.
package currency

import (
	"fmt"
	"math"
	"sort"

	apperrors "github.com/louisbranch/kitties/internal/platform/errors"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
)

// ExistenceRequirement controls whether a transfer may reap the sender.
type ExistenceRequirement int

const (
	// KeepAlive rejects transfers that would leave the sender below the
	// existential deposit.
	KeepAlive ExistenceRequirement = iota
	// AllowDeath lets a transfer drain the sender, reaping any dust.
	AllowDeath
)

var (
	// ErrInsufficientBalance indicates the free balance cannot cover the amount.
	ErrInsufficientBalance = apperrors.New(apperrors.CodeCurrencyInsufficientBalance, "insufficient balance")
	// ErrKeepAlive indicates a KeepAlive transfer would reap the sender.
	ErrKeepAlive = apperrors.New(apperrors.CodeCurrencyKeepAlive, "transfer would kill account")
	// ErrExistentialDeposit indicates the recipient would end below the
	// existential deposit.
	ErrExistentialDeposit = apperrors.New(apperrors.CodeCurrencyExistentialDeposit, "value too low to create account")
	// ErrOverflow indicates a balance would exceed its range.
	ErrOverflow = apperrors.New(apperrors.CodeCurrencyOverflow, "balance overflow")
)

// Account is the balance pair held for one account.
type Account struct {
	Free     kitty.Balance
	Reserved kitty.Balance
}

// Total returns free plus reserved, saturating at the maximum balance.
func (a Account) Total() kitty.Balance {
	if a.Free > math.MaxUint64-a.Reserved {
		return math.MaxUint64
	}
	return a.Free + a.Reserved
}

// Change is a staged account write. A nil Account means the account was
// reaped.
type Change struct {
	Who     kitty.AccountID
	Account *Account
}

// Memory holds committed balances.
type Memory struct {
	existentialDeposit kitty.Balance
	accounts           map[kitty.AccountID]Account
}

// NewMemory returns an empty balance ledger.
func NewMemory(existentialDeposit kitty.Balance) *Memory {
	return &Memory{
		existentialDeposit: existentialDeposit,
		accounts:           make(map[kitty.AccountID]Account),
	}
}

// Account returns the committed balances of who.
func (m *Memory) Account(who kitty.AccountID) Account {
	return m.accounts[who]
}

// Accounts returns every account with a balance, in ascending order.
func (m *Memory) Accounts() []kitty.AccountID {
	ids := make([]kitty.AccountID, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Load replaces a committed account, as read back from storage.
func (m *Memory) Load(who kitty.AccountID, account Account) {
	if account.Total() == 0 {
		delete(m.accounts, who)
		return
	}
	m.accounts[who] = account
}

// Begin opens a staging transaction over the committed balances.
func (m *Memory) Begin() *Tx {
	return &Tx{base: m, staged: make(map[kitty.AccountID]*Account)}
}

// Tx stages balance changes over a Memory.
type Tx struct {
	base   *Memory
	staged map[kitty.AccountID]*Account
}

// Account returns the staged view of who.
func (t *Tx) Account(who kitty.AccountID) Account {
	if acct, ok := t.staged[who]; ok {
		if acct == nil {
			return Account{}
		}
		return *acct
	}
	return t.base.Account(who)
}

// Deposit credits amount to who's free balance. It is used for genesis
// endowments.
func (t *Tx) Deposit(who kitty.AccountID, amount kitty.Balance) error {
	acct := t.Account(who)
	if acct.Free > math.MaxUint64-amount {
		return ErrOverflow
	}
	acct.Free += amount
	if acct.Total() < t.base.existentialDeposit {
		return ErrExistentialDeposit
	}
	t.put(who, acct)
	return nil
}

// Reserve moves amount from who's free balance to its reserved balance.
func (t *Tx) Reserve(who kitty.AccountID, amount kitty.Balance) error {
	acct := t.Account(who)
	if acct.Free < amount {
		return ErrInsufficientBalance
	}
	if acct.Reserved > math.MaxUint64-amount {
		return ErrOverflow
	}
	acct.Free -= amount
	acct.Reserved += amount
	t.put(who, acct)
	return nil
}

// Transfer moves amount of free balance from one account to another.
// Transfers of zero and transfers to self succeed without effect.
func (t *Tx) Transfer(from, to kitty.AccountID, amount kitty.Balance, req ExistenceRequirement) error {
	if amount == 0 || from == to {
		return nil
	}
	src := t.Account(from)
	if src.Free < amount {
		return ErrInsufficientBalance
	}
	src.Free -= amount
	ed := t.base.existentialDeposit
	if src.Total() < ed && req == KeepAlive {
		return ErrKeepAlive
	}

	dst := t.Account(to)
	if dst.Free > math.MaxUint64-amount {
		return ErrOverflow
	}
	dst.Free += amount
	if dst.Total() < ed {
		return ErrExistentialDeposit
	}

	t.put(from, src)
	t.put(to, dst)
	return nil
}

// Changes returns the staged writes sorted by account.
func (t *Tx) Changes() []Change {
	changes := make([]Change, 0, len(t.staged))
	for who, acct := range t.staged {
		var copied *Account
		if acct != nil {
			value := *acct
			copied = &value
		}
		changes = append(changes, Change{Who: who, Account: copied})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Who < changes[j].Who })
	return changes
}

// Commit applies the staged writes to the underlying Memory.
func (t *Tx) Commit() {
	for _, change := range t.Changes() {
		if change.Account == nil {
			delete(t.base.accounts, change.Who)
			continue
		}
		t.base.accounts[change.Who] = *change.Account
	}
	t.staged = make(map[kitty.AccountID]*Account)
}

func (t *Tx) put(who kitty.AccountID, acct Account) {
	// Below the existential deposit the account is reaped and its dust lost.
	if acct.Total() < t.base.existentialDeposit || acct.Total() == 0 {
		t.staged[who] = nil
		return
	}
	t.staged[who] = &acct
}

// String renders the account for logs.
func (a Account) String() string {
	return fmt.Sprintf("free=%d reserved=%d", a.Free, a.Reserved)
}
