package ledger

import (
	"encoding/binary"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/currency"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/event"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
)

// DefaultDeposit is the amount reserved from the caller on create.
const DefaultDeposit kitty.Balance = 1

// Entropy supplies 16 bytes derived from a subject. Implementations must be
// deterministic for a given seed.
type Entropy interface {
	Random(subject []byte) [16]byte
}

// Currency is the balance collaborator the handlers pay through.
type Currency interface {
	Reserve(who kitty.AccountID, amount kitty.Balance) error
	Transfer(from, to kitty.AccountID, amount kitty.Balance, req currency.ExistenceRequirement) error
}

// BreedPolicy toggles the optional breeding checks. Both are off by default.
type BreedPolicy struct {
	RequireOwnership       bool
	RequireDistinctParents bool
}

// Ledger runs the kitty operations against a staged Tx.
type Ledger struct {
	Entropy Entropy
	Policy  BreedPolicy
	Deposit kitty.Balance
}

// Create mints a kitty with random DNA owned by caller and reserves the
// deposit from caller's balance.
func (l Ledger) Create(tx *Tx, bank Currency, caller kitty.AccountID) (event.Event, error) {
	id, err := kitty.NextID(tx.NextID())
	if err != nil {
		return event.Event{}, err
	}
	dna := kitty.DNA(l.Entropy.Random(subject(caller, tx.TakeNonce())))

	tx.StoreKitty(id, dna)
	tx.SetOwner(id, caller)
	tx.SetNextID(id + 1)

	if err := bank.Reserve(caller, l.Deposit); err != nil {
		return event.Event{}, err
	}
	return event.New(event.TypeCreated, caller, id, event.CreatedPayload{Owner: caller, KittyID: id, DNA: dna})
}

// Breed mints a kitty owned by caller whose DNA mixes the two parents under
// a fresh selector.
func (l Ledger) Breed(tx *Tx, caller kitty.AccountID, parent1, parent2 kitty.ID) (event.Event, error) {
	if l.Policy.RequireDistinctParents && parent1 == parent2 {
		return event.Event{}, kittyError(ErrRequireDifferentParent, parent1)
	}
	dna1, ok := tx.Kitty(parent1)
	if !ok {
		return event.Event{}, kittyError(ErrInvalidKittyID, parent1)
	}
	dna2, ok := tx.Kitty(parent2)
	if !ok {
		return event.Event{}, kittyError(ErrInvalidKittyID, parent2)
	}
	if l.Policy.RequireOwnership {
		for _, parent := range []kitty.ID{parent1, parent2} {
			if owner, ok := tx.Owner(parent); !ok || owner != caller {
				return event.Event{}, kittyError(ErrRequireOwner, parent)
			}
		}
	}

	id, err := kitty.NextID(tx.NextID())
	if err != nil {
		return event.Event{}, err
	}
	selector := kitty.DNA(l.Entropy.Random(subject(caller, tx.TakeNonce())))
	dna := kitty.BreedDNA(dna1, dna2, selector)

	tx.StoreKitty(id, dna)
	tx.SetOwner(id, caller)
	tx.SetNextID(id + 1)
	return event.New(event.TypeCreated, caller, id, event.CreatedPayload{Owner: caller, KittyID: id, DNA: dna})
}

// Transfer hands a kitty owned by caller to another account. Any listing is
// cleared so the new owner never inherits the previous owner's price.
func (l Ledger) Transfer(tx *Tx, caller, to kitty.AccountID, id kitty.ID) (event.Event, error) {
	if owner, ok := tx.Owner(id); !ok || owner != caller {
		return event.Event{}, kittyError(ErrRequireOwner, id)
	}
	tx.SetOwner(id, to)
	if _, listed := tx.Price(id); listed {
		tx.ClearPrice(id)
	}
	return event.New(event.TypeTransferred, caller, id, event.TransferredPayload{From: caller, To: to, KittyID: id})
}

// List sets or, with a nil price, clears the asking price of a kitty owned
// by caller.
func (l Ledger) List(tx *Tx, caller kitty.AccountID, id kitty.ID, price *kitty.Balance) (event.Event, error) {
	if owner, ok := tx.Owner(id); !ok || owner != caller {
		return event.Event{}, kittyError(ErrRequireOwner, id)
	}
	tx.SetPrice(id, price)

	var copied *kitty.Balance
	if price != nil {
		value := *price
		copied = &value
	}
	return event.New(event.TypeAsk, caller, id, event.AskPayload{Owner: caller, KittyID: id, Price: copied})
}

// Buy settles the listed price from caller to the owner, then hands the
// kitty to caller. The offer only has to cover the listed price; the listed
// price is what moves.
func (l Ledger) Buy(tx *Tx, bank Currency, caller kitty.AccountID, id kitty.ID, offer kitty.Balance) (event.Event, error) {
	owner, ok := tx.Owner(id)
	if !ok {
		return event.Event{}, kittyError(ErrInvalidKittyID, id)
	}
	price, ok := tx.Price(id)
	if !ok {
		return event.Event{}, kittyError(ErrNotForSale, id)
	}
	if offer < price {
		return event.Event{}, priceTooLow(id, price, offer)
	}

	if err := bank.Transfer(caller, owner, price, currency.KeepAlive); err != nil {
		return event.Event{}, err
	}
	tx.ClearPrice(id)
	tx.SetOwner(id, caller)
	return event.New(event.TypeSold, caller, id, event.SoldPayload{Seller: owner, Buyer: caller, KittyID: id, Price: price})
}

// subject encodes the entropy context: caller then call nonce, big endian.
func subject(caller kitty.AccountID, nonce uint64) []byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], uint64(caller))
	binary.BigEndian.PutUint64(b[8:], nonce)
	return b[:]
}
