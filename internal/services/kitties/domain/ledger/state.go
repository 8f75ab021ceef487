package ledger

import (
	"sort"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
)

// State holds the committed registries.
type State struct {
	// NextID is the allocator counter; zero means no kitty exists yet.
	NextID  kitty.ID
	Nonce   uint64
	Kitties map[kitty.ID]kitty.DNA
	Owners  map[kitty.ID]kitty.AccountID
	Prices  map[kitty.ID]kitty.Balance
}

// NewState returns an empty ledger.
func NewState() *State {
	return &State{
		Kitties: make(map[kitty.ID]kitty.DNA),
		Owners:  make(map[kitty.ID]kitty.AccountID),
		Prices:  make(map[kitty.ID]kitty.Balance),
	}
}

// Kitty returns the committed genome of id.
func (s *State) Kitty(id kitty.ID) (kitty.DNA, bool) {
	dna, ok := s.Kitties[id]
	return dna, ok
}

// Owner returns the committed owner of id.
func (s *State) Owner(id kitty.ID) (kitty.AccountID, bool) {
	owner, ok := s.Owners[id]
	return owner, ok
}

// Price returns the committed asking price of id.
func (s *State) Price(id kitty.ID) (kitty.Balance, bool) {
	price, ok := s.Prices[id]
	return price, ok
}

// Count returns the number of kitties ever created.
func (s *State) Count() int {
	return len(s.Kitties)
}

// Begin opens a staging transaction over the committed state.
func (s *State) Begin() *Tx {
	return &Tx{
		base:    s,
		nextID:  s.NextID,
		nonce:   s.Nonce,
		kitties: make(map[kitty.ID]kitty.DNA),
		owners:  make(map[kitty.ID]kitty.AccountID),
		prices:  make(map[kitty.ID]*kitty.Balance),
	}
}

// Tx stages registry writes over a State.
type Tx struct {
	base    *State
	nextID  kitty.ID
	nonce   uint64
	kitties map[kitty.ID]kitty.DNA
	owners  map[kitty.ID]kitty.AccountID
	prices  map[kitty.ID]*kitty.Balance
}

// NextID returns the staged allocator counter.
func (t *Tx) NextID() kitty.ID {
	return t.nextID
}

// SetNextID stages a new allocator counter.
func (t *Tx) SetNextID(id kitty.ID) {
	t.nextID = id
}

// TakeNonce returns the current call-sequence nonce and advances it.
func (t *Tx) TakeNonce() uint64 {
	n := t.nonce
	t.nonce++
	return n
}

// StoreKitty stages a new genome.
func (t *Tx) StoreKitty(id kitty.ID, dna kitty.DNA) {
	t.kitties[id] = dna
}

// Kitty returns the staged view of id's genome.
func (t *Tx) Kitty(id kitty.ID) (kitty.DNA, bool) {
	if dna, ok := t.kitties[id]; ok {
		return dna, true
	}
	return t.base.Kitty(id)
}

// SetOwner stages an owner assignment.
func (t *Tx) SetOwner(id kitty.ID, owner kitty.AccountID) {
	t.owners[id] = owner
}

// Owner returns the staged view of id's owner.
func (t *Tx) Owner(id kitty.ID) (kitty.AccountID, bool) {
	if owner, ok := t.owners[id]; ok {
		return owner, true
	}
	return t.base.Owner(id)
}

// SetPrice stages a listing. A nil price clears it.
func (t *Tx) SetPrice(id kitty.ID, price *kitty.Balance) {
	if price == nil {
		t.prices[id] = nil
		return
	}
	value := *price
	t.prices[id] = &value
}

// ClearPrice stages removal of id's listing.
func (t *Tx) ClearPrice(id kitty.ID) {
	t.prices[id] = nil
}

// Price returns the staged view of id's listing.
func (t *Tx) Price(id kitty.ID) (kitty.Balance, bool) {
	if price, ok := t.prices[id]; ok {
		if price == nil {
			return 0, false
		}
		return *price, true
	}
	return t.base.Price(id)
}

// OwnerChange is a staged owner write.
type OwnerChange struct {
	KittyID kitty.ID
	Owner   kitty.AccountID
}

// PriceChange is a staged listing write. A nil Price clears the listing.
type PriceChange struct {
	KittyID kitty.ID
	Price   *kitty.Balance
}

// Changes is the staged write set in ascending key order.
type Changes struct {
	NextID  kitty.ID
	Nonce   uint64
	Kitties []kitty.Kitty
	Owners  []OwnerChange
	Prices  []PriceChange
}

// Changes returns the staged writes for persistence.
func (t *Tx) Changes() Changes {
	changes := Changes{NextID: t.nextID, Nonce: t.nonce}
	for _, id := range sortedKeys(t.kitties) {
		changes.Kitties = append(changes.Kitties, kitty.Kitty{ID: id, DNA: t.kitties[id]})
	}
	for _, id := range sortedKeys(t.owners) {
		changes.Owners = append(changes.Owners, OwnerChange{KittyID: id, Owner: t.owners[id]})
	}
	for _, id := range sortedKeys(t.prices) {
		change := PriceChange{KittyID: id}
		if price := t.prices[id]; price != nil {
			value := *price
			change.Price = &value
		}
		changes.Prices = append(changes.Prices, change)
	}
	return changes
}

// Commit applies the staged writes to the underlying State.
func (t *Tx) Commit() {
	t.base.Apply(t.Changes())
	t.kitties = make(map[kitty.ID]kitty.DNA)
	t.owners = make(map[kitty.ID]kitty.AccountID)
	t.prices = make(map[kitty.ID]*kitty.Balance)
}

// Apply writes a change set into the state. Storage uses it to replay
// persisted rows.
func (s *State) Apply(changes Changes) {
	s.NextID = changes.NextID
	s.Nonce = changes.Nonce
	for _, k := range changes.Kitties {
		s.Kitties[k.ID] = k.DNA
	}
	for _, o := range changes.Owners {
		s.Owners[o.KittyID] = o.Owner
	}
	for _, p := range changes.Prices {
		if p.Price == nil {
			delete(s.Prices, p.KittyID)
			continue
		}
		s.Prices[p.KittyID] = *p.Price
	}
}

func sortedKeys[V any](m map[kitty.ID]V) []kitty.ID {
	keys := make([]kitty.ID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
