package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
)

// Type identifies an event kind.
type Type string

const (
	// TypeCreated records a kitty minted by create or breed.
	TypeCreated Type = "kitty.created"
	// TypeTransferred records an owner handing a kitty to another account.
	TypeTransferred Type = "kitty.transferred"
	// TypeAsk records a listing price being set or cleared.
	TypeAsk Type = "kitty.ask"
	// TypeSold records a completed marketplace purchase.
	TypeSold Type = "kitty.sold"
)

// Event is the journal envelope. Seq, Timestamp and the integrity fields are
// assigned when the event is appended.
type Event struct {
	Seq            uint64
	Type           Type
	Timestamp      time.Time
	ActorID        kitty.AccountID
	RequestID      string
	KittyID        kitty.ID
	PayloadJSON    []byte
	Hash           string
	PrevHash       string
	ChainHash      string
	Signature      string
	SignatureKeyID string
}

// CreatedPayload is the payload of TypeCreated.
type CreatedPayload struct {
	Owner   kitty.AccountID `json:"owner"`
	KittyID kitty.ID        `json:"kitty_id"`
	DNA     kitty.DNA       `json:"dna"`
}

// TransferredPayload is the payload of TypeTransferred.
type TransferredPayload struct {
	From    kitty.AccountID `json:"from"`
	To      kitty.AccountID `json:"to"`
	KittyID kitty.ID        `json:"kitty_id"`
}

// AskPayload is the payload of TypeAsk. A nil price means the listing was
// cleared.
type AskPayload struct {
	Owner   kitty.AccountID `json:"owner"`
	KittyID kitty.ID        `json:"kitty_id"`
	Price   *kitty.Balance  `json:"price"`
}

// SoldPayload is the payload of TypeSold.
type SoldPayload struct {
	Seller  kitty.AccountID `json:"seller"`
	Buyer   kitty.AccountID `json:"buyer"`
	KittyID kitty.ID        `json:"kitty_id"`
	Price   kitty.Balance   `json:"price"`
}

// New builds an unsequenced event with payload marshaled to JSON.
func New(eventType Type, actor kitty.AccountID, kittyID kitty.ID, payload any) (Event, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		Type:        eventType,
		ActorID:     actor,
		KittyID:     kittyID,
		PayloadJSON: payloadJSON,
	}, nil
}

// Decode unmarshals the event payload into target.
func (e Event) Decode(target any) error {
	if err := json.Unmarshal(e.PayloadJSON, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
