// Package command defines the command envelope accepted by the ledger engine
// and the registry that normalizes commands before they reach the handlers.
package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/encoding"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
)

var (
	// ErrTypeRequired indicates a missing command type.
	ErrTypeRequired = errors.New("command type is required")
	// ErrTypeUnknown indicates an unregistered command type.
	ErrTypeUnknown = errors.New("command type is not registered")
	// ErrPayloadInvalid indicates a malformed payload.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// Type identifies the command type string.
type Type string

const (
	// TypeCreate mints a kitty with random DNA.
	TypeCreate Type = "kitty.create"
	// TypeBreed mints a kitty from two parents.
	TypeBreed Type = "kitty.breed"
	// TypeTransfer hands a kitty to another account.
	TypeTransfer Type = "kitty.transfer"
	// TypeList sets or clears a kitty's asking price.
	TypeList Type = "kitty.list"
	// TypeBuy purchases a listed kitty.
	TypeBuy Type = "kitty.buy"
)

// Command captures the canonical command envelope. ActorID is the
// authenticated caller.
type Command struct {
	Type        Type
	ActorID     kitty.AccountID
	RequestID   string
	PayloadJSON []byte
}

// CreatePayload is the payload of TypeCreate.
type CreatePayload struct{}

// BreedPayload is the payload of TypeBreed.
type BreedPayload struct {
	Parent1 kitty.ID `json:"parent1"`
	Parent2 kitty.ID `json:"parent2"`
}

// TransferPayload is the payload of TypeTransfer.
type TransferPayload struct {
	To      kitty.AccountID `json:"to"`
	KittyID kitty.ID        `json:"kitty_id"`
}

// ListPayload is the payload of TypeList. A nil price clears the listing.
type ListPayload struct {
	KittyID kitty.ID       `json:"kitty_id"`
	Price   *kitty.Balance `json:"price"`
}

// BuyPayload is the payload of TypeBuy.
type BuyPayload struct {
	KittyID kitty.ID      `json:"kitty_id"`
	Offer   kitty.Balance `json:"offer"`
}

// New builds a command with payload marshaled to JSON.
func New(cmdType Type, actor kitty.AccountID, payload any) (Command, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return Command{}, fmt.Errorf("marshal %s payload: %w", cmdType, err)
	}
	return Command{Type: cmdType, ActorID: actor, PayloadJSON: payloadJSON}, nil
}

// Decode unmarshals the command payload into target, rejecting unknown fields.
func (c Command) Decode(target any) error {
	dec := json.NewDecoder(bytes.NewReader(c.PayloadJSON))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
	}
	return nil
}

// PayloadValidator validates a payload JSON document.
type PayloadValidator func(json.RawMessage) error

// Definition registers metadata for a command type.
type Definition struct {
	Type            Type
	ValidatePayload PayloadValidator
}

// Registry stores command definitions and validates commands.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// NewKittyRegistry returns a registry holding the five ledger operations.
func NewKittyRegistry() *Registry {
	r := NewRegistry()
	for _, def := range []Definition{
		{Type: TypeCreate, ValidatePayload: decodes[CreatePayload]},
		{Type: TypeBreed, ValidatePayload: decodes[BreedPayload]},
		{Type: TypeTransfer, ValidatePayload: decodes[TransferPayload]},
		{Type: TypeList, ValidatePayload: decodes[ListPayload]},
		{Type: TypeBuy, ValidatePayload: decodes[BuyPayload]},
	} {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a new command type definition to the registry.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	def.Type = Type(strings.TrimSpace(string(def.Type)))
	if def.Type == "" {
		return ErrTypeRequired
	}
	if r.definitions == nil {
		r.definitions = make(map[Type]Definition)
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("command type already registered: %s", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// ValidateForDecision validates and normalizes a command before it is
// handled. An empty payload is treated as an empty object.
func (r *Registry) ValidateForDecision(cmd Command) (Command, error) {
	cmd.Type = Type(strings.TrimSpace(string(cmd.Type)))
	if cmd.Type == "" {
		return Command{}, ErrTypeRequired
	}
	def, ok := r.definitions[cmd.Type]
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrTypeUnknown, cmd.Type)
	}
	cmd.RequestID = strings.TrimSpace(cmd.RequestID)

	if len(cmd.PayloadJSON) == 0 {
		cmd.PayloadJSON = []byte("{}")
	}
	if !json.Valid(cmd.PayloadJSON) {
		return Command{}, ErrPayloadInvalid
	}
	canonical, err := encoding.Canonicalize(cmd.PayloadJSON)
	if err != nil {
		return Command{}, fmt.Errorf("canonical payload json: %w", err)
	}
	cmd.PayloadJSON = canonical
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(json.RawMessage(cmd.PayloadJSON)); err != nil {
			return Command{}, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
		}
	}
	return cmd, nil
}

// ListTypes returns the registered types in sorted order.
func (r *Registry) ListTypes() []Type {
	types := make([]Type, 0, len(r.definitions))
	for t := range r.definitions {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func decodes[T any](raw json.RawMessage) error {
	var payload T
	return Command{PayloadJSON: raw}.Decode(&payload)
}
