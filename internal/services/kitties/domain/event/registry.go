package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/encoding"
)

var (
	// ErrTypeRequired indicates a missing event type.
	ErrTypeRequired = errors.New("event type is required")
	// ErrTypeUnknown indicates an unregistered event type.
	ErrTypeUnknown = errors.New("event type is not registered")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// PayloadValidator validates a payload JSON document.
type PayloadValidator func(json.RawMessage) error

// Definition registers metadata for an event type.
type Definition struct {
	Type            Type
	ValidatePayload PayloadValidator
}

// Registry stores event definitions and validates events before append.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// NewKittyRegistry returns a registry holding the four ledger event types.
func NewKittyRegistry() *Registry {
	r := NewRegistry()
	for _, def := range []Definition{
		{Type: TypeCreated, ValidatePayload: strictPayload[CreatedPayload]},
		{Type: TypeTransferred, ValidatePayload: strictPayload[TransferredPayload]},
		{Type: TypeAsk, ValidatePayload: strictPayload[AskPayload]},
		{Type: TypeSold, ValidatePayload: strictPayload[SoldPayload]},
	} {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a new event type definition.
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
		return fmt.Errorf("event type already registered: %s", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// ValidateForAppend validates and normalizes an event before it is journaled.
// The returned event carries the canonical form of its payload.
func (r *Registry) ValidateForAppend(evt Event) (Event, error) {
	evt.Type = Type(strings.TrimSpace(string(evt.Type)))
	if evt.Type == "" {
		return Event{}, ErrTypeRequired
	}
	def, ok := r.definitions[evt.Type]
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrTypeUnknown, evt.Type)
	}
	if len(evt.PayloadJSON) == 0 || !json.Valid(evt.PayloadJSON) {
		return Event{}, ErrPayloadInvalid
	}
	canonical, err := encoding.Canonicalize(evt.PayloadJSON)
	if err != nil {
		return Event{}, fmt.Errorf("canonical payload json: %w", err)
	}
	evt.PayloadJSON = canonical
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(json.RawMessage(evt.PayloadJSON)); err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
		}
	}
	return evt, nil
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

func strictPayload[T any](raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var payload T
	return dec.Decode(&payload)
}
