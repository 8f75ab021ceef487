package command

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
)

func TestNewKittyRegistryTypes(t *testing.T) {
	got := NewKittyRegistry().ListTypes()
	want := []Type{TypeBreed, TypeBuy, TypeCreate, TypeList, TypeTransfer}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateForDecisionNormalizes(t *testing.T) {
	cmd := Command{
		Type:        " kitty.create ",
		ActorID:     1,
		RequestID:   " req-1 ",
		PayloadJSON: nil,
	}
	got, err := NewKittyRegistry().ValidateForDecision(cmd)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := Command{Type: TypeCreate, ActorID: 1, RequestID: "req-1", PayloadJSON: []byte("{}")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("command mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateForDecisionCanonicalizesPayload(t *testing.T) {
	cmd := Command{Type: TypeBuy, PayloadJSON: []byte(`{"offer": 18446744073709551615, "kitty_id": 3}`)}
	got, err := NewKittyRegistry().ValidateForDecision(cmd)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if string(got.PayloadJSON) != `{"kitty_id":3,"offer":18446744073709551615}` {
		t.Fatalf("payload = %s", got.PayloadJSON)
	}
	var payload BuyPayload
	if err := got.Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Offer != kitty.Balance(18446744073709551615) {
		t.Fatalf("offer = %d", payload.Offer)
	}
}

func TestValidateForDecisionRejects(t *testing.T) {
	registry := NewKittyRegistry()
	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{name: "missing type", cmd: Command{}, want: ErrTypeRequired},
		{name: "unknown type", cmd: Command{Type: "kitty.pet"}, want: ErrTypeUnknown},
		{name: "malformed", cmd: Command{Type: TypeBreed, PayloadJSON: []byte(`{"parent1":`)}, want: ErrPayloadInvalid},
		{name: "unknown field", cmd: Command{Type: TypeBreed, PayloadJSON: []byte(`{"parent3":1}`)}, want: ErrPayloadInvalid},
		{name: "negative id", cmd: Command{Type: TypeTransfer, PayloadJSON: []byte(`{"kitty_id":-1}`)}, want: ErrPayloadInvalid},
		{name: "id overflow", cmd: Command{Type: TypeList, PayloadJSON: []byte(`{"kitty_id":4294967296}`)}, want: ErrPayloadInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := registry.ValidateForDecision(tc.cmd)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNewCommand(t *testing.T) {
	price := kitty.Balance(10)
	cmd, err := New(TypeList, 2, ListPayload{KittyID: 4, Price: &price})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if cmd.ActorID != 2 || cmd.Type != TypeList {
		t.Fatalf("command = %+v", cmd)
	}
	var payload ListPayload
	if err := cmd.Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Price == nil || *payload.Price != 10 {
		t.Fatalf("price = %v, want 10", payload.Price)
	}
}
