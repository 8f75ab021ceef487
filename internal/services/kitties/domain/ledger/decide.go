package ledger

import (
	"fmt"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/command"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/event"
)

// Decide routes a validated command to its handler.
func (l Ledger) Decide(tx *Tx, bank Currency, cmd command.Command) (event.Event, error) {
	switch cmd.Type {
	case command.TypeCreate:
		return l.Create(tx, bank, cmd.ActorID)
	case command.TypeBreed:
		var p command.BreedPayload
		if err := cmd.Decode(&p); err != nil {
			return event.Event{}, err
		}
		return l.Breed(tx, cmd.ActorID, p.Parent1, p.Parent2)
	case command.TypeTransfer:
		var p command.TransferPayload
		if err := cmd.Decode(&p); err != nil {
			return event.Event{}, err
		}
		return l.Transfer(tx, cmd.ActorID, p.To, p.KittyID)
	case command.TypeList:
		var p command.ListPayload
		if err := cmd.Decode(&p); err != nil {
			return event.Event{}, err
		}
		return l.List(tx, cmd.ActorID, p.KittyID, p.Price)
	case command.TypeBuy:
		var p command.BuyPayload
		if err := cmd.Decode(&p); err != nil {
			return event.Event{}, err
		}
		return l.Buy(tx, bank, cmd.ActorID, p.KittyID, p.Offer)
	default:
		return event.Event{}, fmt.Errorf("%w: %s", command.ErrTypeUnknown, cmd.Type)
	}
}
