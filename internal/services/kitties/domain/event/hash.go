package event

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/encoding"
)

// ErrHashRequired indicates a chain hash was requested for an unhashed event.
var ErrHashRequired = errors.New("event hash is required")

// EventHash computes the content hash of the event envelope. Sequence and
// integrity fields are excluded.
func EventHash(evt Event) (string, error) {
	return encoding.ContentHash(map[string]any{
		"type":       string(evt.Type),
		"timestamp":  evt.Timestamp.UTC().Format(time.RFC3339Nano),
		"actor_id":   uint64(evt.ActorID),
		"request_id": evt.RequestID,
		"kitty_id":   uint32(evt.KittyID),
		"payload":    json.RawMessage(evt.PayloadJSON),
	})
}

// ChainHash links an event to its predecessor's chain hash.
func ChainHash(evt Event, prevHash string) (string, error) {
	if strings.TrimSpace(evt.Hash) == "" {
		return "", ErrHashRequired
	}
	return encoding.ContentHash(map[string]any{
		"seq":        evt.Seq,
		"event_hash": evt.Hash,
		"prev_hash":  prevHash,
	})
}
