package integrity

import (
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/event"
)

func sealedJournal(t *testing.T, sealer Sealer, n int) []event.Event {
	t.Helper()
	var (
		journal []event.Event
		prev    string
	)
	for i := 1; i <= n; i++ {
		evt := event.Event{
			Type:        event.TypeTransferred,
			Timestamp:   time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
			ActorID:     1,
			KittyID:     1,
			PayloadJSON: []byte(`{"from":1,"kitty_id":1,"to":2}`),
		}
		sealed, err := sealer.Seal(evt, uint64(i), prev)
		if err != nil {
			t.Fatalf("seal: %v", err)
		}
		journal = append(journal, sealed)
		prev = sealed.ChainHash
	}
	return journal
}

func verify(sealer Sealer, journal []event.Event) error {
	chain := sealer.NewChain()
	for _, evt := range journal {
		if err := chain.Next(evt); err != nil {
			return err
		}
	}
	return nil
}

func testSealer(t *testing.T) Sealer {
	t.Helper()
	ring, err := NewKeyring(map[string][]byte{"v1": []byte("secret")}, "v1")
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	return Sealer{Keyring: ring}
}

func TestSealedJournalVerifies(t *testing.T) {
	sealer := testSealer(t)
	journal := sealedJournal(t, sealer, 3)
	if journal[0].PrevHash != "" || journal[1].PrevHash != journal[0].ChainHash {
		t.Fatal("events are not linked")
	}
	if journal[2].SignatureKeyID != "v1" || journal[2].Signature == "" {
		t.Fatalf("event not signed: %+v", journal[2])
	}
	if err := verify(sealer, journal); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestUnsignedSealer(t *testing.T) {
	journal := sealedJournal(t, Sealer{}, 2)
	if journal[1].Signature != "" {
		t.Fatal("unsigned sealer produced a signature")
	}
	if err := verify(Sealer{}, journal); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := verify(testSealer(t), journal); err == nil {
		t.Fatal("signed verification must reject unsigned events")
	}
}

func TestChainDetectsTampering(t *testing.T) {
	sealer := testSealer(t)
	tamper := map[string]func([]event.Event){
		"payload":   func(j []event.Event) { j[1].PayloadJSON = []byte(`{"from":1,"kitty_id":1,"to":3}`) },
		"actor":     func(j []event.Event) { j[0].ActorID = 9 },
		"gap":       func(j []event.Event) { j[2].Seq = 4 },
		"prev hash": func(j []event.Event) { j[2].PrevHash = "x" },
		"signature": func(j []event.Event) { j[1].Signature = "00" },
		"chain":     func(j []event.Event) { j[1].ChainHash = j[0].ChainHash },
	}
	for name, mutate := range tamper {
		journal := sealedJournal(t, sealer, 3)
		mutate(journal)
		if err := verify(sealer, journal); err == nil {
			t.Fatalf("%s: expected verification failure", name)
		}
	}
}

func TestSealRejectsUnstorableTimestamps(t *testing.T) {
	tests := map[string]time.Time{
		"zero":        {},
		"before 1678": time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC),
		"after 2262":  time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for name, at := range tests {
		t.Run(name, func(t *testing.T) {
			evt := event.Event{
				Type:        event.TypeTransferred,
				Timestamp:   at,
				ActorID:     1,
				KittyID:     1,
				PayloadJSON: []byte(`{"from":1,"kitty_id":1,"to":2}`),
			}
			if _, err := testSealer(t).Seal(evt, 1, ""); !errors.Is(err, ErrTimestampInvalid) {
				t.Fatalf("seal err = %v, want %v", err, ErrTimestampInvalid)
			}
		})
	}
}
