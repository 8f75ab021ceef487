package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/kitties/internal/services/kitties/domain/engine"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/event"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
	"github.com/louisbranch/kitties/internal/services/kitties/storage"
)

const eventColumns = `seq, event_type, timestamp, actor_id, request_id, kitty_id, payload_json,
	event_hash, prev_event_hash, chain_hash, signature_key_id, event_signature`

// Commit seals the batch event, appends it, and writes the batch's registry
// and balance changes in one transaction.
func (s *Store) Commit(ctx context.Context, batch engine.Batch) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var initialized int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM ledger_meta WHERE id = 1`).Scan(&initialized)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, storage.ErrNotInitialized
	}
	if err != nil {
		return event.Event{}, fmt.Errorf("read ledger meta: %w", err)
	}

	var (
		lastSeq  int64
		prevHash string
	)
	err = tx.QueryRowContext(ctx, `SELECT seq, chain_hash FROM events ORDER BY seq DESC LIMIT 1`).Scan(&lastSeq, &prevHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, fmt.Errorf("load previous event: %w", err)
	}

	sealed, err := s.sealer.Seal(batch.Event, uint64(lastSeq)+1, prevHash)
	if err != nil {
		return event.Event{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(sealed.Seq),
		string(sealed.Type),
		sealed.Timestamp.UTC().UnixNano(),
		toInt64(uint64(sealed.ActorID)),
		sealed.RequestID,
		int64(sealed.KittyID),
		sealed.PayloadJSON,
		sealed.Hash,
		sealed.PrevHash,
		sealed.ChainHash,
		sealed.SignatureKeyID,
		sealed.Signature,
	); err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}

	changes := batch.Ledger
	if _, err := tx.ExecContext(ctx,
		`UPDATE ledger_meta SET next_id = ?, nonce = ? WHERE id = 1`,
		int64(changes.NextID), toInt64(changes.Nonce),
	); err != nil {
		return event.Event{}, fmt.Errorf("update ledger meta: %w", err)
	}
	for _, k := range changes.Kitties {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kitties (id, dna) VALUES (?, ?)`, int64(k.ID), k.DNA[:]); err != nil {
			return event.Event{}, fmt.Errorf("store kitty %d: %w", k.ID, err)
		}
	}
	for _, o := range changes.Owners {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kitty_owners (kitty_id, owner_id) VALUES (?, ?)
			 ON CONFLICT(kitty_id) DO UPDATE SET owner_id = excluded.owner_id`,
			int64(o.KittyID), toInt64(uint64(o.Owner)),
		); err != nil {
			return event.Event{}, fmt.Errorf("set owner of %d: %w", o.KittyID, err)
		}
	}
	for _, p := range changes.Prices {
		if p.Price == nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kitty_prices WHERE kitty_id = ?`, int64(p.KittyID)); err != nil {
				return event.Event{}, fmt.Errorf("clear price of %d: %w", p.KittyID, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kitty_prices (kitty_id, price) VALUES (?, ?)
			 ON CONFLICT(kitty_id) DO UPDATE SET price = excluded.price`,
			int64(p.KittyID), toInt64(uint64(*p.Price)),
		); err != nil {
			return event.Event{}, fmt.Errorf("set price of %d: %w", p.KittyID, err)
		}
	}
	if err := writeBalances(ctx, tx, batch.Balances); err != nil {
		return event.Event{}, err
	}

	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("commit batch: %w", err)
	}
	return sealed, nil
}

// ListEvents returns up to limit events with sequence greater than afterSeq.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE seq > ? ORDER BY seq LIMIT ?`,
		int64(afterSeq), storage.NormalizePageSize(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// GetEvent returns the event at seq.
func (s *Store) GetEvent(ctx context.Context, seq uint64) (event.Event, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE seq = ?`, int64(seq))
	evt, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, storage.ErrNotFound
	}
	if err != nil {
		return event.Event{}, err
	}
	return evt, nil
}

// VerifyEvents walks the journal and checks hashes, links and signatures.
func (s *Store) VerifyEvents(ctx context.Context) error {
	chain := s.sealer.NewChain()
	var after uint64
	for {
		page, err := s.ListEvents(ctx, after, storage.MaxPageSize)
		if err != nil {
			return err
		}
		for _, evt := range page {
			if err := chain.Next(evt); err != nil {
				return fmt.Errorf("verify event journal: %w", err)
			}
			after = evt.Seq
		}
		if len(page) < storage.MaxPageSize {
			return nil
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		evt       event.Event
		seq       int64
		eventType string
		timestamp int64
		actorID   int64
		kittyID   int64
	)
	if err := row.Scan(
		&seq,
		&eventType,
		&timestamp,
		&actorID,
		&evt.RequestID,
		&kittyID,
		&evt.PayloadJSON,
		&evt.Hash,
		&evt.PrevHash,
		&evt.ChainHash,
		&evt.SignatureKeyID,
		&evt.Signature,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, err
		}
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}
	evt.Seq = uint64(seq)
	evt.Type = event.Type(eventType)
	evt.Timestamp = time.Unix(0, timestamp).UTC()
	evt.ActorID = kitty.AccountID(toUint64(actorID))
	evt.KittyID = kitty.ID(kittyID)
	return evt, nil
}
