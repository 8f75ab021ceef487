// Package sqlite provides the SQLite-backed kitty ledger store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/kitties/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/currency"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/ledger"
	"github.com/louisbranch/kitties/internal/services/kitties/storage"
	"github.com/louisbranch/kitties/internal/services/kitties/storage/integrity"
	"github.com/louisbranch/kitties/internal/services/kitties/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists the kitty ledger in SQLite.
type Store struct {
	sqlDB  *sql.DB
	sealer integrity.Sealer
}

var _ storage.Store = (*Store)(nil)

// Open opens a SQLite ledger store and applies embedded migrations. It
// returns the names of the migrations applied by this call.
func Open(ctx context.Context, path string, keyring *integrity.Keyring) (*Store, []string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, fmt.Errorf("storage path is required")
	}
	if keyring == nil {
		return nil, nil, fmt.Errorf("event keyring is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	applied, err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, "")
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, sealer: integrity.Sealer{Keyring: keyring}}, applied, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Init writes genesis to an empty store and returns the stored seed.
func (s *Store) Init(ctx context.Context, genesis storage.Genesis) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin init: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stored []byte
	err = tx.QueryRowContext(ctx, `SELECT seed FROM ledger_meta WHERE id = 1`).Scan(&stored)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read ledger meta: %w", err)
	}
	if len(genesis.Seed) == 0 {
		return nil, fmt.Errorf("genesis seed is required")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_meta (id, seed, next_id, nonce, created_at) VALUES (1, ?, 0, 0, ?)`,
		genesis.Seed, time.Now().UTC().UnixMilli(),
	); err != nil {
		return nil, fmt.Errorf("insert ledger meta: %w", err)
	}
	if err := writeBalances(ctx, tx, genesis.Balances); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit init: %w", err)
	}
	return append([]byte(nil), genesis.Seed...), nil
}

// Load fills state and bank from the persisted rows.
func (s *Store) Load(ctx context.Context, state *ledger.State, bank *currency.Memory) error {
	var nextID int64
	var nonce int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT next_id, nonce FROM ledger_meta WHERE id = 1`).Scan(&nextID, &nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotInitialized
	}
	if err != nil {
		return fmt.Errorf("read ledger meta: %w", err)
	}
	state.NextID = kitty.ID(nextID)
	state.Nonce = toUint64(nonce)

	if err := s.scan(ctx, `SELECT id, dna FROM kitties`, func(rows *sql.Rows) error {
		var id int64
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return err
		}
		var dna kitty.DNA
		if len(raw) != len(dna) {
			return fmt.Errorf("kitty %d dna has %d bytes", id, len(raw))
		}
		copy(dna[:], raw)
		state.Kitties[kitty.ID(id)] = dna
		return nil
	}); err != nil {
		return fmt.Errorf("load kitties: %w", err)
	}

	if err := s.scan(ctx, `SELECT kitty_id, owner_id FROM kitty_owners`, func(rows *sql.Rows) error {
		var id, owner int64
		if err := rows.Scan(&id, &owner); err != nil {
			return err
		}
		state.Owners[kitty.ID(id)] = kitty.AccountID(toUint64(owner))
		return nil
	}); err != nil {
		return fmt.Errorf("load owners: %w", err)
	}

	if err := s.scan(ctx, `SELECT kitty_id, price FROM kitty_prices`, func(rows *sql.Rows) error {
		var id, price int64
		if err := rows.Scan(&id, &price); err != nil {
			return err
		}
		state.Prices[kitty.ID(id)] = kitty.Balance(toUint64(price))
		return nil
	}); err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	if err := s.scan(ctx, `SELECT account_id, free, reserved FROM balances`, func(rows *sql.Rows) error {
		var who, free, reserved int64
		if err := rows.Scan(&who, &free, &reserved); err != nil {
			return err
		}
		bank.Load(kitty.AccountID(toUint64(who)), currency.Account{
			Free:     kitty.Balance(toUint64(free)),
			Reserved: kitty.Balance(toUint64(reserved)),
		})
		return nil
	}); err != nil {
		return fmt.Errorf("load balances: %w", err)
	}
	return nil
}

func (s *Store) scan(ctx context.Context, query string, each func(*sql.Rows) error) error {
	rows, err := s.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := each(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func writeBalances(ctx context.Context, tx *sql.Tx, changes []currency.Change) error {
	for _, change := range changes {
		who := toInt64(uint64(change.Who))
		if change.Account == nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM balances WHERE account_id = ?`, who); err != nil {
				return fmt.Errorf("delete balance %d: %w", change.Who, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO balances (account_id, free, reserved) VALUES (?, ?, ?)
			 ON CONFLICT(account_id) DO UPDATE SET free = excluded.free, reserved = excluded.reserved`,
			who, toInt64(uint64(change.Account.Free)), toInt64(uint64(change.Account.Reserved)),
		); err != nil {
			return fmt.Errorf("write balance %d: %w", change.Who, err)
		}
	}
	return nil
}

// toInt64 and toUint64 reinterpret the bits; SQLite integers are signed.
func toInt64(v uint64) int64 {
	return int64(v)
}

func toUint64(v int64) uint64 {
	return uint64(v)
}
