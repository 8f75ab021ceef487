package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/louisbranch/kitties/internal/platform/errors"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/command"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/currency"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/event"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/ledger"
)

var (
	// ErrStoreRequired indicates a missing store.
	ErrStoreRequired = errors.New("store is required")
	// ErrEntropyRequired indicates a ledger without an entropy source.
	ErrEntropyRequired = errors.New("entropy source is required")
)

// Batch is everything one accepted command writes.
type Batch struct {
	Event    event.Event
	Ledger   ledger.Changes
	Balances []currency.Change
}

// Store persists a batch atomically and returns the event with its sequence
// and integrity fields set.
type Store interface {
	Commit(ctx context.Context, batch Batch) (event.Event, error)
}

// Options configures a Handler.
type Options struct {
	Ledger   ledger.Ledger
	Store    Store
	Commands *command.Registry
	Events   *event.Registry
	Logger   *zap.Logger
	Now      func() time.Time
}

// Handler owns the in-memory ledger and serializes every command against it.
type Handler struct {
	ledger   ledger.Ledger
	store    Store
	commands *command.Registry
	events   *event.Registry
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.Mutex
	state *ledger.State
	bank  *currency.Memory
}

// NewHandler builds a handler over state and bank, which it owns from then
// on.
func NewHandler(state *ledger.State, bank *currency.Memory, opts Options) (*Handler, error) {
	if opts.Store == nil {
		return nil, ErrStoreRequired
	}
	if opts.Ledger.Entropy == nil {
		return nil, ErrEntropyRequired
	}
	if state == nil {
		state = ledger.NewState()
	}
	if bank == nil {
		bank = currency.NewMemory(0)
	}
	if opts.Commands == nil {
		opts.Commands = command.NewKittyRegistry()
	}
	if opts.Events == nil {
		opts.Events = event.NewKittyRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		ledger:   opts.Ledger,
		store:    opts.Store,
		commands: opts.Commands,
		events:   opts.Events,
		logger:   opts.Logger,
		now:      opts.Now,
		state:    state,
		bank:     bank,
	}, nil
}

// Execute runs one command and returns the stored event.
func (h *Handler) Execute(ctx context.Context, cmd command.Command) (event.Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log := h.logger.With(
		zap.String("command", string(cmd.Type)),
		zap.Uint64("actor_id", uint64(cmd.ActorID)),
		zap.String("request_id", cmd.RequestID),
	)

	validated, err := h.commands.ValidateForDecision(cmd)
	if err != nil {
		log.Info("command rejected", zap.Error(err))
		return event.Event{}, apperrors.Wrap(apperrors.CodeCommandInvalid, err.Error(), err)
	}
	cmd = validated

	tx := h.state.Begin()
	btx := h.bank.Begin()
	evt, err := h.ledger.Decide(tx, btx, cmd)
	if err != nil {
		if errors.Is(err, command.ErrPayloadInvalid) {
			err = apperrors.Wrap(apperrors.CodeCommandInvalid, err.Error(), err)
		}
		log.Info("command rejected", zap.String("code", string(apperrors.GetCode(err))), zap.Error(err))
		return event.Event{}, err
	}

	evt.RequestID = cmd.RequestID
	evt.Timestamp = h.now().UTC()
	evt, err = h.events.ValidateForAppend(evt)
	if err != nil {
		log.Error("event rejected", zap.Error(err))
		return event.Event{}, err
	}

	stored, err := h.store.Commit(ctx, Batch{
		Event:    evt,
		Ledger:   tx.Changes(),
		Balances: btx.Changes(),
	})
	if err != nil {
		log.Error("commit failed", zap.Error(err))
		return event.Event{}, err
	}
	tx.Commit()
	btx.Commit()

	log.Info("command accepted",
		zap.String("event", string(stored.Type)),
		zap.Uint64("seq", stored.Seq),
		zap.Uint32("kitty_id", uint32(stored.KittyID)),
	)
	return stored, nil
}

// KittyView is the read model of one kitty.
type KittyView struct {
	ID    kitty.ID
	DNA   kitty.DNA
	Owner kitty.AccountID
	Price *kitty.Balance
}

// Kitty returns the committed view of id.
func (h *Handler) Kitty(id kitty.ID) (KittyView, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	dna, ok := h.state.Kitty(id)
	if !ok {
		return KittyView{}, apperrors.WithMetadata(ledger.ErrInvalidKittyID.Code, ledger.ErrInvalidKittyID.Message,
			map[string]string{"KittyID": id.String()})
	}
	view := KittyView{ID: id, DNA: dna}
	view.Owner, _ = h.state.Owner(id)
	if price, listed := h.state.Price(id); listed {
		view.Price = &price
	}
	return view, nil
}

// Balance returns the committed balances of who.
func (h *Handler) Balance(who kitty.AccountID) currency.Account {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bank.Account(who)
}

// NextID returns the committed allocator counter.
func (h *Handler) NextID() kitty.ID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.NextID
}
