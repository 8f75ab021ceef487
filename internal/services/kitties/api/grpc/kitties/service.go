package kitties

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/louisbranch/kitties/internal/platform/errors"
	"github.com/louisbranch/kitties/internal/platform/grpc/pagination"
	"github.com/louisbranch/kitties/internal/platform/requestctx"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/command"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/currency"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/engine"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/event"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
	"github.com/louisbranch/kitties/internal/services/kitties/storage"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrCallerRequired rejects mutations without a caller account.
var ErrCallerRequired = apperrors.New(apperrors.CodeCallerRequired, "caller account is required")

// Engine executes commands and serves committed reads.
type Engine interface {
	Execute(ctx context.Context, cmd command.Command) (event.Event, error)
	Kitty(id kitty.ID) (engine.KittyView, error)
	Balance(who kitty.AccountID) currency.Account
}

// Service implements KittyServiceServer.
type Service struct {
	engine Engine
	events storage.EventStore
	logger *zap.Logger
}

// NewService builds the gRPC adapter over an engine and its event journal.
func NewService(eng Engine, events storage.EventStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: eng, events: events, logger: logger}
}

// CreateKitty mints a kitty for the caller.
func (s *Service) CreateKitty(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.mint(ctx, command.TypeCreate, command.CreatePayload{})
}

// BreedKitty mints a kitty from two parents.
func (s *Service) BreedKitty(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	parent1, err := kittyIDField(in, "parent1")
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	parent2, err := kittyIDField(in, "parent2")
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	return s.mint(ctx, command.TypeBreed, command.BreedPayload{Parent1: parent1, Parent2: parent2})
}

// TransferKitty hands a kitty to another account.
func (s *Service) TransferKitty(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	to, err := accountField(in, "to")
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	id, err := kittyIDField(in, "kitty_id")
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	return s.execute(ctx, command.TypeTransfer, command.TransferPayload{To: to, KittyID: id})
}

// ListKitty sets the asking price of a kitty. A missing or null price
// withdraws it from sale.
func (s *Service) ListKitty(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := kittyIDField(in, "kitty_id")
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	price, err := optionalBalanceField(in, "price")
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	return s.execute(ctx, command.TypeList, command.ListPayload{KittyID: id, Price: price})
}

// BuyKitty purchases a listed kitty.
func (s *Service) BuyKitty(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := kittyIDField(in, "kitty_id")
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	offer, err := balanceField(in, "offer")
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	return s.execute(ctx, command.TypeBuy, command.BuyPayload{KittyID: id, Offer: offer})
}

// GetKitty returns the DNA, owner and asking price of a kitty.
func (s *Service) GetKitty(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := kittyIDField(in, "kitty_id")
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	view, err := s.engine.Kitty(id)
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	return newStruct(map[string]any{"kitty": kittyFields(view)})
}

// GetBalance returns the balances of account_id, defaulting to the caller.
func (s *Service) GetBalance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	value, present, err := uintField(in, "account_id", 64)
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	if !present {
		caller, ok := requestctx.AccountIDFromContext(ctx)
		if !ok {
			return nil, s.handleError(ctx, ErrCallerRequired)
		}
		value = caller
	}
	who := kitty.AccountID(value)
	return newStruct(map[string]any{"balance": balanceFields(who, s.engine.Balance(who))})
}

// ListEvents pages through the journal in sequence order.
func (s *Service) ListEvents(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.events == nil {
		return nil, s.handleError(ctx, errors.New("event store is not configured"))
	}
	requested, err := int32Field(in, "page_size")
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	token, err := stringField(in, "page_token")
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	afterSeq, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, s.handleError(ctx, invalidArgument("page_token is invalid"))
	}
	pageSize := pagination.ClampPageSize(requested, pagination.PageSizeConfig{
		Default: storage.DefaultPageSize,
		Max:     storage.MaxPageSize,
	})

	events, err := s.events.ListEvents(ctx, afterSeq, pageSize)
	if err != nil {
		return nil, s.handleError(ctx, fmt.Errorf("list events: %w", err))
	}
	// A full page may be followed by an empty one.
	nextToken := ""
	if len(events) == pageSize {
		nextToken = pagination.EncodeCursor(events[len(events)-1].Seq)
	}

	items := make([]any, 0, len(events))
	for _, evt := range events {
		items = append(items, eventFields(evt))
	}
	return newStruct(map[string]any{
		"events":          items,
		"next_page_token": nextToken,
	})
}

// VerifyEvents checks the hash chain and signatures of the whole journal.
func (s *Service) VerifyEvents(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if s.events == nil {
		return nil, s.handleError(ctx, errors.New("event store is not configured"))
	}
	if err := s.events.VerifyEvents(ctx); err != nil {
		s.logger.Error("journal verification failed", zap.Error(err))
		return newStruct(map[string]any{"valid": false, "error": err.Error()})
	}
	return newStruct(map[string]any{"valid": true})
}

func (s *Service) mint(ctx context.Context, cmdType command.Type, payload any) (*structpb.Struct, error) {
	evt, err := s.run(ctx, cmdType, payload)
	if err != nil {
		return nil, err
	}
	var created event.CreatedPayload
	if err := evt.Decode(&created); err != nil {
		return nil, s.handleError(ctx, fmt.Errorf("decode created payload: %w", err))
	}
	view := engine.KittyView{ID: created.KittyID, DNA: created.DNA, Owner: created.Owner}
	return newStruct(map[string]any{
		"event": eventFields(evt),
		"kitty": kittyFields(view),
	})
}

func (s *Service) execute(ctx context.Context, cmdType command.Type, payload any) (*structpb.Struct, error) {
	evt, err := s.run(ctx, cmdType, payload)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"event": eventFields(evt)})
}

func (s *Service) run(ctx context.Context, cmdType command.Type, payload any) (event.Event, error) {
	caller, ok := requestctx.AccountIDFromContext(ctx)
	if !ok {
		return event.Event{}, s.handleError(ctx, ErrCallerRequired)
	}
	cmd, err := command.New(cmdType, kitty.AccountID(caller), payload)
	if err != nil {
		return event.Event{}, s.handleError(ctx, err)
	}
	cmd.RequestID = requestctx.RequestIDFromContext(ctx)
	evt, err := s.engine.Execute(ctx, cmd)
	if err != nil {
		return event.Event{}, s.handleError(ctx, err)
	}
	return evt, nil
}

func (s *Service) handleError(ctx context.Context, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		err = apperrors.Wrap(apperrors.CodeNotFound, err.Error(), err)
	}
	if apperrors.GetCode(err) == apperrors.CodeUnknown {
		s.logger.Error("request failed",
			zap.String("request_id", requestctx.RequestIDFromContext(ctx)),
			zap.Error(err),
		)
	}
	return apperrors.HandleError(err, localeFromContext(ctx))
}
