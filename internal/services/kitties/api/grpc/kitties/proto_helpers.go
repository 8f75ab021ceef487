package kitties

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/kitties/internal/platform/errors"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/currency"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/engine"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/event"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxExactNumber is the largest integer a protobuf double holds exactly.
const maxExactNumber = 1 << 53

func invalidArgument(format string, args ...any) error {
	return apperrors.New(apperrors.CodeCommandInvalid, fmt.Sprintf(format, args...))
}

// uintField reads an unsigned integer sent either as a decimal string or as
// an integral number. Absent and null fields report present=false.
func uintField(in *structpb.Struct, name string, bitSize int) (value uint64, present bool, err error) {
	field, ok := in.GetFields()[name]
	if !ok {
		return 0, false, nil
	}
	switch kind := field.GetKind().(type) {
	case *structpb.Value_NullValue:
		return 0, false, nil
	case *structpb.Value_StringValue:
		parsed, err := strconv.ParseUint(strings.TrimSpace(kind.StringValue), 10, bitSize)
		if err != nil {
			return 0, true, invalidArgument("%s must be an unsigned %d-bit integer", name, bitSize)
		}
		return parsed, true, nil
	case *structpb.Value_NumberValue:
		number := kind.NumberValue
		if number < 0 || number != math.Trunc(number) || number > maxExactNumber {
			return 0, true, invalidArgument("%s must be an unsigned integer", name)
		}
		if bitSize < 64 && number > float64(uint64(1)<<bitSize-1) {
			return 0, true, invalidArgument("%s must be an unsigned %d-bit integer", name, bitSize)
		}
		return uint64(number), true, nil
	default:
		return 0, true, invalidArgument("%s must be a string or number", name)
	}
}

func requiredUint(in *structpb.Struct, name string, bitSize int) (uint64, error) {
	value, present, err := uintField(in, name, bitSize)
	if err != nil {
		return 0, err
	}
	if !present {
		return 0, invalidArgument("%s is required", name)
	}
	return value, nil
}

func kittyIDField(in *structpb.Struct, name string) (kitty.ID, error) {
	value, err := requiredUint(in, name, 32)
	return kitty.ID(value), err
}

func accountField(in *structpb.Struct, name string) (kitty.AccountID, error) {
	value, err := requiredUint(in, name, 64)
	return kitty.AccountID(value), err
}

func balanceField(in *structpb.Struct, name string) (kitty.Balance, error) {
	value, err := requiredUint(in, name, 64)
	return kitty.Balance(value), err
}

func optionalBalanceField(in *structpb.Struct, name string) (*kitty.Balance, error) {
	value, present, err := uintField(in, name, 64)
	if err != nil || !present {
		return nil, err
	}
	balance := kitty.Balance(value)
	return &balance, nil
}

func int32Field(in *structpb.Struct, name string) (int32, error) {
	value, present, err := uintField(in, name, 31)
	if err != nil || !present {
		return 0, err
	}
	return int32(value), nil
}

func stringField(in *structpb.Struct, name string) (string, error) {
	field, ok := in.GetFields()[name]
	if !ok {
		return "", nil
	}
	switch kind := field.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "", nil
	case *structpb.Value_StringValue:
		return strings.TrimSpace(kind.StringValue), nil
	default:
		return "", invalidArgument("%s must be a string", name)
	}
}

func eventFields(evt event.Event) map[string]any {
	return map[string]any{
		"seq":              strconv.FormatUint(evt.Seq, 10),
		"type":             string(evt.Type),
		"timestamp":        evt.Timestamp.UTC().Format(time.RFC3339Nano),
		"actor_id":         evt.ActorID.String(),
		"request_id":       evt.RequestID,
		"kitty_id":         float64(evt.KittyID),
		"payload_json":     string(evt.PayloadJSON),
		"hash":             evt.Hash,
		"prev_hash":        evt.PrevHash,
		"chain_hash":       evt.ChainHash,
		"signature_key_id": evt.SignatureKeyID,
	}
}

func kittyFields(view engine.KittyView) map[string]any {
	fields := map[string]any{
		"kitty_id": float64(view.ID),
		"dna":      view.DNA.String(),
		"owner":    view.Owner.String(),
		"price":    nil,
	}
	if view.Price != nil {
		fields["price"] = view.Price.String()
	}
	return fields
}

func balanceFields(who kitty.AccountID, account currency.Account) map[string]any {
	return map[string]any{
		"account_id": who.String(),
		"free":       account.Free.String(),
		"reserved":   account.Reserved.String(),
	}
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}
