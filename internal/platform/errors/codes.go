// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Kitty ledger errors
	CodeKittyCounterOverflow        Code = "KITTY_COUNTER_OVERFLOW"
	CodeKittyInvalidID              Code = "KITTY_INVALID_ID"
	CodeKittyRequireOwner           Code = "KITTY_REQUIRE_OWNER"
	CodeKittyRequireDifferentParent Code = "KITTY_REQUIRE_DIFFERENT_PARENT"
	CodeKittyNotForSale             Code = "KITTY_NOT_FOR_SALE"
	CodeKittyPriceTooLow            Code = "KITTY_PRICE_TOO_LOW"
	CodeCurrencyInsufficientBalance Code = "CURRENCY_INSUFFICIENT_BALANCE"
	CodeCurrencyKeepAlive           Code = "CURRENCY_KEEP_ALIVE"
	CodeCurrencyExistentialDeposit  Code = "CURRENCY_EXISTENTIAL_DEPOSIT"
	CodeCurrencyOverflow            Code = "CURRENCY_OVERFLOW"
	CodeCommandInvalid              Code = "COMMAND_INVALID"
	CodeCallerRequired              Code = "CALLER_REQUIRED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeCommandInvalid,
		CodeKittyRequireDifferentParent:
		return codes.InvalidArgument

	// Unauthenticated - no caller identity
	case CodeCallerRequired:
		return codes.Unauthenticated

	// PermissionDenied - caller does not own the asset
	case CodeKittyRequireOwner:
		return codes.PermissionDenied

	// FailedPrecondition - state doesn't allow operation
	case CodeKittyNotForSale,
		CodeKittyPriceTooLow,
		CodeCurrencyInsufficientBalance,
		CodeCurrencyKeepAlive,
		CodeCurrencyExistentialDeposit:
		return codes.FailedPrecondition

	// ResourceExhausted - identifier space or balance arithmetic exhausted
	case CodeKittyCounterOverflow,
		CodeCurrencyOverflow:
		return codes.ResourceExhausted

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeKittyInvalidID:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
