package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeKittyCounterOverflow        = "KITTY_COUNTER_OVERFLOW"
	CodeKittyInvalidID              = "KITTY_INVALID_ID"
	CodeKittyRequireOwner           = "KITTY_REQUIRE_OWNER"
	CodeKittyRequireDifferentParent = "KITTY_REQUIRE_DIFFERENT_PARENT"
	CodeKittyNotForSale             = "KITTY_NOT_FOR_SALE"
	CodeKittyPriceTooLow            = "KITTY_PRICE_TOO_LOW"
	CodeCurrencyInsufficientBalance = "CURRENCY_INSUFFICIENT_BALANCE"
	CodeCurrencyKeepAlive           = "CURRENCY_KEEP_ALIVE"
	CodeCurrencyExistentialDeposit  = "CURRENCY_EXISTENTIAL_DEPOSIT"
	CodeCurrencyOverflow            = "CURRENCY_OVERFLOW"
	CodeCommandInvalid              = "COMMAND_INVALID"
	CodeCallerRequired              = "CALLER_REQUIRED"
	CodeNotFound                    = "NOT_FOUND"
)

var enUSMessages = map[Code]string{
	CodeKittyCounterOverflow:        "No more kitties can be created.",
	CodeKittyInvalidID:              "Kitty {{.KittyID}} does not exist.",
	CodeKittyRequireOwner:           "You do not own kitty {{.KittyID}}.",
	CodeKittyRequireDifferentParent: "A kitty cannot be bred with itself.",
	CodeKittyNotForSale:             "Kitty {{.KittyID}} is not for sale.",
	CodeKittyPriceTooLow:            "Kitty {{.KittyID}} costs {{.Price}}; your offer of {{.Offer}} is too low.",
	CodeCurrencyInsufficientBalance: "Your balance is too low for this operation.",
	CodeCurrencyKeepAlive:           "This payment would leave your account below the minimum balance.",
	CodeCurrencyExistentialDeposit:  "The amount is below the minimum balance for a new account.",
	CodeCurrencyOverflow:            "The resulting balance is too large.",
	CodeCommandInvalid:              "The request is invalid.",
	CodeCallerRequired:              "An account is required for this operation.",
	CodeNotFound:                    "The requested resource was not found.",
}
