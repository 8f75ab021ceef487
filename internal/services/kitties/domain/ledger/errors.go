package ledger

import (
	"strconv"

	apperrors "github.com/louisbranch/kitties/internal/platform/errors"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
)

var (
	// ErrInvalidKittyID indicates the kitty does not exist.
	ErrInvalidKittyID = apperrors.New(apperrors.CodeKittyInvalidID, "invalid kitty id")
	// ErrRequireOwner indicates the caller does not own the kitty.
	ErrRequireOwner = apperrors.New(apperrors.CodeKittyRequireOwner, "caller is not the kitty owner")
	// ErrRequireDifferentParent indicates a kitty was bred with itself.
	ErrRequireDifferentParent = apperrors.New(apperrors.CodeKittyRequireDifferentParent, "parents must differ")
	// ErrNotForSale indicates the kitty has no listing.
	ErrNotForSale = apperrors.New(apperrors.CodeKittyNotForSale, "kitty is not for sale")
	// ErrPriceTooLow indicates the offer is below the asking price.
	ErrPriceTooLow = apperrors.New(apperrors.CodeKittyPriceTooLow, "offer is below the asking price")
)

// kittyError returns err's code and message with the kitty id attached for
// localized rendering.
func kittyError(err *apperrors.Error, id kitty.ID) error {
	return apperrors.WithMetadata(err.Code, err.Message, map[string]string{
		"KittyID": id.String(),
	})
}

func priceTooLow(id kitty.ID, price, offer kitty.Balance) error {
	return apperrors.WithMetadata(ErrPriceTooLow.Code, ErrPriceTooLow.Message, map[string]string{
		"KittyID": id.String(),
		"Price":   strconv.FormatUint(uint64(price), 10),
		"Offer":   strconv.FormatUint(uint64(offer), 10),
	})
}
