package normalize

import (
	ierr "github.com/sublytics/sublytics/internal/errors"

	"github.com/sublytics/sublytics/internal/country"
	"github.com/sublytics/sublytics/internal/domain/subscription"
	"github.com/sublytics/sublytics/internal/types"
)

// FillDefaultProvider sets the wallet provider tag on records whose provider
// value is missing. Wallet subscriptions were historically written without a
// provider field, so an empty value means "wallet", not "unknown".
//
// A batch whose query did not project the provider field at all is a schema
// mismatch that defaults cannot paper over; that is a hard error.
func FillDefaultProvider(batch *subscription.Batch) error {
	if !batch.HasColumn("provider") {
		return ierr.NewError("provider field missing from batch").
			WithHint("the source query must project the provider field").
			Mark(ierr.ErrValidation)
	}
	for _, record := range batch.Records {
		if record.Provider == "" {
			record.Provider = string(types.ProviderWallet)
		}
	}
	return nil
}

// AssignCountries derives the country for every record in place.
func AssignCountries(batch *subscription.Batch, resolver *country.Resolver) {
	for _, record := range batch.Records {
		record.Country = resolver.Resolve(record.AccountID, record.Source)
	}
	if batch.Columns == nil {
		batch.Columns = map[string]bool{}
	}
	batch.Columns["country"] = true
}
