package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sublytics/sublytics/internal/types"
)

// Repository reads both providers' payment collections.
type Repository interface {
	// ListWalletPayments returns wallet charges created inside the window.
	ListWalletPayments(ctx context.Context, window types.DateWindow) ([]*Payment, error)
	// WalletApprovedTotal sums approved wallet charge amounts inside the
	// window (in the wallet's local currency).
	WalletApprovedTotal(ctx context.Context, window types.DateWindow) (decimal.Decimal, error)
	// CardIncomeByCurrency sums succeeded card charges per currency inside
	// the window.
	CardIncomeByCurrency(ctx context.Context, window types.DateWindow) ([]CurrencyTotal, error)
	// ListCardSubscriptionPayments returns succeeded card charges that carry
	// a statement descriptor (recurring subscription charges).
	ListCardSubscriptionPayments(ctx context.Context, window types.DateWindow) ([]*Payment, error)
	// ListCardExtraCreditPayments returns succeeded card charges without a
	// statement descriptor (one-off credit top-ups).
	ListCardExtraCreditPayments(ctx context.Context, window types.DateWindow) ([]*Payment, error)
}
