package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sublytics/sublytics/internal/domain/payment"
	"github.com/sublytics/sublytics/internal/types"
)

// WalletPaymentSeed is one stored wallet charge document, with the wallet
// provider's own field shapes.
type WalletPaymentSeed struct {
	DateCreated       string
	DateApproved      string
	Status            string
	Description       string
	OperationType     string
	TransactionAmount decimal.Decimal
}

// CardPaymentSeed is one stored card charge document. A nil statement
// descriptor mirrors documents where the field is absent.
type CardPaymentSeed struct {
	Created             string
	Status              string
	Currency            string
	Amount              decimal.Decimal
	StatementDescriptor *string
}

// InMemoryPaymentStore implements payment.Repository
type InMemoryPaymentStore struct {
	mu     sync.RWMutex
	wallet []WalletPaymentSeed
	card   []CardPaymentSeed
}

// NewInMemoryPaymentStore creates a new in-memory payment store
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{}
}

func (s *InMemoryPaymentStore) AddWallet(seed WalletPaymentSeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallet = append(s.wallet, seed)
}

func (s *InMemoryPaymentStore) AddCard(seed CardPaymentSeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = append(s.card, seed)
}

// windowDates mirrors the stored-string windowing: ISO timestamps compare
// lexicographically against plain date literals.
func windowDates(window types.DateWindow) (string, string, error) {
	start, end, err := window.Bounds()
	if err != nil {
		return "", "", err
	}
	return start.Format(types.BucketLayoutDay), end.Format(types.BucketLayoutDay), nil
}

func inStringWindow(ts, start, end string) bool {
	return ts >= start && ts < end
}

func (s *InMemoryPaymentStore) ListWalletPayments(ctx context.Context, window types.DateWindow) ([]*payment.Payment, error) {
	start, end, err := windowDates(window)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var payments []*payment.Payment
	for _, seed := range s.wallet {
		if !inStringWindow(seed.DateCreated, start, end) {
			continue
		}
		payments = append(payments, &payment.Payment{
			CreatedAt:     seed.DateCreated,
			ApprovedAt:    seed.DateApproved,
			Amount:        seed.TransactionAmount,
			Status:        seed.Status,
			Description:   seed.Description,
			OperationType: seed.OperationType,
		})
	}
	return payments, nil
}

func (s *InMemoryPaymentStore) WalletApprovedTotal(ctx context.Context, window types.DateWindow) (decimal.Decimal, error) {
	start, end, err := windowDates(window)
	if err != nil {
		return decimal.Zero, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, seed := range s.wallet {
		if seed.Status != payment.StatusApproved {
			continue
		}
		if !inStringWindow(seed.DateApproved, start, end) {
			continue
		}
		total = total.Add(seed.TransactionAmount)
	}
	return total, nil
}

func (s *InMemoryPaymentStore) CardIncomeByCurrency(ctx context.Context, window types.DateWindow) ([]payment.CurrencyTotal, error) {
	start, end, err := windowDates(window)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]decimal.Decimal)
	for _, seed := range s.card {
		if seed.Status != payment.StatusSucceeded {
			continue
		}
		if !inStringWindow(seed.Created, start, end) {
			continue
		}
		totals[seed.Currency] = totals[seed.Currency].Add(seed.Amount)
	}

	out := make([]payment.CurrencyTotal, 0, len(totals))
	for currency, total := range totals {
		out = append(out, payment.CurrencyTotal{Currency: currency, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

func (s *InMemoryPaymentStore) ListCardSubscriptionPayments(ctx context.Context, window types.DateWindow) ([]*payment.Payment, error) {
	return s.listCard(window, true)
}

func (s *InMemoryPaymentStore) ListCardExtraCreditPayments(ctx context.Context, window types.DateWindow) ([]*payment.Payment, error) {
	return s.listCard(window, false)
}

func (s *InMemoryPaymentStore) listCard(window types.DateWindow, withDescriptor bool) ([]*payment.Payment, error) {
	start, end, err := windowDates(window)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var payments []*payment.Payment
	for _, seed := range s.card {
		if seed.Status != payment.StatusSucceeded {
			continue
		}
		if !inStringWindow(seed.Created, start, end) {
			continue
		}
		if (seed.StatementDescriptor != nil) != withDescriptor {
			continue
		}
		p := &payment.Payment{
			CreatedAt: seed.Created,
			Amount:    seed.Amount,
			Currency:  seed.Currency,
			Status:    seed.Status,
		}
		if seed.StatementDescriptor != nil {
			p.StatementDescriptor = *seed.StatementDescriptor
		}
		payments = append(payments, p)
	}
	return payments, nil
}
