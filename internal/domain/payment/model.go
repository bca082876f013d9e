package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Payment is one charge event from either provider's payment collection.
// Wallet payments carry date_created/date_approved and transaction_amount;
// card payments carry created/amount. The repository maps both shapes onto
// this struct.
type Payment struct {
	CreatedAt           string          `bson:"created" json:"created"`
	ApprovedAt          string          `bson:"date_approved" json:"date_approved"`
	Amount              decimal.Decimal `bson:"amount" json:"amount"`
	Currency            string          `bson:"currency" json:"currency"`
	Status              string          `bson:"status" json:"status"`
	Description         string          `bson:"description" json:"description"`
	OperationType       string          `bson:"operation_type" json:"operation_type"`
	StatementDescriptor string          `bson:"statement_descriptor" json:"statement_descriptor"`
}

// Payment status literals as stored by each provider.
const (
	StatusApproved  = "approved"  // wallet provider
	StatusSucceeded = "succeeded" // card provider
)

// CurrencyTotal is a per-currency aggregate amount.
type CurrencyTotal struct {
	Currency string          `bson:"currency" json:"currency"`
	Total    decimal.Decimal `bson:"total" json:"total"`
}

// Category buckets a payment by what it paid for.
type Category string

const (
	CategorySubscription Category = "subscription"
	CategoryDiscount     Category = "three_month_discount"
	CategoryTokenTopUp   Category = "token_topup"
	CategoryMinuteTopUp  Category = "minute_topup"
	CategoryOther        Category = "other"
)

// descriptionRule is one step of the description classification cascade.
type descriptionRule struct {
	match    func(string) bool
	category Category
}

func containsAny(substrings ...string) func(string) bool {
	return func(s string) bool {
		for _, sub := range substrings {
			if strings.Contains(s, sub) {
				return true
			}
		}
		return false
	}
}

// descriptionRules is evaluated in order, first match wins. Keeping the
// cascade as a plain ordered slice makes the precedence auditable.
var descriptionRules = []descriptionRule{
	{containsAny("3 meses", "tres meses", "three month"), CategoryDiscount},
	{containsAny("suscripcion", "suscripción", "subscription", "plus"), CategorySubscription},
	{containsAny("token"), CategoryTokenTopUp},
	{containsAny("minuto", "minute"), CategoryMinuteTopUp},
}

// ClassifyDescription maps a free-text payment description onto a category.
// It is total: every string maps to exactly one category, with CategoryOther
// as the fallback bucket.
func ClassifyDescription(description string) Category {
	d := strings.ToLower(strings.TrimSpace(description))
	for _, rule := range descriptionRules {
		if rule.match(d) {
			return rule.category
		}
	}
	return CategoryOther
}

// planAmounts maps exact card-provider charge amounts to plan labels. The
// stored charges have no plan field, so the amount is the only signal.
var planAmounts = map[string]string{
	"1.5":   "Plan Basic",
	"30":    "Plan Plus",
	"100":   "Plan Business",
	"3.38":  "Plus RoW",
	"2.42":  "Telegram",
	"5.32":  "Plus US / ESP",
	"27.55": "Plus RoW Anual",
	"42.56": "Plus US / ESP Anual",
}

// PlanLabelForAmount maps a charge amount to its plan label, falling back to
// "Recarga" for top-ups and any amount that matches no plan.
func PlanLabelForAmount(amount decimal.Decimal) string {
	if label, ok := planAmounts[amount.String()]; ok {
		return label
	}
	return "Recarga"
}
