package types

import "strings"

// SubscriptionStatus is the raw status string as stored by the providers.
// The card provider reports "active" subscriptions while the wallet provider
// reports "authorized" ones; both mean a currently paying subscriber.
type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusAuthorized SubscriptionStatus = "authorized"
	SubscriptionStatusPaused     SubscriptionStatus = "paused"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid     SubscriptionStatus = "unpaid"
	SubscriptionStatusCancelled  SubscriptionStatus = "cancelled"
)

// CanonicalStatus unifies provider specific status values into a single enum.
type CanonicalStatus string

const (
	CanonicalStatusActive     CanonicalStatus = "active"
	CanonicalStatusPaused     CanonicalStatus = "paused"
	CanonicalStatusIncomplete CanonicalStatus = "incomplete"
	CanonicalStatusPastDue    CanonicalStatus = "past_due"
	CanonicalStatusUnpaid     CanonicalStatus = "unpaid"
	CanonicalStatusCancelled  CanonicalStatus = "cancelled"
	CanonicalStatusUnknown    CanonicalStatus = "unknown"
)

// ParseSubscriptionStatus normalizes raw status spellings. The card provider
// writes "canceled" while the wallet provider writes "cancelled"; both map to
// SubscriptionStatusCancelled.
func ParseSubscriptionStatus(raw string) SubscriptionStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "canceled" {
		return SubscriptionStatusCancelled
	}
	return SubscriptionStatus(s)
}

// Canonical maps a raw provider status onto the canonical enum.
func (s SubscriptionStatus) Canonical() CanonicalStatus {
	switch ParseSubscriptionStatus(string(s)) {
	case SubscriptionStatusActive, SubscriptionStatusAuthorized:
		return CanonicalStatusActive
	case SubscriptionStatusPaused:
		return CanonicalStatusPaused
	case SubscriptionStatusIncomplete:
		return CanonicalStatusIncomplete
	case SubscriptionStatusPastDue:
		return CanonicalStatusPastDue
	case SubscriptionStatusUnpaid:
		return CanonicalStatusUnpaid
	case SubscriptionStatusCancelled:
		return CanonicalStatusCancelled
	default:
		return CanonicalStatusUnknown
	}
}

// ActiveStatuses returns the raw status values that mean "currently active"
// regardless of provider. Callers should use this instead of repeating the
// ["active", "authorized"] pair.
func ActiveStatuses() []string {
	return []string{
		string(SubscriptionStatusActive),
		string(SubscriptionStatusAuthorized),
	}
}

// InactiveStatuses returns the raw status values for subscriptions that are
// neither active nor cancelled.
func InactiveStatuses() []string {
	return []string{
		string(SubscriptionStatusPaused),
		string(SubscriptionStatusIncomplete),
		string(SubscriptionStatusPastDue),
	}
}

// Provider identifies the payment provider of a subscription record.
type Provider string

const (
	// ProviderCard is the card payment processor (event-log based tracking).
	ProviderCard Provider = "stripe"
	// ProviderWallet is the regional wallet processor (current-state tracking).
	// Records stored without a provider belong to it.
	ProviderWallet Provider = "mp"
	// ProviderWalletDiscount marks one-off discounted three month purchases.
	ProviderWalletDiscount Provider = "mp_discount"
	// ProviderFree marks complimentary subscriptions.
	ProviderFree Provider = "free"
	// ProviderManual marks subscriptions granted by hand.
	ProviderManual Provider = "manual"
)

// WalletSideProviders returns every provider tag that is settled on the
// wallet side rather than through the card processor.
func WalletSideProviders() []string {
	return []string{
		string(ProviderWallet),
		string(ProviderWalletDiscount),
		string(ProviderFree),
		string(ProviderManual),
	}
}

// SourceTelegram is the messaging-bot channel tag. Records from this channel
// carry bot identifiers instead of phone numbers, so country resolution short
// circuits to the channel name.
const SourceTelegram = "t"
