package country

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/sublytics/sublytics/internal/logger"
	"github.com/sublytics/sublytics/internal/types"
)

const (
	// Telegram is returned for records from the messaging-bot channel,
	// whose account identifiers are not phone numbers.
	Telegram = "Telegram"
	// InvalidNumber is the fallback for identifiers that cannot be parsed
	// as a phone number or whose region is unknown.
	InvalidNumber = "Invalid number"
	// ProductLineGo tags onboarding rows that belong to the second product
	// line rather than to a country.
	ProductLineGo = "ScribeGo"
)

// Resolver derives a display country name from account identifiers. It is
// total: every input resolves to a country name or a designated fallback,
// never an error.
type Resolver struct {
	logger *logger.Logger
}

func NewResolver(log *logger.Logger) *Resolver {
	return &Resolver{logger: log}
}

// Resolve maps an account identifier and its source channel to a country
// name. The messaging channel bypasses phone parsing entirely.
func (r *Resolver) Resolve(accountID, source string) string {
	if source == types.SourceTelegram {
		return Telegram
	}
	return r.fromPhone(accountID)
}

// ResolveReference maps an onboarding-table client reference onto a country
// or product tag. References are prefixed: "u" for the second product line,
// "t" for the messaging channel, "w" for a phone-backed account.
func (r *Resolver) ResolveReference(clientReferenceID string) string {
	switch {
	case strings.HasPrefix(clientReferenceID, "u"):
		return ProductLineGo
	case strings.HasPrefix(clientReferenceID, "t"):
		return Telegram
	case strings.HasPrefix(clientReferenceID, "w"):
		return r.fromPhone(clientReferenceID[1:])
	default:
		return InvalidNumber
	}
}

func (r *Resolver) fromPhone(accountID string) string {
	phone := strings.TrimSpace(accountID)
	if phone == "" {
		return InvalidNumber
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	parsed, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return InvalidNumber
	}

	regionCode := phonenumbers.GetRegionCodeForNumber(parsed)
	if regionCode == "" || regionCode == "ZZ" {
		return InvalidNumber
	}

	region, err := language.ParseRegion(regionCode)
	if err != nil {
		r.logger.Debugw("unknown phone region", "region", regionCode)
		return InvalidNumber
	}

	name := display.English.Regions().Name(region)
	if name == "" {
		return InvalidNumber
	}

	// Locale qualified names like "Bolivia, Plurinational State of" are
	// truncated to the part before the comma.
	if idx := strings.Index(name, ","); idx >= 0 {
		name = name[:idx]
	}
	return name
}
