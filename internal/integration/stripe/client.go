package stripe

import (
	"context"
	"time"

	stripesdk "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/sublytics/sublytics/internal/config"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/logger"
)

// CardProviderClient answers subscription questions against the card
// provider's live API. The funnel needs it because the onboarding table only
// records that a session expired, not whether the customer came back later.
type CardProviderClient interface {
	// HasActiveSubscriptionSince reports whether the customer holds an
	// active subscription created at or after the given instant.
	HasActiveSubscriptionSince(ctx context.Context, customerID string, since time.Time) (bool, error)
}

// Client wraps the card provider SDK.
type Client struct {
	api    *client.API
	logger *logger.Logger
}

// NewClient creates a card provider API client.
func NewClient(cfg *config.Configuration, log *logger.Logger) CardProviderClient {
	api := &client.API{}
	api.Init(cfg.Stripe.APIKey, nil)
	return &Client{api: api, logger: log}
}

func (c *Client) HasActiveSubscriptionSince(ctx context.Context, customerID string, since time.Time) (bool, error) {
	if customerID == "" {
		return false, nil
	}

	params := &stripesdk.SubscriptionListParams{
		Customer: stripesdk.String(customerID),
		Status:   stripesdk.String(string(stripesdk.SubscriptionStatusActive)),
	}
	params.Context = ctx
	params.CreatedRange = &stripesdk.RangeQueryParams{GreaterThanOrEqual: since.Unix()}

	iter := c.api.Subscriptions.List(params)
	for iter.Next() {
		return true, nil
	}
	if err := iter.Err(); err != nil {
		c.logger.Errorw("failed to list card provider subscriptions",
			"customer_id", customerID, "error", err)
		return false, ierr.WithError(err).
			WithHint("card provider API unreachable").
			Mark(ierr.ErrHTTPClient)
	}
	return false, nil
}
