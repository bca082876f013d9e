package currency

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"

	"github.com/sublytics/sublytics/internal/config"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/logger"
)

// DollarRateProvider returns the official ARS/USD sell rate.
type DollarRateProvider interface {
	OfficialDollarRate(ctx context.Context) (decimal.Decimal, error)
}

type dollarAPIClient struct {
	client  *retryablehttp.Client
	baseURL string
	logger  *logger.Logger
}

// NewDollarRateProvider builds a DollarRateProvider backed by the public
// dollar-quotes API. Failures are returned as errors rather than defaulted:
// wallet income figures are wrong with a stale rate, so the caller must fall
// back to a manually supplied one.
func NewDollarRateProvider(cfg *config.Configuration, log *logger.Logger) DollarRateProvider {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = log.GetRetryableHTTPLogger()

	return &dollarAPIClient{
		client:  client,
		baseURL: strings.TrimRight(cfg.Dollar.BaseURL, "/"),
		logger:  log,
	}
}

type officialQuote struct {
	Venta float64 `json:"venta"`
}

func (c *dollarAPIClient) OfficialDollarRate(ctx context.Context) (decimal.Decimal, error) {
	url := c.baseURL + "/v1/dolares/oficial"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("failed to build dollar rate request").
			Mark(ierr.ErrSystem)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("dollar rate service unreachable, supply the rate manually").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, ierr.NewErrorf("dollar rate lookup returned status %d", resp.StatusCode).
			WithHint("dollar rate service unreachable, supply the rate manually").
			Mark(ierr.ErrHTTPClient)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}

	var quote officialQuote
	if err := json.Unmarshal(body, &quote); err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("dollar rate response has an unexpected shape").
			Mark(ierr.ErrHTTPClient)
	}
	if quote.Venta <= 0 {
		return decimal.Zero, ierr.NewError("dollar rate response has no sell quote").
			Mark(ierr.ErrHTTPClient)
	}

	return decimal.NewFromFloat(quote.Venta), nil
}
