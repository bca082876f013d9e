package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/sublytics/sublytics/internal/config"
	"github.com/sublytics/sublytics/internal/logger"
)

// Result is the outcome of a conversion attempt. When Converted is false the
// Amount and Currency are the original, unconverted values; callers surface
// that visibly instead of presenting mixed currencies as converted.
type Result struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Converted bool            `json:"converted"`
}

// Converter converts monetary amounts between currencies.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) Result
}

type exchangeRateConverter struct {
	client  *retryablehttp.Client
	baseURL string
	apiKey  string
	rates   *gocache.Cache
	logger  *logger.Logger
}

// NewConverter builds a Converter backed by the exchange-rate pair endpoint,
// with a TTL cache so repeated conversions in one dashboard load hit the API
// at most once per currency pair.
func NewConverter(cfg *config.Configuration, log *logger.Logger) Converter {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = log.GetRetryableHTTPLogger()

	ttl := time.Duration(cfg.Cache.RateTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &exchangeRateConverter{
		client:  client,
		baseURL: strings.TrimRight(cfg.ExchangeRate.BaseURL, "/"),
		apiKey:  cfg.ExchangeRate.APIKey,
		rates:   gocache.New(ttl, 2*ttl),
		logger:  log,
	}
}

type pairResponse struct {
	Result         string  `json:"result"`
	ConversionRate float64 `json:"conversion_rate"`
}

// Convert converts amount from one ISO currency to another. Same-currency
// calls are a no-op reported as converted. Lookup failures are logged and the
// original amount comes back with Converted=false; the caller decides how to
// present the unconverted figure.
func (c *exchangeRateConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) Result {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if from == to {
		return Result{Amount: amount, Currency: to, Converted: true}
	}

	rate, err := c.pairRate(ctx, from, to)
	if err != nil {
		c.logger.Warnw("currency conversion failed, returning original amount",
			"from", from, "to", to, "error", err)
		return Result{Amount: amount, Currency: from, Converted: false}
	}

	return Result{Amount: amount.Mul(rate), Currency: to, Converted: true}
}

func (c *exchangeRateConverter) pairRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	cacheKey := from + "/" + to
	if cached, ok := c.rates.Get(cacheKey); ok {
		return cached.(decimal.Decimal), nil
	}

	url := fmt.Sprintf("%s/v6/%s/pair/%s/%s", c.baseURL, c.apiKey, from, to)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("exchange rate lookup returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, err
	}

	var pr pairResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return decimal.Zero, err
	}
	if pr.Result != "success" {
		return decimal.Zero, fmt.Errorf("exchange rate lookup result %q", pr.Result)
	}

	rate := decimal.NewFromFloat(pr.ConversionRate)
	c.rates.SetDefault(cacheKey, rate)
	return rate, nil
}
