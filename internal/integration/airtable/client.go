package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/sublytics/sublytics/internal/config"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/logger"
)

// OnboardingRecord is one row of the onboarding spreadsheet table: a checkout
// session that expired, plus whatever followup happened to it.
type OnboardingRecord struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerEmail     string `json:"customer_email"`
	CustomerID        string `json:"customer_id"`
	Status            string `json:"status"`
	CreatedAt         string `json:"created_at"`
}

// Onboarding record status values written by the followup automation.
const (
	StatusExpired    = "expired"
	StatusEmailed    = "emailed"
	StatusSubscribed = "subscribed"
)

// AirtableClient reads the onboarding table.
type AirtableClient interface {
	ListOnboardingRecords(ctx context.Context) ([]*OnboardingRecord, error)
}

// Client handles spreadsheet-table API access.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	token      string
	baseID     string
	tableID    string
	logger     *logger.Logger
}

// NewClient creates a new onboarding table client.
func NewClient(cfg *config.Configuration, log *logger.Logger) AirtableClient {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.HTTPClient.Timeout = 30 * time.Second
	httpClient.Logger = log.GetRetryableHTTPLogger()

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.Airtable.BaseURL, "/"),
		token:      cfg.Airtable.Token,
		baseID:     cfg.Airtable.BaseID,
		tableID:    cfg.Airtable.TableID,
		logger:     log,
	}
}

type listResponse struct {
	Records []struct {
		ID     string `json:"id"`
		Fields struct {
			ClientReferenceID string `json:"client_reference_id"`
			CustomerEmail     string `json:"customer_email"`
			CustomerID        string `json:"customer_id"`
			Status            string `json:"status"`
			CreatedAt         string `json:"created_at"`
		} `json:"fields"`
	} `json:"records"`
	Offset string `json:"offset"`
}

// ListOnboardingRecords pages through the whole onboarding table. The API
// returns at most 100 records per page with an opaque continuation offset.
func (c *Client) ListOnboardingRecords(ctx context.Context) ([]*OnboardingRecord, error) {
	if c.token == "" {
		return nil, ierr.NewError("onboarding table token not configured").
			WithHint("set the airtable token to enable the funnel tab").
			Mark(ierr.ErrValidation)
	}

	var records []*OnboardingRecord
	offset := ""
	for {
		page, err := c.listPage(ctx, offset)
		if err != nil {
			return nil, err
		}

		for _, raw := range page.Records {
			records = append(records, &OnboardingRecord{
				ID:                raw.ID,
				ClientReferenceID: raw.Fields.ClientReferenceID,
				CustomerEmail:     raw.Fields.CustomerEmail,
				CustomerID:        raw.Fields.CustomerID,
				Status:            raw.Fields.Status,
				CreatedAt:         raw.Fields.CreatedAt,
			})
		}

		if page.Offset == "" {
			break
		}
		offset = page.Offset
	}

	c.logger.Infow("fetched onboarding records", "count", len(records))
	return records, nil
}

func (c *Client) listPage(ctx context.Context, offset string) (*listResponse, error) {
	endpoint := fmt.Sprintf("%s/v0/%s/%s", c.baseURL, c.baseID, c.tableID)
	if offset != "" {
		endpoint += "?offset=" + url.QueryEscape(offset)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorw("failed to fetch onboarding records", "error", err)
		return nil, ierr.WithError(err).
			WithHint("onboarding table service unreachable").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, ierr.NewErrorf("onboarding table returned status %d", resp.StatusCode).
			WithHint("check the onboarding table token and identifiers").
			Mark(ierr.ErrHTTPClient)
	}

	var page listResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, ierr.WithError(err).
			WithHint("onboarding table response has an unexpected shape").
			Mark(ierr.ErrHTTPClient)
	}
	return &page, nil
}
