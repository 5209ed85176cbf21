package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"trendflow/config"
	"trendflow/logger"
	"trendflow/models"
	"trendflow/provider"
)

const (
	actorID  = "piotrv1001~aliexpress-listings-scraper"
	maxItems = 10
)

// Client runs a marketplace listings actor and collects per-listing order
// counters.
type Client struct {
	cfg    config.ProviderConfig
	client *http.Client
	log    *logger.Log
}

func NewClient(cfg config.ProviderConfig) *Client {
	log := logger.GetLogger()

	c := &Client{
		cfg:    cfg,
		client: provider.NewHTTPClient(cfg.Timeout),
		log:    log,
	}

	log.WithComponent("orders").WithFields(logger.Fields{
		"base_url": cfg.BaseURL,
		"actor":    actorID,
	}).Info("orders client initialized")

	return c
}

// Fetch runs the listings actor synchronously for the search term and
// returns the raw order counters of the top listings.
func (c *Client) Fetch(ctx context.Context, searchTerm string) ([]models.RawOrderListing, error) {
	log := c.log.WithComponent("orders").WithFields(logger.Fields{
		"operation": "fetch",
	})

	reqURL, err := url.Parse(fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items", c.cfg.BaseURL, actorID))
	if err != nil {
		return nil, fmt.Errorf("invalid orders URL: %w", err)
	}
	q := reqURL.Query()
	q.Set("token", c.cfg.APIKey)
	reqURL.RawQuery = q.Encode()

	searchURL := fmt.Sprintf("https://www.aliexpress.us/w/wholesale-%s.html", url.QueryEscape(searchTerm))
	body, err := json.Marshal(map[string]interface{}{
		"searchUrls": []string{searchURL},
		"maxItems":   maxItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode actor input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("orders request failed")
		return nil, fmt.Errorf("orders request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, provider.ErrNotFound
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		log.WithFields(logger.Fields{"status": res.StatusCode}).Warn("orders actor returned non-OK status")
		return nil, fmt.Errorf("orders actor returned status %d", res.StatusCode)
	}

	var items []struct {
		Title     string `json:"title"`
		TotalSold string `json:"totalSold"`
	}
	if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode orders response: %w", err)
	}

	listings := make([]models.RawOrderListing, 0, len(items))
	for _, item := range items {
		listings = append(listings, models.RawOrderListing{
			Title:      item.Title,
			OrdersText: item.TotalSold,
		})
	}

	logger.IncrementOrderFetch(len(listings))
	log.WithFields(logger.Fields{"listings": len(listings)}).Info("order listings fetched")

	return listings, nil
}

// Verify checks the API token against the account endpoint without running
// the actor.
func (c *Client) Verify(ctx context.Context) error {
	reqURL, err := url.Parse(c.cfg.BaseURL + "/v2/users/me")
	if err != nil {
		return fmt.Errorf("invalid orders URL: %w", err)
	}
	q := reqURL.Query()
	q.Set("token", c.cfg.APIKey)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("orders verification failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("orders verification returned status %d", res.StatusCode)
	}
	return nil
}
