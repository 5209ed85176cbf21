package shopsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"trendflow/config"
	"trendflow/logger"
	"trendflow/models"
	"trendflow/provider"
)

const (
	searchEngine   = "google_shopping"
	resultsPerPage = 15
)

// Client queries a Google Shopping search API for product listings on a
// given marketplace.
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

	log.WithComponent("shop_search").WithFields(logger.Fields{
		"base_url": cfg.BaseURL,
	}).Info("shop search client initialized")

	return c
}

// Search fetches shopping listings for the description on the given
// marketplace. The marketplace name is appended to the query so results
// skew towards that platform. At most MaxQuotesPerSource listings are
// returned in result order.
func (c *Client) Search(ctx context.Context, description string, source models.Source) ([]models.RawListing, error) {
	log := c.log.WithComponent("shop_search").WithFields(logger.Fields{
		"source":    string(source),
		"operation": "search",
	})

	query := fmt.Sprintf("%s %s", description, string(source))

	reqURL, err := url.Parse(c.cfg.BaseURL + "/search.json")
	if err != nil {
		return nil, fmt.Errorf("invalid shop search URL: %w", err)
	}
	q := reqURL.Query()
	q.Set("api_key", c.cfg.APIKey)
	q.Set("engine", searchEngine)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(resultsPerPage))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("shop search request failed")
		return nil, fmt.Errorf("shop search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		log.WithFields(logger.Fields{"status": res.StatusCode}).Warn("shop search returned non-OK status")
		return nil, fmt.Errorf("shop search returned status %d", res.StatusCode)
	}

	var resp struct {
		ShoppingResults []struct {
			Title  string `json:"title"`
			Price  string `json:"price"`
			Source string `json:"source"`
		} `json:"shopping_results"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode shop search response: %w", err)
	}

	listings := make([]models.RawListing, 0, models.MaxQuotesPerSource)
	for _, item := range resp.ShoppingResults {
		if len(listings) >= models.MaxQuotesPerSource {
			break
		}
		listings = append(listings, models.RawListing{
			Title:     item.Title,
			PriceText: item.Price,
			Source:    source,
		})
	}

	logger.IncrementShopFetch(len(listings))
	log.WithFields(logger.Fields{"results": len(listings)}).Info("shop search completed")

	return listings, nil
}

// Verify performs a lightweight account lookup to confirm the API key is
// usable before the service starts accepting work.
func (c *Client) Verify(ctx context.Context) error {
	reqURL, err := url.Parse(c.cfg.BaseURL + "/account.json")
	if err != nil {
		return fmt.Errorf("invalid shop search URL: %w", err)
	}
	q := reqURL.Query()
	q.Set("api_key", c.cfg.APIKey)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("shop search verification failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("shop search verification returned status %d", res.StatusCode)
	}
	return nil
}
