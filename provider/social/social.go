package social

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

const apiKeyHeader = "X-API-KEY"

// HashtagPostCount is the maximum post count the hashtag lookup endpoint
// serves per request.
const HashtagPostCount = 30

// Page is one page of search results together with the cursor for the next
// page. An empty cursor means the result set is exhausted.
type Page struct {
	Posts      []models.RawPost
	NextCursor string
}

// Client fetches short-video posts and their engagement counters from a
// social search API.
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

	log.WithComponent("social").WithFields(logger.Fields{
		"base_url": cfg.BaseURL,
	}).Info("social client initialized")

	return c
}

type postItem struct {
	Item struct {
		ID         string `json:"id"`
		CreateTime int64  `json:"createTime"`
		Author     struct {
			UniqueID string `json:"uniqueId"`
		} `json:"author"`
		Stats struct {
			DiggCount    int64 `json:"diggCount"`
			CommentCount int64 `json:"commentCount"`
			ShareCount   int64 `json:"shareCount"`
		} `json:"stats"`
	} `json:"item"`
}

func (p postItem) toRawPost() models.RawPost {
	return models.RawPost{
		PostID:         p.Item.ID,
		Author:         p.Item.Author.UniqueID,
		CreatedAtEpoch: p.Item.CreateTime,
		Likes:          p.Item.Stats.DiggCount,
		Comments:       p.Item.Stats.CommentCount,
		Shares:         p.Item.Stats.ShareCount,
	}
}

// SearchPage fetches one page of general search results for the query. The
// cursor comes from the previous page; pass an empty string for the first
// page.
func (c *Client) SearchPage(ctx context.Context, query, cursor string, count int) (*Page, error) {
	log := c.log.WithComponent("social").WithFields(logger.Fields{
		"operation": "search_page",
	})

	reqURL, err := url.Parse(c.cfg.BaseURL + "/public/search/general")
	if err != nil {
		return nil, fmt.Errorf("invalid social search URL: %w", err)
	}
	q := reqURL.Query()
	q.Set("query", query)
	q.Set("count", strconv.Itoa(count))
	if cursor != "" {
		q.Set("nextCursor", cursor)
	}
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)

	res, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("social search request failed")
		return nil, fmt.Errorf("social search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		log.WithFields(logger.Fields{"status": res.StatusCode}).Warn("social search returned non-OK status")
		return nil, fmt.Errorf("social search returned status %d", res.StatusCode)
	}

	var resp struct {
		Data       []postItem `json:"data"`
		ItemList   []postItem `json:"itemList"`
		NextCursor string     `json:"nextCursor"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode social search response: %w", err)
	}

	items := resp.Data
	if len(items) == 0 {
		items = resp.ItemList
	}

	posts := make([]models.RawPost, 0, len(items))
	for _, item := range items {
		posts = append(posts, item.toRawPost())
	}

	logger.IncrementSocialPage(len(posts))

	return &Page{Posts: posts, NextCursor: resp.NextCursor}, nil
}

// HashtagID resolves a hashtag name to its internal identifier. When the
// service has no hashtag for the name it returns provider.ErrNotFound.
func (c *Client) HashtagID(ctx context.Context, name string) (string, error) {
	log := c.log.WithComponent("social").WithFields(logger.Fields{
		"operation": "hashtag_id",
	})

	reqURL, err := url.Parse(c.cfg.BaseURL + "/public/hashtag")
	if err != nil {
		return "", fmt.Errorf("invalid hashtag URL: %w", err)
	}
	q := reqURL.Query()
	q.Set("name", name)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)

	res, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("hashtag lookup request failed")
		return "", fmt.Errorf("hashtag lookup request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return "", provider.ErrNotFound
	}
	if res.StatusCode != http.StatusOK {
		log.WithFields(logger.Fields{"status": res.StatusCode}).Warn("hashtag lookup returned non-OK status")
		return "", fmt.Errorf("hashtag lookup returned status %d", res.StatusCode)
	}

	var resp struct {
		ChallengeInfo struct {
			Challenge struct {
				ID string `json:"id"`
			} `json:"challenge"`
		} `json:"challengeInfo"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("failed to decode hashtag response: %w", err)
	}

	if resp.ChallengeInfo.Challenge.ID == "" {
		return "", provider.ErrNotFound
	}
	return resp.ChallengeInfo.Challenge.ID, nil
}

// HashtagPosts fetches posts tagged with the hashtag identifier. The
// endpoint caps results at HashtagPostCount per request.
func (c *Client) HashtagPosts(ctx context.Context, id string) ([]models.RawPost, error) {
	log := c.log.WithComponent("social").WithFields(logger.Fields{
		"operation": "hashtag_posts",
	})

	reqURL, err := url.Parse(c.cfg.BaseURL + "/public/hashtag")
	if err != nil {
		return nil, fmt.Errorf("invalid hashtag URL: %w", err)
	}
	q := reqURL.Query()
	q.Set("id", id)
	q.Set("count", strconv.Itoa(HashtagPostCount))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)

	res, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("hashtag posts request failed")
		return nil, fmt.Errorf("hashtag posts request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, provider.ErrNotFound
	}
	if res.StatusCode != http.StatusOK {
		log.WithFields(logger.Fields{"status": res.StatusCode}).Warn("hashtag posts returned non-OK status")
		return nil, fmt.Errorf("hashtag posts returned status %d", res.StatusCode)
	}

	var resp struct {
		ItemList []struct {
			ID         string `json:"id"`
			CreateTime int64  `json:"createTime"`
			Author     struct {
				UniqueID string `json:"uniqueId"`
			} `json:"author"`
			Stats struct {
				DiggCount    int64 `json:"diggCount"`
				CommentCount int64 `json:"commentCount"`
				ShareCount   int64 `json:"shareCount"`
			} `json:"stats"`
		} `json:"itemList"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode hashtag posts response: %w", err)
	}

	posts := make([]models.RawPost, 0, len(resp.ItemList))
	for _, item := range resp.ItemList {
		posts = append(posts, models.RawPost{
			PostID:         item.ID,
			Author:         item.Author.UniqueID,
			CreatedAtEpoch: item.CreateTime,
			Likes:          item.Stats.DiggCount,
			Comments:       item.Stats.CommentCount,
			Shares:         item.Stats.ShareCount,
		})
	}

	logger.IncrementSocialPage(len(posts))

	return posts, nil
}

// Verify confirms the API key is usable before the service starts
// accepting work.
func (c *Client) Verify(ctx context.Context) error {
	reqURL, err := url.Parse(c.cfg.BaseURL + "/public/check")
	if err != nil {
		return fmt.Errorf("invalid social URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("social verification failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("social verification returned status %d", res.StatusCode)
	}
	return nil
}
