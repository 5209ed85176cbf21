package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"trendflow/config"
	"trendflow/logger"
	"trendflow/models"
	"trendflow/provider"
)

const (
	visionModel = "gpt-4o"
	maxTokens   = 1000
	temperature = 0.3
)

const analysisPrompt = "You are a product analysis expert. Analyze this product image and provide the following information in JSON format:\n" +
	"1. Extract the exact text visible in the image\n" +
	"2. Based on the text and visual analysis, provide two search terms:\n" +
	"   - Provide a smart search term that captures what the product actually is. This should be a concise, clear description that would work well for both product searches and social media engagement analysis.\n" +
	"   - A condensed search term for TikTok (3 words max, space separated, no hashtags or hyphens, focusing on the core product identity)\n" +
	"3. Identify the category this product belongs to (be specific, e.g., \"Cordless Garden Tools\" not just \"Garden Tools\")\n" +
	"4. Identify an adjacent niche category that would be relevant for cross-selling\n\n" +
	"Format the response as a JSON object with these keys: exactText, searchTerm, tiktokSearchTerm, microniche, adjacentMicroniche"

// Client sends product images to a vision-capable chat completion API and
// extracts a structured product description.
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

	log.WithComponent("vision").WithFields(logger.Fields{
		"base_url": cfg.BaseURL,
		"model":    visionModel,
	}).Info("vision client initialized")

	return c
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// Describe analyzes a product image and returns the extracted description.
// The mimeType must match the encoded image data, e.g. "image/jpeg".
func (c *Client) Describe(ctx context.Context, image []byte, mimeType string) (*models.ProductDescription, error) {
	log := c.log.WithComponent("vision").WithFields(logger.Fields{
		"operation": "describe",
	})

	if len(image) == 0 {
		return nil, fmt.Errorf("image data is empty")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	payload := chatRequest{
		Model: visionModel,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: analysisPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			},
		}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	payload.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("vision request failed")
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		log.WithFields(logger.Fields{"status": res.StatusCode}).Warn("vision returned non-OK status")
		return nil, fmt.Errorf("vision returned status %d", res.StatusCode)
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode vision response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("vision response contained no choices")
	}

	var desc models.ProductDescription
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &desc); err != nil {
		return nil, fmt.Errorf("failed to parse vision analysis: %w", err)
	}

	if desc.SearchTerm == "" {
		return nil, provider.ErrNotFound
	}

	log.WithFields(logger.Fields{
		"search_term":  desc.SearchTerm,
		"social_query": desc.SocialSearchTerm,
		"microniche":   desc.Microniche,
	}).Info("product description extracted")

	return &desc, nil
}

// Verify checks that the configured credentials can list models before the
// service starts accepting work.
func (c *Client) Verify(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("vision verification failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("vision verification returned status %d", res.StatusCode)
	}
	return nil
}
