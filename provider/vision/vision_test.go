package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trendflow/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
}

func TestDescribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization: %s", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model != visionModel {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if req.ResponseFormat.Type != "json_object" {
			t.Errorf("unexpected response format: %s", req.ResponseFormat.Type)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Fatalf("unexpected message shape: %+v", req.Messages)
		}
		if !strings.HasPrefix(req.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,") {
			t.Errorf("image not encoded as data URL: %s", req.Messages[0].Content[1].ImageURL.URL[:30])
		}

		w.Write([]byte(`{"choices":[{"message":{"content":"{\"exactText\":\"GlowPup\",\"searchTerm\":\"led dog collar\",\"tiktokSearchTerm\":\"led collar\",\"microniche\":\"LED Pet Accessories\",\"adjacentMicroniche\":\"Pet Safety Gear\"}"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	desc, err := c.Describe(context.Background(), []byte{0x89, 0x50, 0x4e, 0x47}, "image/png")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if desc.SearchTerm != "led dog collar" {
		t.Errorf("unexpected search term: %s", desc.SearchTerm)
	}
	if desc.SocialSearchTerm != "led collar" {
		t.Errorf("unexpected social term: %s", desc.SocialSearchTerm)
	}
	if desc.Microniche != "LED Pet Accessories" {
		t.Errorf("unexpected microniche: %s", desc.Microniche)
	}
}

func TestDescribeEmptyImage(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0")
	if _, err := c.Describe(context.Background(), nil, "image/jpeg"); err == nil {
		t.Fatalf("expected error for empty image")
	}
}

func TestDescribeMalformedAnalysis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"not json"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.Describe(context.Background(), []byte{1}, "image/jpeg"); err == nil {
		t.Fatalf("expected error for malformed analysis")
	}
}

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if err := c.Verify(context.Background()); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
}
