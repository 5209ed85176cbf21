package social

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trendflow/config"
	"trendflow/provider"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
}

func TestSearchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(apiKeyHeader); got != "test-key" {
			t.Errorf("missing api key header: %s", got)
		}
		if got := r.URL.Query().Get("query"); got != "dog collar" {
			t.Errorf("unexpected query: %s", got)
		}
		w.Write([]byte(`{
			"data": [
				{"item":{"id":"1","createTime":1713430000,"author":{"uniqueId":"u1"},"stats":{"diggCount":10,"commentCount":2,"shareCount":1}}},
				{"item":{"id":"2","createTime":1713440000,"author":{"uniqueId":"u2"},"stats":{"diggCount":5,"commentCount":0,"shareCount":0}}}
			],
			"nextCursor": "abc"
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	page, err := c.SearchPage(context.Background(), "dog collar", "", 30)
	if err != nil {
		t.Fatalf("SearchPage failed: %v", err)
	}
	if len(page.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(page.Posts))
	}
	if page.NextCursor != "abc" {
		t.Errorf("unexpected cursor: %s", page.NextCursor)
	}
	if page.Posts[0].Likes != 10 || page.Posts[0].Comments != 2 || page.Posts[0].Shares != 1 {
		t.Errorf("unexpected counters: %+v", page.Posts[0])
	}
	if page.Posts[0].CreatedAtEpoch != 1713430000 {
		t.Errorf("unexpected epoch: %d", page.Posts[0].CreatedAtEpoch)
	}
}

func TestSearchPageSendsCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("nextCursor"); got != "cur-1" {
			t.Errorf("cursor not forwarded: %s", got)
		}
		w.Write([]byte(`{"data":[],"nextCursor":""}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	page, err := c.SearchPage(context.Background(), "q", "cur-1", 30)
	if err != nil {
		t.Fatalf("SearchPage failed: %v", err)
	}
	if len(page.Posts) != 0 || page.NextCursor != "" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestHashtagIDNotFoundStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.HashtagID(context.Background(), "nosuchtag"); !errors.Is(err, provider.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHashtagIDMissingChallenge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"challengeInfo":{}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.HashtagID(context.Background(), "emptytag"); !errors.Is(err, provider.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHashtagPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "12345" {
			t.Errorf("unexpected id: %s", got)
		}
		if got := r.URL.Query().Get("count"); got != "30" {
			t.Errorf("unexpected count: %s", got)
		}
		w.Write([]byte(`{"itemList":[
			{"id":"9","createTime":1713430000,"author":{"uniqueId":"u9"},"stats":{"diggCount":7,"commentCount":3,"shareCount":2}}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	posts, err := c.HashtagPosts(context.Background(), "12345")
	if err != nil {
		t.Fatalf("HashtagPosts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if posts[0].TotalEngagement() != 12 {
		t.Errorf("unexpected engagement: %d", posts[0].TotalEngagement())
	}
}

func TestVerifyFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if err := c.Verify(context.Background()); err == nil {
		t.Fatalf("expected error for forbidden key")
	}
}
