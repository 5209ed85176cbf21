package provider

import (
	"errors"
	"net/http"
	"time"
)

// ErrNotFound indicates that the remote service has no data for the
// requested resource. Callers treat it as an empty result rather than a
// failure.
var ErrNotFound = errors.New("resource not found")

type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(req)
}

// NewHTTPClient builds the pooled HTTP client shared by all provider
// clients. A zero timeout falls back to 30 seconds.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     40,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  false,
	}

	return &http.Client{
		Transport: userAgentTransport{agent: "trendflow/1.0", base: transport},
		Timeout:   timeout,
	}
}
