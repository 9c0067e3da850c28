package client

import (
	"net/http"
	"os"
	"strings"
	"time"
)

// CuratorClient talks to a running curation API.
type CuratorClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCuratorClient creates a client; an empty baseURL falls back to
// CURATOR_API_URL, then localhost.
func NewCuratorClient(baseURL string) *CuratorClient {
	if baseURL == "" {
		baseURL = getEnvOrDefault("CURATOR_API_URL", "http://localhost:8080")
	}
	return &CuratorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// dedup runs embed every title; allow for slow providers
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *CuratorClient) WithHTTPClient(hc *http.Client) *CuratorClient {
	c.httpClient = hc
	return c
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
