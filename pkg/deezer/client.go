// Package deezer wraps the Deezer search API, used as the last-resort source
// for audio preview URLs when the primary catalog has none.
package deezer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the public Deezer API endpoint.
	DefaultBaseURL = "https://api.deezer.com"
	// RequestTimeout is the timeout for Deezer API requests.
	RequestTimeout = 10 * time.Second
)

// Artist is the nested artist object on a Deezer track.
type Artist struct {
	Name string `json:"name"`
}

// Track is a single Deezer search result.
type Track struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview"`
	Artist  Artist `json:"artist"`
}

// SearchResponse is the envelope returned by /search.
type SearchResponse struct {
	Data  []Track `json:"data"`
	Total int     `json:"total"`
}

// Client calls the Deezer API. Construct with NewClient.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Deezer API client. baseURL is overridable for tests;
// pass "" for the public endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: RequestTimeout,
		},
	}
}

// Search performs a keyword track search. Results keep the upstream relevance
// order.
func (c *Client) Search(ctx context.Context, term string, limit int) (*SearchResponse, error) {
	if term == "" {
		return nil, errors.New("search term must not be empty")
	}

	query := url.Values{}
	query.Set("q", term)
	query.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Deezer API returned status %d", resp.StatusCode)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode Deezer API response: %w", err)
	}

	return &searchResp, nil
}

// SearchPreview returns the preview URL of the best matching track, or "" when
// no result carries one.
func (c *Client) SearchPreview(ctx context.Context, term string) (string, error) {
	resp, err := c.Search(ctx, term, 1)
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", nil
	}
	return resp.Data[0].Preview, nil
}
