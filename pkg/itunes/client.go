// Package itunes wraps the iTunes Search API: keyword search by entity kind,
// bulk collection lookup and the duration formatting used on tracklists.
package itunes

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
	// DefaultBaseURL is the public iTunes Search API endpoint.
	DefaultBaseURL = "https://itunes.apple.com"
	// RequestTimeout is the timeout for iTunes API requests.
	RequestTimeout = 10 * time.Second
)

// Entity selects the iTunes search entity kind.
type Entity string

const (
	// EntitySong searches individual tracks.
	EntitySong Entity = "song"
	// EntityAlbum searches album/EP collections.
	EntityAlbum Entity = "album"
)

// Result is a single iTunes search or lookup result. Fields cover both track
// and collection wrapper types; unused ones are zero.
type Result struct {
	WrapperType       string  `json:"wrapperType"`
	TrackID           int64   `json:"trackId"`
	CollectionID      int64   `json:"collectionId"`
	TrackName         string  `json:"trackName"`
	CollectionName    string  `json:"collectionName"`
	ArtistName        string  `json:"artistName"`
	TrackTimeMillis   int64   `json:"trackTimeMillis"`
	PreviewURL        string  `json:"previewUrl"`
	TrackViewURL      string  `json:"trackViewUrl"`
	CollectionViewURL string  `json:"collectionViewUrl"`
	ArtworkURL        string  `json:"artworkUrl100"`
	ReleaseDate       string  `json:"releaseDate"`
	TrackNumber       int     `json:"trackNumber"`
	Country           string  `json:"country"`
	Price             float64 `json:"trackPrice"`
}

// SearchResponse is the envelope returned by both /search and /lookup.
type SearchResponse struct {
	ResultCount int      `json:"resultCount"`
	Results     []Result `json:"results"`
}

// Client calls the iTunes Search API. The zero value is not usable; construct
// with NewClient.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates an iTunes API client. baseURL is overridable for tests;
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

// Search performs a keyword search for the given entity kind. Results keep the
// upstream relevance order.
func (c *Client) Search(ctx context.Context, term string, entity Entity, limit int) (*SearchResponse, error) {
	if term == "" {
		return nil, errors.New("search term must not be empty")
	}

	query := url.Values{}
	query.Set("term", term)
	query.Set("media", "music")
	query.Set("entity", string(entity))
	query.Set("limit", strconv.Itoa(limit))

	return c.get(ctx, c.baseURL+"/search?"+query.Encode())
}

// Lookup fetches a collection and its songs by collection ID. The response
// contains the collection container itself plus one entry per song.
func (c *Client) Lookup(ctx context.Context, id int64, limit int) (*SearchResponse, error) {
	query := url.Values{}
	query.Set("id", strconv.FormatInt(id, 10))
	query.Set("entity", "song")
	query.Set("limit", strconv.Itoa(limit))

	return c.get(ctx, c.baseURL+"/lookup?"+query.Encode())
}

// LookupTracks fetches a collection and returns only its playable tracks,
// discarding the collection container entry. Track order is the album order as
// returned by the catalog.
func (c *Client) LookupTracks(ctx context.Context, id int64, limit int) ([]Result, error) {
	resp, err := c.Lookup(ctx, id, limit)
	if err != nil {
		return nil, err
	}

	tracks := make([]Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.WrapperType == "track" {
			tracks = append(tracks, r)
		}
	}
	return tracks, nil
}

func (c *Client) get(ctx context.Context, reqURL string) (*SearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
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
		return nil, fmt.Errorf("iTunes API returned status %d", resp.StatusCode)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode iTunes API response: %w", err)
	}

	return &searchResp, nil
}

// FormatDuration renders a millisecond duration as "m:ss": unpadded floor
// minutes, seconds rounded to the nearest whole and zero-padded. A seconds
// component that rounds to 60 carries into the minute.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}

	minutes := ms / 60000
	seconds := int64(float64(ms%60000)/1000 + 0.5)
	if seconds == 60 {
		minutes++
		seconds = 0
	}

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
