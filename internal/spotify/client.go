// Package spotify fetches track/album metadata straight from the Spotify Web
// API. It backs the spotify-metadata endpoint and serves as a resolver
// fallback when the aggregation API cannot handle a Spotify URL.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"fanlink/internal/core"
)

var (
	trackURLRegex = regexp.MustCompile(`(?:https?://)?open\.spotify\.com(?:/intl-[a-z]{2})?/track/([a-zA-Z0-9]+)`)
	albumURLRegex = regexp.MustCompile(`(?:https?://)?open\.spotify\.com(?:/intl-[a-z]{2})?/album/([a-zA-Z0-9]+)`)
)

// ErrNotSpotifyURL is returned for URLs that are not Spotify track/album pages.
var ErrNotSpotifyURL = errors.New("not a spotify track or album URL")

// Metadata is the extracted page metadata for a Spotify entity.
type Metadata struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	ArtworkURL string `json:"artworkUrl"`
	TrackID    string `json:"trackId,omitempty"`
}

// Client wraps the Spotify Web API with an app-level client-credentials token.
type Client struct {
	config *core.SpotifyConfig
	logger *zap.Logger
	api    *spotify.Client
}

// NewClient authenticates with the client-credentials flow. Fails when the
// credentials are missing or rejected.
func NewClient(ctx context.Context, config *core.SpotifyConfig, logger *zap.Logger) (*Client, error) {
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, errors.New("spotify client credentials not configured")
	}

	creds := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	token, err := creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify token request failed: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)

	return &Client{
		config: config,
		logger: logger,
		api:    spotify.New(httpClient),
	}, nil
}

// CanResolve reports whether the URL names a Spotify track or album.
func CanResolve(rawURL string) bool {
	return trackURLRegex.MatchString(rawURL) || albumURLRegex.MatchString(rawURL)
}

// Metadata fetches title, artist and artwork for a Spotify track or album URL.
func (c *Client) Metadata(ctx context.Context, rawURL string) (*Metadata, error) {
	if m := trackURLRegex.FindStringSubmatch(rawURL); m != nil {
		return c.trackMetadata(ctx, m[1])
	}
	if m := albumURLRegex.FindStringSubmatch(rawURL); m != nil {
		return c.albumMetadata(ctx, m[1])
	}
	return nil, ErrNotSpotifyURL
}

func (c *Client) trackMetadata(ctx context.Context, id string) (*Metadata, error) {
	track, err := c.api.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("%w: spotify track fetch: %v", core.ErrUpstreamUnavailable, err)
	}

	meta := &Metadata{
		Title:   track.Name,
		TrackID: id,
	}
	if len(track.Artists) > 0 {
		meta.Artist = track.Artists[0].Name
	}
	if len(track.Album.Images) > 0 {
		meta.ArtworkURL = track.Album.Images[0].URL
	}

	c.logger.Debug("fetched spotify track metadata",
		zap.String("id", id), zap.String("title", meta.Title))
	return meta, nil
}

func (c *Client) albumMetadata(ctx context.Context, id string) (*Metadata, error) {
	album, err := c.api.GetAlbum(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("%w: spotify album fetch: %v", core.ErrUpstreamUnavailable, err)
	}

	meta := &Metadata{
		Title: album.Name,
	}
	if len(album.Artists) > 0 {
		meta.Artist = album.Artists[0].Name
	}
	if len(album.Images) > 0 {
		meta.ArtworkURL = album.Images[0].URL
	}

	return meta, nil
}
