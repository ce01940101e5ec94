package songlink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public Odesli links endpoint.
	DefaultBaseURL = "https://api.song.link/v1-alpha.1"
	// RequestTimeout is the timeout for aggregation API requests.
	RequestTimeout = 15 * time.Second
)

// platformMapping translates Odesli platform keys into the canonical platform
// identifiers rendered on the smart link page. Keys absent from this table are
// dropped, not defaulted.
var platformMapping = map[string]string{
	"spotify":      "spotify",
	"appleMusic":   "apple-music",
	"youtubeMusic": "youtube-music",
	"soundcloud":   "soundcloud",
	"tidal":        "tidal",
	"deezer":       "deezer",
	"amazonMusic":  "amazon-music",
	"bandcamp":     "bandcamp",
}

// platformPriority orders the platforms the page renders first. Remaining
// platforms follow alphabetically so the output is deterministic.
var platformPriority = map[string]int{
	"spotify":       0,
	"apple-music":   1,
	"youtube-music": 2,
	"soundcloud":    3,
}

type linksEntity struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	ArtistName  string `json:"artistName"`
	Thumbnail   string `json:"thumbnailUrl"`
	APIProvider string `json:"apiProvider"`
}

type linksPlatform struct {
	Country        string `json:"country"`
	URL            string `json:"url"`
	EntityUniqueID string `json:"entityUniqueId"`
}

type linksResponse struct {
	EntityUniqueID     string                   `json:"entityUniqueId"`
	UserCountry        string                   `json:"userCountry"`
	PageURL            string                   `json:"pageUrl"`
	EntitiesByUniqueID map[string]linksEntity   `json:"entitiesByUniqueId"`
	LinksByPlatform    map[string]linksPlatform `json:"linksByPlatform"`
}

// Translator rewrites URLs the aggregation API cannot resolve into equivalent
// catalog URLs before resolution. Implemented by the last.fm translator.
type Translator interface {
	CanTranslate(rawURL string) bool
	Translate(ctx context.Context, rawURL string) (string, error)
}

// Resolver resolves arbitrary platform music URLs through the Odesli
// aggregation API.
type Resolver struct {
	baseURL     string
	client      *http.Client
	translators []Translator
}

// NewResolver creates a resolver. baseURL is overridable for tests; pass ""
// for the public endpoint. Translators are consulted in order before the
// aggregation call.
func NewResolver(baseURL string, translators ...Translator) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Resolver{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: RequestTimeout,
		},
		translators: translators,
	}
}

// Resolve resolves a platform URL into the canonical entity and its
// per-platform links.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*ResolvedLink, error) {
	for _, tr := range r.translators {
		if tr.CanTranslate(rawURL) {
			translated, err := tr.Translate(ctx, rawURL)
			if err != nil {
				return nil, fmt.Errorf("%w: input translation failed: %v", ErrUpstream, err)
			}
			rawURL = translated
			break
		}
	}

	data, err := r.fetchLinks(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	mainEntity, ok := data.EntitiesByUniqueID[data.EntityUniqueID]
	if !ok {
		return nil, ErrEntityNotFound
	}

	entityType := EntityTypeSong
	if mainEntity.Type == "album" {
		entityType = EntityTypeAlbum
	}

	platforms := mapPlatforms(data.LinksByPlatform)
	platforms = ensureLastFM(platforms, mainEntity.ArtistName, mainEntity.Title, entityType)
	sortPlatforms(platforms)

	return &ResolvedLink{
		Title:      mainEntity.Title,
		Artist:     mainEntity.ArtistName,
		ArtworkURL: mainEntity.Thumbnail,
		EntityType: entityType,
		Platforms:  platforms,
	}, nil
}

func (r *Resolver) fetchLinks(ctx context.Context, rawURL string) (*linksResponse, error) {
	reqURL := fmt.Sprintf("%s/links?url=%s", r.baseURL, url.QueryEscape(rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: aggregation API returned status %d", ErrUpstream, resp.StatusCode)
	}

	var data linksResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: failed to decode aggregation response: %v", ErrUpstream, err)
	}

	return &data, nil
}

func mapPlatforms(byPlatform map[string]linksPlatform) []PlatformLink {
	platforms := make([]PlatformLink, 0, len(byPlatform))
	for key, link := range byPlatform {
		platformID, ok := platformMapping[key]
		if !ok {
			continue
		}
		platforms = append(platforms, PlatformLink{
			Platform: platformID,
			URL:      link.URL,
		})
	}
	return platforms
}

// ensureLastFM appends a deterministic last.fm link when the aggregator did
// not return one. The aggregation API never covers last.fm natively, so every
// resolved entity exposes it uniformly.
func ensureLastFM(platforms []PlatformLink, artist, title string, entityType EntityType) []PlatformLink {
	for _, p := range platforms {
		if p.Platform == "last.fm" {
			return platforms
		}
	}

	encArtist := strings.ReplaceAll(artist, " ", "+")
	encTitle := strings.ReplaceAll(title, " ", "+")

	var lastfmURL string
	if entityType == EntityTypeAlbum {
		lastfmURL = fmt.Sprintf("https://www.last.fm/music/%s/%s", encArtist, encTitle)
	} else {
		lastfmURL = fmt.Sprintf("https://www.last.fm/music/%s/_/%s", encArtist, encTitle)
	}

	return append(platforms, PlatformLink{
		Platform: "last.fm",
		URL:      lastfmURL,
	})
}

func sortPlatforms(platforms []PlatformLink) {
	sort.SliceStable(platforms, func(i, j int) bool {
		pi, iOK := platformPriority[platforms[i].Platform]
		pj, jOK := platformPriority[platforms[j].Platform]
		switch {
		case iOK && jOK:
			return pi < pj
		case iOK:
			return true
		case jOK:
			return false
		default:
			return platforms[i].Platform < platforms[j].Platform
		}
	})
}
