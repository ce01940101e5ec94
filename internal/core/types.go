// Package core holds the domain types, configuration and error taxonomy shared
// across the fanlink pipeline.
package core

// EntityType classifies a resolved music entity.
type EntityType string

const (
	// EntityTypeSong is an individual track.
	EntityTypeSong EntityType = "song"
	// EntityTypeAlbum is an album/EP collection.
	EntityTypeAlbum EntityType = "album"
)

// Platform identifiers as rendered on the smart link page. PlatformPreview and
// PlatformMetaType are synthetic entries: they carry a playable preview URL and
// the resolved entity type rather than a streaming page, and are exempt from
// URL validation.
const (
	PlatformSpotify      = "spotify"
	PlatformAppleMusic   = "apple-music"
	PlatformYouTubeMusic = "youtube-music"
	PlatformSoundCloud   = "soundcloud"
	PlatformTidal        = "tidal"
	PlatformDeezer       = "deezer"
	PlatformAmazonMusic  = "amazon-music"
	PlatformBandcamp     = "bandcamp"
	PlatformLastFM       = "last.fm"
	PlatformPreview      = "preview"
	PlatformMetaType     = "meta_type"
)

// IsSyntheticPlatform reports whether the platform identifier is one of the
// pseudo-platforms that do not carry a streaming URL.
func IsSyntheticPlatform(platform string) bool {
	return platform == PlatformPreview || platform == PlatformMetaType
}

// PlatformLink is one platform-specific URL of a resolved entity.
type PlatformLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// ResolvedLink is the canonical entity produced by the link resolver. Immutable
// once produced.
type ResolvedLink struct {
	Title      string
	Artist     string
	ArtworkURL string
	EntityType EntityType
	Platforms  []PlatformLink
}

// PlatformURL returns the URL for the given platform, or "" if absent.
func (r *ResolvedLink) PlatformURL(platform string) string {
	for _, p := range r.Platforms {
		if p.Platform == platform {
			return p.URL
		}
	}
	return ""
}

// Track is a single tracklist entry. Duration is preformatted as "m:ss" to
// match the view page contract.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist,omitempty"`
	Duration   string `json:"duration,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// Tracklist is the assembler output: a best-effort preview URL and the album
// tracklist in catalog order. Both may be empty; the page renders without a
// player in that case.
type Tracklist struct {
	PreviewURL string
	Tracks     []Track
}
