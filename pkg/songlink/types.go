// Package songlink resolves a single platform music URL into canonical
// metadata and equivalent URLs on every other platform, via the Odesli
// (song.link) aggregation API.
package songlink

import "errors"

// EntityType classifies the resolved entity.
type EntityType string

const (
	// EntityTypeSong is an individual track.
	EntityTypeSong EntityType = "song"
	// EntityTypeAlbum is an album/EP collection.
	EntityTypeAlbum EntityType = "album"
)

// PlatformLink is one platform-specific URL of the resolved entity.
type PlatformLink struct {
	Platform string
	URL      string
}

// ResolvedLink holds the canonical entity extracted from the aggregation API.
type ResolvedLink struct {
	Title      string
	Artist     string
	ArtworkURL string
	EntityType EntityType
	Platforms  []PlatformLink
}

var (
	// ErrUpstream is returned when the aggregation API call fails or returns a
	// non-success status.
	ErrUpstream = errors.New("aggregation API unavailable")

	// ErrEntityNotFound is returned when the aggregation response carries no
	// entity under its own entityUniqueId pointer.
	ErrEntityNotFound = errors.New("no main entity in aggregation response")
)
