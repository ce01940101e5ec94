package songlink

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"fanlink/pkg/itunes"
)

// Catalog is the subset of the iTunes client the last.fm translator needs.
type Catalog interface {
	Search(ctx context.Context, term string, entity itunes.Entity, limit int) (*itunes.SearchResponse, error)
}

// LastFMTranslator rewrites last.fm URLs into iTunes view URLs. The
// aggregation API does not support last.fm input at all, so without this
// substitution those URLs are unresolvable.
//
// last.fm paths follow /music/<artist>/<album-or-_>/<track>: a present leaf
// segment names a track, a non-placeholder middle segment names an album.
type LastFMTranslator struct {
	catalog Catalog
}

// NewLastFMTranslator creates a translator backed by the given catalog.
func NewLastFMTranslator(catalog Catalog) *LastFMTranslator {
	return &LastFMTranslator{catalog: catalog}
}

// CanTranslate reports whether the URL is a last.fm music path.
func (t *LastFMTranslator) CanTranslate(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	hostname := strings.ToLower(u.Hostname())
	if hostname != "last.fm" && hostname != "www.last.fm" {
		return false
	}

	return strings.HasPrefix(u.Path, "/music/")
}

// Translate searches the catalog for the entity named by the last.fm path and
// returns its native catalog view URL. If the path names nothing searchable or
// the catalog has no match, the original URL is returned unchanged.
func (t *LastFMTranslator) Translate(ctx context.Context, rawURL string) (string, error) {
	artist, middle, leaf, err := decomposePath(rawURL)
	if err != nil {
		return rawURL, nil
	}

	if leaf != "" {
		resp, err := t.catalog.Search(ctx, artist+" "+leaf, itunes.EntitySong, 1)
		if err != nil {
			return "", fmt.Errorf("song search for last.fm URL failed: %w", err)
		}
		if resp.ResultCount > 0 && resp.Results[0].TrackViewURL != "" {
			return resp.Results[0].TrackViewURL, nil
		}
		return rawURL, nil
	}

	if middle != "" && middle != "_" {
		resp, err := t.catalog.Search(ctx, artist+" "+middle, itunes.EntityAlbum, 1)
		if err != nil {
			return "", fmt.Errorf("album search for last.fm URL failed: %w", err)
		}
		if resp.ResultCount > 0 && resp.Results[0].CollectionViewURL != "" {
			return resp.Results[0].CollectionViewURL, nil
		}
		return rawURL, nil
	}

	// Artist pages have nothing precise to search for.
	return rawURL, nil
}

// decomposePath splits a last.fm /music/ path into its artist, middle and leaf
// segments, decoded ("+" encodes a space on last.fm).
func decomposePath(rawURL string) (artist, middle, leaf string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", err
	}

	trimmed := strings.TrimPrefix(strings.Trim(u.Path, "/"), "music/")
	segments := strings.Split(trimmed, "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", "", "", fmt.Errorf("no artist segment in last.fm path %q", u.Path)
	}

	artist = decodeSegment(segments[0])
	if len(segments) > 1 {
		middle = decodeSegment(segments[1])
	}
	if len(segments) > 2 {
		leaf = decodeSegment(segments[2])
	}

	return artist, middle, leaf, nil
}

func decodeSegment(segment string) string {
	segment = strings.ReplaceAll(segment, "+", " ")
	if unescaped, err := url.PathUnescape(segment); err == nil {
		segment = unescaped
	}
	// The placeholder segment stays as-is so callers can detect it.
	if segment == "_" {
		return "_"
	}
	return segment
}
