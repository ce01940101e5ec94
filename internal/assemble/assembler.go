// Package assemble enriches a resolved entity with an audio preview URL and,
// for albums, the full tracklist, using a layered fallback against the iTunes
// catalog.
package assemble

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"fanlink/internal/core"
	"fanlink/pkg/fuzzy"
	"fanlink/pkg/itunes"
)

const (
	// collectionLookupLimit bounds a collection lookup; large enough for any
	// album the catalog carries.
	collectionLookupLimit = 200
	// songFallbackLimit is how many song candidates the final fallback
	// inspects for a usable preview.
	songFallbackLimit = 5
	// looseSearchLimit is how many album candidates the loose title-only
	// search filters by artist.
	looseSearchLimit = 10
)

// Catalog is the subset of the iTunes client the assembler needs.
type Catalog interface {
	Search(ctx context.Context, term string, entity itunes.Entity, limit int) (*itunes.SearchResponse, error)
	Lookup(ctx context.Context, id int64, limit int) (*itunes.SearchResponse, error)
	LookupTracks(ctx context.Context, id int64, limit int) ([]itunes.Result, error)
}

// PreviewSource is a secondary catalog queried for an audio preview URL when
// the primary catalog yields none. Implemented by the Deezer client. May be
// nil, which disables the fallback.
type PreviewSource interface {
	SearchPreview(ctx context.Context, term string) (string, error)
}

// Request names the entity to assemble a tracklist for. AppleID is the direct
// catalog identifier extracted from the native platform URL, 0 when absent.
type Request struct {
	Title      string
	Artist     string
	EntityType core.EntityType
	AppleID    int64
}

// Assembler builds preview/tracklist data for resolved entities.
type Assembler struct {
	catalog    Catalog
	previews   PreviewSource
	normalizer *fuzzy.Normalizer
	logger     *zap.Logger
}

// New creates an assembler backed by the given catalog. previews may be nil.
func New(catalog Catalog, previews PreviewSource, logger *zap.Logger) *Assembler {
	return &Assembler{
		catalog:    catalog,
		previews:   previews,
		normalizer: fuzzy.NewNormalizer(),
		logger:     logger,
	}
}

// FromResolved builds a Request from a resolved link, extracting the direct
// catalog id from the Apple Music URL when present.
func FromResolved(resolved *core.ResolvedLink) Request {
	return Request{
		Title:      resolved.Title,
		Artist:     resolved.Artist,
		EntityType: resolved.EntityType,
		AppleID:    ExtractCatalogID(resolved.PlatformURL(core.PlatformAppleMusic)),
	}
}

// Assemble runs the fallback chain. Strategies are strictly ordered and the
// first that yields a non-empty result wins:
//
//  1. direct lookup by the extracted catalog id (a track-shaped id
//     short-circuits everything else, a collection-shaped one yields the
//     tracklist directly)
//  2. album only: collection id via precise album search, then loose
//     title-only search filtered by fuzzy artist match, then a song search
//     harvested for the collection id it belongs to
//  3. song search fallback wrapping the best single candidate
//
// A "song" entity type suppresses the album strategies entirely. Errors are
// upstream failures; an empty tracklist with no error means the catalog simply
// had nothing.
//
// When the chain leaves the tracklist without a preview, the secondary preview
// source is queried as a last resort. Its failures degrade, never abort.
func (a *Assembler) Assemble(ctx context.Context, req Request) (*core.Tracklist, error) {
	tracklist, err := a.assemble(ctx, req)
	if err != nil {
		return nil, err
	}
	a.ensurePreview(ctx, req, tracklist)
	return tracklist, nil
}

func (a *Assembler) assemble(ctx context.Context, req Request) (*core.Tracklist, error) {
	if req.AppleID != 0 {
		tracklist, err := a.lookupDirect(ctx, req.AppleID)
		if err != nil {
			return nil, err
		}
		if tracklist != nil {
			return tracklist, nil
		}
	}

	if req.EntityType == core.EntityTypeAlbum {
		collectionID, err := a.findCollectionID(ctx, req)
		if err != nil {
			return nil, err
		}
		if collectionID != 0 {
			return a.tracklistFromCollection(ctx, collectionID)
		}
	}

	return a.songFallback(ctx, req)
}

func (a *Assembler) ensurePreview(ctx context.Context, req Request, tracklist *core.Tracklist) {
	if a.previews == nil || tracklist.PreviewURL != "" {
		return
	}

	query := strings.TrimSpace(req.Title + " " + req.Artist)
	if query == "" {
		return
	}

	preview, err := a.previews.SearchPreview(ctx, query)
	if err != nil {
		a.logger.Warn("secondary preview search failed",
			zap.String("query", query), zap.Error(err))
		return
	}
	if preview != "" {
		a.logger.Debug("preview found via secondary source", zap.String("query", query))
		tracklist.PreviewURL = preview
	}
}

// lookupDirect resolves the extracted catalog id. Returns nil with no error
// when the id matched nothing, so the chain continues.
func (a *Assembler) lookupDirect(ctx context.Context, id int64) (*core.Tracklist, error) {
	resp, err := a.catalog.Lookup(ctx, id, collectionLookupLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: direct catalog lookup: %v", core.ErrUpstreamUnavailable, err)
	}

	var tracks []itunes.Result
	for _, r := range resp.Results {
		if r.WrapperType == "track" {
			tracks = append(tracks, r)
		}
	}

	if len(tracks) == 0 {
		return nil, nil
	}

	// An "album-shaped" id can point at a single track. That one track is the
	// whole tracklist and no album search is attempted.
	if len(tracks) == 1 && tracks[0].TrackID == id {
		a.logger.Debug("direct id resolved to a single track", zap.Int64("id", id))
	}

	return a.buildTracklist(tracks), nil
}

func (a *Assembler) findCollectionID(ctx context.Context, req Request) (int64, error) {
	query := strings.TrimSpace(req.Title + " " + req.Artist)

	// Precise album search first.
	resp, err := a.catalog.Search(ctx, query, itunes.EntityAlbum, 1)
	if err != nil {
		return 0, fmt.Errorf("%w: album search: %v", core.ErrUpstreamUnavailable, err)
	}
	if resp.ResultCount > 0 && resp.Results[0].CollectionID != 0 {
		return resp.Results[0].CollectionID, nil
	}

	// Loosened title-only search, filtered by fuzzy artist match. A candidate
	// counts when its normalized artist contains, or is contained in, ours.
	if req.Artist != "" {
		resp, err = a.catalog.Search(ctx, req.Title, itunes.EntityAlbum, looseSearchLimit)
		if err != nil {
			return 0, fmt.Errorf("%w: loose album search: %v", core.ErrUpstreamUnavailable, err)
		}
		for _, candidate := range resp.Results {
			if candidate.CollectionID == 0 {
				continue
			}
			if a.normalizer.ArtistsMatch(req.Artist, candidate.ArtistName) {
				a.logger.Debug("loose album search matched",
					zap.String("title", req.Title),
					zap.String("candidate_artist", candidate.ArtistName))
				return candidate.CollectionID, nil
			}
		}
	}

	// Singles are often catalogued as songs; harvest the collection the song
	// belongs to.
	resp, err = a.catalog.Search(ctx, query, itunes.EntitySong, 1)
	if err != nil {
		return 0, fmt.Errorf("%w: song search for collection id: %v", core.ErrUpstreamUnavailable, err)
	}
	if resp.ResultCount > 0 && resp.Results[0].CollectionID != 0 {
		return resp.Results[0].CollectionID, nil
	}

	return 0, nil
}

func (a *Assembler) tracklistFromCollection(ctx context.Context, collectionID int64) (*core.Tracklist, error) {
	tracks, err := a.catalog.LookupTracks(ctx, collectionID, collectionLookupLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: collection lookup: %v", core.ErrUpstreamUnavailable, err)
	}
	return a.buildTracklist(tracks), nil
}

// songFallback searches songs and wraps the first candidate carrying a
// preview, falling back to the very first result when none has one.
func (a *Assembler) songFallback(ctx context.Context, req Request) (*core.Tracklist, error) {
	query := strings.TrimSpace(req.Title + " " + req.Artist)
	if query == "" {
		return &core.Tracklist{}, nil
	}

	resp, err := a.catalog.Search(ctx, query, itunes.EntitySong, songFallbackLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: song search: %v", core.ErrUpstreamUnavailable, err)
	}
	if resp.ResultCount == 0 {
		return &core.Tracklist{}, nil
	}

	chosen := resp.Results[0]
	for _, candidate := range resp.Results {
		if candidate.PreviewURL != "" {
			chosen = candidate
			break
		}
	}

	return a.buildTracklist([]itunes.Result{chosen}), nil
}

func (a *Assembler) buildTracklist(results []itunes.Result) *core.Tracklist {
	tracklist := &core.Tracklist{
		Tracks: make([]core.Track, 0, len(results)),
	}

	for _, r := range results {
		tracklist.Tracks = append(tracklist.Tracks, core.Track{
			ID:         strconv.FormatInt(r.TrackID, 10),
			Title:      r.TrackName,
			Artist:     r.ArtistName,
			Duration:   itunes.FormatDuration(r.TrackTimeMillis),
			PreviewURL: r.PreviewURL,
		})
	}

	// The first track's preview doubles as the page-level preview.
	for _, t := range tracklist.Tracks {
		if t.PreviewURL != "" {
			tracklist.PreviewURL = t.PreviewURL
			break
		}
	}

	return tracklist
}

// ExtractCatalogID pulls the numeric catalog id out of an Apple Music URL.
// The ?i= query parameter (track id) wins over the trailing numeric path
// segment (collection id). Returns 0 when no id is present.
func ExtractCatalogID(rawURL string) int64 {
	if rawURL == "" {
		return 0
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}

	if trackID := u.Query().Get("i"); trackID != "" {
		if id, err := strconv.ParseInt(trackID, 10, 64); err == nil {
			return id
		}
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if id, err := strconv.ParseInt(strings.TrimPrefix(segments[i], "id"), 10, 64); err == nil {
			return id
		}
	}

	return 0
}
