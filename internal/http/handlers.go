package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fanlink/internal/assemble"
	"fanlink/internal/core"
	"fanlink/internal/spotify"
	"fanlink/internal/store"
)

const maxTitleLength = 200

var slugRegex = regexp.MustCompile(`^[a-z0-9-]+$`)

type resolveResponse struct {
	Title      string              `json:"title"`
	Artist     string              `json:"artist"`
	ArtworkURL string              `json:"artworkUrl"`
	EntityType core.EntityType     `json:"entityType"`
	PreviewURL string              `json:"previewUrl,omitempty"`
	Platforms  []core.PlatformLink `json:"platforms"`
	Tracks     []core.Track        `json:"tracks,omitempty"`
}

func (s *Server) handleResolve(c *gin.Context) {
	defer s.metrics.observe("resolve", time.Now())

	sourceURL := c.Query("url")
	if sourceURL == "" {
		s.metrics.ResolvesTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}

	resolved, err := s.resolver.Resolve(c.Request.Context(), sourceURL)
	if err != nil {
		s.logger.Error("link resolution failed",
			zap.String("url", sourceURL), zap.Error(err))
		s.metrics.ResolvesTotal.WithLabelValues("error").Inc()
		s.metrics.UpstreamErrors.WithLabelValues("odesli").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve link metadata"})
		return
	}

	// Enrichment degrades gracefully: a failed preview/tracklist fetch never
	// fails the resolution.
	tracklist, err := s.assembler.Assemble(c.Request.Context(), assemble.FromResolved(resolved))
	if err != nil {
		s.logger.Warn("tracklist enrichment failed",
			zap.String("title", resolved.Title), zap.Error(err))
		s.metrics.UpstreamErrors.WithLabelValues("itunes").Inc()
		tracklist = &core.Tracklist{}
	}

	s.metrics.ResolvesTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, buildResolveResponse(resolved, tracklist))
}

// buildResolveResponse flattens the resolved entity and its enrichment into
// the wire shape. The synthetic preview/meta_type rows ride along in the
// platforms list for view-page compatibility, on top of the first-class
// previewUrl/entityType fields.
func buildResolveResponse(resolved *core.ResolvedLink, tracklist *core.Tracklist) resolveResponse {
	platforms := make([]core.PlatformLink, 0, len(resolved.Platforms)+2)
	platforms = append(platforms, resolved.Platforms...)

	if tracklist.PreviewURL != "" {
		platforms = append(platforms, core.PlatformLink{
			Platform: core.PlatformPreview,
			URL:      tracklist.PreviewURL,
		})
	}
	platforms = append(platforms, core.PlatformLink{
		Platform: core.PlatformMetaType,
		URL:      string(resolved.EntityType),
	})

	return resolveResponse{
		Title:      resolved.Title,
		Artist:     resolved.Artist,
		ArtworkURL: resolved.ArtworkURL,
		EntityType: resolved.EntityType,
		PreviewURL: tracklist.PreviewURL,
		Platforms:  platforms,
		Tracks:     tracklist.Tracks,
	}
}

func (s *Server) handleTracks(c *gin.Context) {
	defer s.metrics.observe("tracks", time.Now())

	title := c.Query("title")
	if title == "" {
		s.metrics.TracklistsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	req := assemble.Request{
		Title:      title,
		Artist:     c.Query("artist"),
		EntityType: core.EntityTypeAlbum,
	}
	if c.Query("type") == string(core.EntityTypeSong) {
		req.EntityType = core.EntityTypeSong
	}
	if appleID := c.Query("appleId"); appleID != "" {
		if id, err := strconv.ParseInt(appleID, 10, 64); err == nil {
			req.AppleID = id
		}
	}

	tracklist, err := s.assembler.Assemble(c.Request.Context(), req)
	if err != nil {
		s.logger.Error("tracklist assembly failed",
			zap.String("title", title), zap.Error(err))
		s.metrics.TracklistsTotal.WithLabelValues("error").Inc()
		s.metrics.UpstreamErrors.WithLabelValues("itunes").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tracks"})
		return
	}

	tracks := tracklist.Tracks
	if tracks == nil {
		tracks = []core.Track{}
	}

	s.metrics.TracklistsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

type publishRequest struct {
	Slug       string              `json:"slug"`
	Title      string              `json:"title"`
	Artist     string              `json:"artist"`
	ArtworkURL string              `json:"artwork_url"`
	Platforms  []core.PlatformLink `json:"platforms"`
}

func (s *Server) handlePublish(c *gin.Context) {
	defer s.metrics.observe("publish", time.Now())

	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.PublishesTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := validatePublish(&req); err != nil {
		s.metrics.PublishesTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slug, err := s.store.Publish(c.Request.Context(), store.PublishRecord{
		Slug:       req.Slug,
		Title:      req.Title,
		Artist:     req.Artist,
		ArtworkURL: req.ArtworkURL,
		Platforms:  req.Platforms,
	})
	if err != nil {
		if core.IsValidationError(err) {
			s.metrics.PublishesTotal.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("smart link publish failed",
			zap.String("slug", req.Slug), zap.Error(err))
		s.metrics.PublishesTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.metrics.PublishesTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"slug": slug})
}

func validatePublish(req *publishRequest) error {
	if len(req.Slug) < 3 || !slugRegex.MatchString(req.Slug) {
		return core.NewValidationError("Invalid slug: must be at least 3 lowercase letters, digits or hyphens")
	}

	titleLen := utf8.RuneCountInString(req.Title)
	if titleLen < 1 || titleLen > maxTitleLength {
		return core.NewValidationError(fmt.Sprintf("Title must be between 1 and %d characters", maxTitleLength))
	}

	if req.ArtworkURL != "" && !isValidHTTPURL(req.ArtworkURL) {
		return core.NewValidationError("Invalid artwork URL provided")
	}

	for _, p := range req.Platforms {
		if p.Platform == "" {
			return core.NewValidationError("Platform name must not be empty")
		}
		// The synthetic pseudo-platforms are exempt: meta_type carries a type
		// tag, not a URL.
		if core.IsSyntheticPlatform(p.Platform) {
			continue
		}
		if !isValidHTTPURL(p.URL) {
			return core.NewValidationError("Invalid platform URL provided")
		}
	}

	return nil
}

func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *Server) handleGetLink(c *gin.Context) {
	defer s.metrics.observe("get_link", time.Now())

	slug := c.Param("slug")

	link, err := s.store.GetBySlug(c.Request.Context(), slug)
	if errors.Is(err, core.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Smart link not found"})
		return
	}
	if err != nil {
		s.logger.Error("smart link lookup failed",
			zap.String("slug", slug), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.metrics.LinksServed.Inc()
	c.JSON(http.StatusOK, link)
}

func (s *Server) handleSpotifyMetadata(c *gin.Context) {
	defer s.metrics.observe("spotify_metadata", time.Now())

	if s.metadata == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Spotify metadata is not configured"})
		return
	}

	sourceURL := c.Query("url")
	if sourceURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}

	meta, err := s.metadata.Metadata(c.Request.Context(), sourceURL)
	if errors.Is(err, spotify.ErrNotSpotifyURL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not a Spotify track or album URL"})
		return
	}
	if err != nil {
		s.logger.Error("spotify metadata fetch failed",
			zap.String("url", sourceURL), zap.Error(err))
		s.metrics.UpstreamErrors.WithLabelValues("spotify").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch track metadata"})
		return
	}

	c.JSON(http.StatusOK, meta)
}
