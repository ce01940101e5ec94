package songlink

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const albumLinksResponse = `{
	"entityUniqueId": "ITUNES_ALBUM::123456",
	"userCountry": "US",
	"pageUrl": "https://album.link/i/123456",
	"entitiesByUniqueId": {
		"ITUNES_ALBUM::123456": {
			"id": "123456",
			"type": "album",
			"title": "AlbumY",
			"artistName": "ArtistX",
			"thumbnailUrl": "https://artwork.example/cover.jpg",
			"apiProvider": "itunes"
		}
	},
	"linksByPlatform": {
		"spotify": {"country": "US", "url": "https://open.spotify.com/album/abc", "entityUniqueId": "SPOTIFY_ALBUM::abc"},
		"appleMusic": {"country": "US", "url": "https://music.apple.com/us/album/123456", "entityUniqueId": "ITUNES_ALBUM::123456"},
		"youtubeMusic": {"country": "US", "url": "https://music.youtube.com/playlist?list=xyz", "entityUniqueId": "YOUTUBE_ALBUM::xyz"},
		"napster": {"country": "US", "url": "https://napster.example/album/1", "entityUniqueId": "NAPSTER_ALBUM::1"}
	}
}`

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/links" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("url") == "" {
			t.Error("missing url query parameter")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestResolver_Resolve_Album(t *testing.T) {
	server := newTestServer(t, http.StatusOK, albumLinksResponse)
	defer server.Close()

	resolver := NewResolver(server.URL)

	resolved, err := resolver.Resolve(context.Background(), "https://open.spotify.com/album/abc")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if resolved.Title != "AlbumY" || resolved.Artist != "ArtistX" {
		t.Errorf("unexpected entity: %q by %q", resolved.Title, resolved.Artist)
	}
	if resolved.EntityType != EntityTypeAlbum {
		t.Errorf("EntityType = %q, want %q", resolved.EntityType, EntityTypeAlbum)
	}
	if resolved.ArtworkURL != "https://artwork.example/cover.jpg" {
		t.Errorf("unexpected artwork URL %q", resolved.ArtworkURL)
	}

	byPlatform := map[string]string{}
	for _, p := range resolved.Platforms {
		byPlatform[p.Platform] = p.URL
	}

	// Unknown aggregator keys are dropped, not defaulted.
	if _, ok := byPlatform["napster"]; ok {
		t.Error("unknown platform key was not dropped")
	}
	if byPlatform["spotify"] != "https://open.spotify.com/album/abc" {
		t.Errorf("spotify link missing or wrong: %q", byPlatform["spotify"])
	}

	// The last.fm entry is synthesized from artist+title since the aggregator
	// never returns one.
	if byPlatform["last.fm"] != "https://www.last.fm/music/ArtistX/AlbumY" {
		t.Errorf("last.fm link = %q", byPlatform["last.fm"])
	}
}

func TestResolver_Resolve_PlatformOrdering(t *testing.T) {
	server := newTestServer(t, http.StatusOK, albumLinksResponse)
	defer server.Close()

	resolver := NewResolver(server.URL)

	resolved, err := resolver.Resolve(context.Background(), "https://open.spotify.com/album/abc")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{"spotify", "apple-music", "youtube-music", "last.fm"}
	if len(resolved.Platforms) != len(want) {
		t.Fatalf("got %d platforms, want %d", len(resolved.Platforms), len(want))
	}
	for i, platform := range want {
		if resolved.Platforms[i].Platform != platform {
			t.Errorf("platform[%d] = %q, want %q", i, resolved.Platforms[i].Platform, platform)
		}
	}
}

func TestResolver_Resolve_SongLastFMSynthesis(t *testing.T) {
	body := `{
		"entityUniqueId": "ITUNES_SONG::42",
		"entitiesByUniqueId": {
			"ITUNES_SONG::42": {"id": "42", "type": "song", "title": "Some Song", "artistName": "Some Artist"}
		},
		"linksByPlatform": {}
	}`
	server := newTestServer(t, http.StatusOK, body)
	defer server.Close()

	resolver := NewResolver(server.URL)

	resolved, err := resolver.Resolve(context.Background(), "https://music.apple.com/us/song/42")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if resolved.EntityType != EntityTypeSong {
		t.Errorf("EntityType = %q, want song", resolved.EntityType)
	}
	if len(resolved.Platforms) != 1 {
		t.Fatalf("got %d platforms, want 1", len(resolved.Platforms))
	}
	if resolved.Platforms[0].URL != "https://www.last.fm/music/Some+Artist/_/Some+Song" {
		t.Errorf("song last.fm link = %q", resolved.Platforms[0].URL)
	}
}

func TestResolver_Resolve_EntityNotFound(t *testing.T) {
	body := `{
		"entityUniqueId": "ITUNES_SONG::42",
		"entitiesByUniqueId": {
			"ITUNES_SONG::999": {"id": "999", "type": "song", "title": "Other", "artistName": "Other"}
		},
		"linksByPlatform": {}
	}`
	server := newTestServer(t, http.StatusOK, body)
	defer server.Close()

	resolver := NewResolver(server.URL)

	_, err := resolver.Resolve(context.Background(), "https://open.spotify.com/track/42")
	if !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("Resolve() error = %v, want ErrEntityNotFound", err)
	}
}

func TestResolver_Resolve_UpstreamError(t *testing.T) {
	server := newTestServer(t, http.StatusBadGateway, `{"error":"bad"}`)
	defer server.Close()

	resolver := NewResolver(server.URL)

	_, err := resolver.Resolve(context.Background(), "https://open.spotify.com/track/42")
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Resolve() error = %v, want ErrUpstream", err)
	}
}
