package itunes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		ms       int64
		expected string
	}{
		{
			name:     "Zero",
			ms:       0,
			expected: "0:00",
		},
		{
			name:     "One minute five seconds",
			ms:       65000,
			expected: "1:05",
		},
		{
			name:     "Just under ten minutes",
			ms:       599000,
			expected: "9:59",
		},
		{
			name:     "Seconds round to nearest",
			ms:       65400,
			expected: "1:05",
		},
		{
			name:     "Seconds round up",
			ms:       65600,
			expected: "1:06",
		},
		{
			name:     "Rounded seconds carry into minute",
			ms:       59900,
			expected: "1:00",
		},
		{
			name:     "Negative clamps to zero",
			ms:       -100,
			expected: "0:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatDuration(tt.ms)
			if result != tt.expected {
				t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, result, tt.expected)
			}
		})
	}
}

func TestClient_Search(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotQuery = map[string]string{
			"term":   r.URL.Query().Get("term"),
			"media":  r.URL.Query().Get("media"),
			"entity": r.URL.Query().Get("entity"),
			"limit":  r.URL.Query().Get("limit"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"resultCount": 2,
			"results": [
				{"wrapperType": "track", "trackId": 1, "trackName": "First", "artistName": "ArtistX", "collectionId": 10},
				{"wrapperType": "track", "trackId": 2, "trackName": "Second", "artistName": "ArtistX", "collectionId": 10}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	resp, err := client.Search(context.Background(), "ArtistX First", EntitySong, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotQuery["term"] != "ArtistX First" || gotQuery["media"] != "music" ||
		gotQuery["entity"] != "song" || gotQuery["limit"] != "5" {
		t.Errorf("unexpected query parameters: %v", gotQuery)
	}

	if resp.ResultCount != 2 || len(resp.Results) != 2 {
		t.Fatalf("unexpected result count: %d (%d results)", resp.ResultCount, len(resp.Results))
	}

	// Upstream relevance order must be preserved.
	if resp.Results[0].TrackName != "First" || resp.Results[1].TrackName != "Second" {
		t.Errorf("result order changed: %q, %q", resp.Results[0].TrackName, resp.Results[1].TrackName)
	}
}

func TestClient_Search_EmptyTerm(t *testing.T) {
	client := NewClient("http://localhost:0")

	if _, err := client.Search(context.Background(), "", EntitySong, 1); err == nil {
		t.Error("Search() with empty term expected error, got nil")
	}
}

func TestClient_Search_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	if _, err := client.Search(context.Background(), "anything", EntityAlbum, 1); err == nil {
		t.Error("Search() expected error on 503, got nil")
	}
}

func TestClient_LookupTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lookup" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("id") != "123456" {
			t.Errorf("unexpected id %q", r.URL.Query().Get("id"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"resultCount": 3,
			"results": [
				{"wrapperType": "collection", "collectionId": 123456, "collectionName": "AlbumY", "artistName": "ArtistX"},
				{"wrapperType": "track", "trackId": 1, "trackName": "Opener", "trackTimeMillis": 65000, "previewUrl": "https://audio.example/1.m4a"},
				{"wrapperType": "track", "trackId": 2, "trackName": "Closer", "trackTimeMillis": 180000}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	tracks, err := client.LookupTracks(context.Background(), 123456, 200)
	if err != nil {
		t.Fatalf("LookupTracks() error = %v", err)
	}

	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks after dropping the collection container, got %d", len(tracks))
	}
	if tracks[0].TrackName != "Opener" || tracks[1].TrackName != "Closer" {
		t.Errorf("unexpected track order: %q, %q", tracks[0].TrackName, tracks[1].TrackName)
	}
	if tracks[0].PreviewURL != "https://audio.example/1.m4a" {
		t.Errorf("preview URL not decoded: %q", tracks[0].PreviewURL)
	}
}
