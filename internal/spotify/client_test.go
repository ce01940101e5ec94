package spotify

import (
	"testing"
)

func TestCanResolve(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{
			name:     "Track URL",
			url:      "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			expected: true,
		},
		{
			name:     "Album URL",
			url:      "https://open.spotify.com/album/6dVIqQ8qmQ5GBnJ9shOYGE",
			expected: true,
		},
		{
			name:     "Intl-prefixed track URL",
			url:      "https://open.spotify.com/intl-de/track/4uLU6hMCjMI75M1A2tKUQC",
			expected: true,
		},
		{
			name:     "Playlist URL not supported",
			url:      "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			expected: false,
		},
		{
			name:     "Different platform",
			url:      "https://music.apple.com/us/album/x/123",
			expected: false,
		},
		{
			name:     "Not a URL",
			url:      "just some text",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanResolve(tt.url)
			if result != tt.expected {
				t.Errorf("CanResolve(%q) = %v, want %v", tt.url, result, tt.expected)
			}
		})
	}
}

func TestTrackURLRegex_ExtractsID(t *testing.T) {
	m := trackURLRegex.FindStringSubmatch("https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc")
	if m == nil {
		t.Fatal("track URL did not match")
	}
	if m[1] != "4uLU6hMCjMI75M1A2tKUQC" {
		t.Errorf("extracted id = %q", m[1])
	}
}
