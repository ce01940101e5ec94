package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"go.uber.org/zap"

	"fanlink/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := &core.StoreConfig{
		Driver:                 "sqlite",
		DSN:                    ":memory:",
		DedupCapacity:          100,
		BloomFalsePositiveRate: 0.01,
	}

	s, err := Open(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func testRecord(slug string) PublishRecord {
	return PublishRecord{
		Slug:       slug,
		Title:      "AlbumY",
		Artist:     "ArtistX",
		ArtworkURL: "https://artwork.example/cover.jpg",
		Platforms: []core.PlatformLink{
			{Platform: core.PlatformSpotify, URL: "https://open.spotify.com/album/abc"},
			{Platform: core.PlatformAppleMusic, URL: "https://music.apple.com/us/album/123456"},
			{Platform: core.PlatformPreview, URL: "https://audio.example/1.m4a"},
			{Platform: core.PlatformMetaType, URL: "album"},
		},
	}
}

func TestStore_PublishAndGetBySlug(t *testing.T) {
	s := newTestStore(t)

	slug, err := s.Publish(context.Background(), testRecord("albumy-abc123"))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if slug != "albumy-abc123" {
		t.Errorf("Publish() slug = %q", slug)
	}

	link, err := s.GetBySlug(context.Background(), slug)
	if err != nil {
		t.Fatalf("GetBySlug() error = %v", err)
	}

	if link.Title != "AlbumY" {
		t.Errorf("title = %q", link.Title)
	}
	if link.Artist == nil || *link.Artist != "ArtistX" {
		t.Errorf("artist = %v", link.Artist)
	}
	if len(link.PlatformLinks) != 4 {
		t.Fatalf("got %d platform rows, want 4", len(link.PlatformLinks))
	}

	// Cached lookup returns the same record.
	again, err := s.GetBySlug(context.Background(), slug)
	if err != nil {
		t.Fatalf("GetBySlug() second call error = %v", err)
	}
	if again.Slug != link.Slug {
		t.Errorf("cached slug = %q, want %q", again.Slug, link.Slug)
	}
}

func TestStore_GetBySlug_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetBySlug(context.Background(), "missing-slug")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetBySlug() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Publish_DuplicateShortCircuits(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Publish(context.Background(), testRecord("albumy-first"))
	if err != nil {
		t.Fatalf("first Publish() error = %v", err)
	}

	// Same title+artist under a different slug: must return the first slug
	// and create nothing new.
	second, err := s.Publish(context.Background(), testRecord("albumy-second"))
	if err != nil {
		t.Fatalf("second Publish() error = %v", err)
	}
	if second != first {
		t.Errorf("duplicate publish returned %q, want existing slug %q", second, first)
	}

	var count int64
	if err := s.db.Model(&SmartLink{}).Count(&count).Error; err != nil {
		t.Fatalf("count error = %v", err)
	}
	if count != 1 {
		t.Errorf("smart link rows = %d, want 1", count)
	}
}

func TestStore_Publish_NullArtistDuplicate(t *testing.T) {
	s := newTestStore(t)

	rec := PublishRecord{Slug: "untitled-1", Title: "Untitled"}
	if _, err := s.Publish(context.Background(), rec); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	rec.Slug = "untitled-2"
	slug, err := s.Publish(context.Background(), rec)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if slug != "untitled-1" {
		t.Errorf("duplicate with NULL artist returned %q, want untitled-1", slug)
	}
}

// Publishing a taken slug under a different (title, artist) is caller input
// error, not a storage fault.
func TestStore_Publish_SlugCollision(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Publish(context.Background(), testRecord("shared-slug")); err != nil {
		t.Fatalf("first Publish() error = %v", err)
	}

	rec := testRecord("shared-slug")
	rec.Title = "Different Album"
	rec.Artist = "Different Artist"
	_, err := s.Publish(context.Background(), rec)
	if err == nil {
		t.Fatal("Publish() with a taken slug should error")
	}
	if !core.IsValidationError(err) {
		t.Errorf("Publish() error = %v, want a validation error", err)
	}
}

// Publish is called from concurrent request handlers; run it in parallel so
// the race detector covers the dedup filter.
func TestStore_Publish_Concurrent(t *testing.T) {
	s := newTestStore(t)

	// An in-memory sqlite database exists per connection; pin the pool to one
	// so every goroutine sees the migrated schema.
	sqlDB, err := s.db.DB()
	if err != nil {
		t.Fatalf("DB() error = %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := PublishRecord{
				Slug:  fmt.Sprintf("song-%d", i),
				Title: fmt.Sprintf("Song %d", i),
			}
			if _, err := s.Publish(context.Background(), rec); err != nil {
				t.Errorf("Publish() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	var count int64
	if err := s.db.Model(&SmartLink{}).Count(&count).Error; err != nil {
		t.Fatalf("count error = %v", err)
	}
	if count != 8 {
		t.Errorf("smart link rows = %d, want 8", count)
	}
}

// A failed platform row insert must delete the just-created parent: no orphan
// smart link with zero platform rows may survive.
func TestStore_Publish_CompensatingDelete(t *testing.T) {
	s := newTestStore(t)

	// Force the child insert to fail after the parent insert succeeded.
	if err := s.db.Migrator().DropTable(&PlatformLink{}); err != nil {
		t.Fatalf("DropTable() error = %v", err)
	}

	_, err := s.Publish(context.Background(), testRecord("albumy-doomed"))
	if err == nil {
		t.Fatal("Publish() expected error when platform insert fails")
	}

	var count int64
	if err := s.db.Model(&SmartLink{}).Count(&count).Error; err != nil {
		t.Fatalf("count error = %v", err)
	}
	if count != 0 {
		t.Errorf("orphan smart link rows = %d, want 0", count)
	}
}

func TestGenerateSlug(t *testing.T) {
	slugPattern := regexp.MustCompile(`^[a-z0-9-]+$`)

	tests := []struct {
		name  string
		title string
	}{
		{name: "Simple title", title: "AlbumY"},
		{name: "Punctuation and spaces", title: "What's Up? (Deluxe)"},
		{name: "Empty title", title: ""},
		{name: "Only punctuation", title: "!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slug := GenerateSlug(tt.title)
			if !slugPattern.MatchString(slug) {
				t.Errorf("GenerateSlug(%q) = %q, not slug-shaped", tt.title, slug)
			}
			if len(slug) < 3 {
				t.Errorf("GenerateSlug(%q) = %q, shorter than 3", tt.title, slug)
			}
		})
	}

	if GenerateSlug("Same Title") == GenerateSlug("Same Title") {
		t.Error("GenerateSlug should produce distinct slugs for the same title")
	}
}
