// Package store is the persistence gateway for published smart links: a
// gorm-backed relational store with a bloom-filter fast path for duplicate
// checks and an LRU read cache for slug lookups.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fanlink/internal/core"
)

var slugCleanRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Store persists smart links and their platform link rows.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger

	// dedup is a negative-check filter over (title, artist) keys: a miss
	// proves no duplicate exists and skips the lookup query. False positives
	// just cost one query. The filter is not thread-safe, so dedupMu guards
	// every access.
	dedupMu sync.RWMutex
	dedup   *bloom.BloomFilter
	cache   *lru.Cache[string, *SmartLink]
}

// Open connects to the configured database, migrates the schema and warms the
// duplicate filter from existing rows.
func Open(cfg *core.StoreConfig, logger *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := db.AutoMigrate(&SmartLink{}, &PlatformLink{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store schema: %w", err)
	}

	cache, _ := lru.New[string, *SmartLink](cfg.DedupCapacity)

	s := &Store{
		db:     db,
		logger: logger,
		dedup:  bloom.NewWithEstimates(uint(cfg.DedupCapacity), cfg.BloomFalsePositiveRate),
		cache:  cache,
	}

	if err := s.warmDedup(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) warmDedup() error {
	var links []SmartLink
	if err := s.db.Select("title", "artist").Find(&links).Error; err != nil {
		return fmt.Errorf("failed to warm duplicate filter: %w", err)
	}
	s.dedupMu.Lock()
	defer s.dedupMu.Unlock()
	for i := range links {
		s.dedup.AddString(dedupKey(links[i].Title, derefOrEmpty(links[i].Artist)))
	}
	return nil
}

func (s *Store) dedupTest(key string) bool {
	s.dedupMu.RLock()
	defer s.dedupMu.RUnlock()
	return s.dedup.TestString(key)
}

func (s *Store) dedupAdd(key string) {
	s.dedupMu.Lock()
	defer s.dedupMu.Unlock()
	s.dedup.AddString(key)
}

// PublishRecord is the input to Publish.
type PublishRecord struct {
	Slug       string
	Title      string
	Artist     string
	ArtworkURL string
	Platforms  []core.PlatformLink
}

// Publish creates a smart link and its platform rows. A pre-existing record
// with the same (title, artist) short-circuits to its slug instead of creating
// a new one. Parent and child inserts are an explicit two-phase operation: a
// failed child insert deletes the just-created parent so no orphan record
// survives.
func (s *Store) Publish(ctx context.Context, rec PublishRecord) (string, error) {
	key := dedupKey(rec.Title, rec.Artist)

	if s.dedupTest(key) {
		existing, err := s.findByTitleArtist(ctx, rec.Title, rec.Artist)
		if err != nil {
			return "", err
		}
		if existing != nil {
			s.logger.Debug("duplicate publish short-circuited",
				zap.String("slug", existing.Slug),
				zap.String("title", rec.Title))
			return existing.Slug, nil
		}
	}

	link := SmartLink{
		Slug:       rec.Slug,
		Title:      rec.Title,
		Artist:     nilIfEmpty(rec.Artist),
		ArtworkURL: nilIfEmpty(rec.ArtworkURL),
	}

	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		// A slug collision with a different (title, artist) is caller input,
		// not a storage fault.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", core.NewValidationError("Slug is already taken")
		}
		return "", fmt.Errorf("failed to create smart link: %w", err)
	}

	if len(rec.Platforms) > 0 {
		rows := make([]PlatformLink, 0, len(rec.Platforms))
		for _, p := range rec.Platforms {
			rows = append(rows, PlatformLink{
				SmartLinkID: link.ID,
				Platform:    p.Platform,
				URL:         p.URL,
			})
		}

		if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
			// Compensating delete: the parent must not outlive its rows.
			if delErr := s.db.WithContext(ctx).Delete(&SmartLink{}, link.ID).Error; delErr != nil {
				s.logger.Error("failed to roll back orphaned smart link",
					zap.Uint("id", link.ID), zap.Error(delErr))
			}
			return "", fmt.Errorf("failed to create platform links: %w", err)
		}
	}

	s.dedupAdd(key)
	return link.Slug, nil
}

// GetBySlug returns the smart link with its platform rows, or core.ErrNotFound.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*SmartLink, error) {
	if cached, ok := s.cache.Get(slug); ok {
		return cached, nil
	}

	var link SmartLink
	err := s.db.WithContext(ctx).
		Preload("PlatformLinks").
		Where("slug = ?", slug).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load smart link: %w", err)
	}

	s.cache.Add(slug, &link)
	return &link, nil
}

func (s *Store) findByTitleArtist(ctx context.Context, title, artist string) (*SmartLink, error) {
	query := s.db.WithContext(ctx).Where("title = ?", title)
	if artist == "" {
		query = query.Where("artist IS NULL")
	} else {
		query = query.Where("artist = ?", artist)
	}

	var link SmartLink
	err := query.First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate smart link: %w", err)
	}
	return &link, nil
}

// GenerateSlug derives a URL-safe slug from a title plus a short random
// suffix so near-identical titles stay distinct.
func GenerateSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugCleanRegex.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

func dedupKey(title, artist string) string {
	return title + "\x00" + artist
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
