package core

import (
	"context"
	"errors"
	"fmt"

	"fanlink/pkg/songlink"
)

// LinkResolver resolves a platform music URL into the canonical entity.
type LinkResolver interface {
	Resolve(ctx context.Context, url string) (*ResolvedLink, error)
}

// songLinkAdapter adapts pkg/songlink.Resolver to core.LinkResolver,
// translating its types and sentinel errors into the core taxonomy.
type songLinkAdapter struct {
	resolver *songlink.Resolver
}

// NewSongLinkResolver wraps a songlink resolver as a core.LinkResolver.
func NewSongLinkResolver(resolver *songlink.Resolver) LinkResolver {
	return &songLinkAdapter{resolver: resolver}
}

func (a *songLinkAdapter) Resolve(ctx context.Context, url string) (*ResolvedLink, error) {
	resolved, err := a.resolver.Resolve(ctx, url)
	if err != nil {
		switch {
		case errors.Is(err, songlink.ErrEntityNotFound):
			return nil, fmt.Errorf("%w: %v", ErrEntityNotFound, err)
		case errors.Is(err, songlink.ErrUpstream):
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		default:
			return nil, err
		}
	}

	platforms := make([]PlatformLink, 0, len(resolved.Platforms))
	for _, p := range resolved.Platforms {
		platforms = append(platforms, PlatformLink{
			Platform: p.Platform,
			URL:      p.URL,
		})
	}

	return &ResolvedLink{
		Title:      resolved.Title,
		Artist:     resolved.Artist,
		ArtworkURL: resolved.ArtworkURL,
		EntityType: EntityType(resolved.EntityType),
		Platforms:  platforms,
	}, nil
}
