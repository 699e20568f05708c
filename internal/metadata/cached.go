package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Cache TTLs. Titles and season layouts change rarely; episode lists of
// airing shows grow, so they expire faster.
const (
	titleTTL   = 7 * 24 * time.Hour
	seasonTTL  = 24 * time.Hour
	episodeTTL = 24 * time.Hour
	detailTTL  = 7 * 24 * time.Hour
)

// CachedProvider wraps a Provider with the SQLite TTL cache.
type CachedProvider struct {
	inner Provider
	cache *Cache
	log   *slog.Logger
}

// NewCachedProvider creates a caching wrapper around a provider.
func NewCachedProvider(inner Provider, cache *Cache, log *slog.Logger) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache, log: log}
}

// cachedFetch returns the cached value for key when present and fresh,
// otherwise calls fetch and caches its result. Cache failures degrade to
// a plain fetch; they never fail the lookup.
func cachedFetch[T any](ctx context.Context, p *CachedProvider, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	if data, ok := p.cache.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		p.log.Warn("discarding undecodable cache entry", "key", key)
	}

	v, err := fetch()
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		p.log.Warn("metadata result not cacheable", "key", key, "error", err)
		return v, nil
	}
	if err := p.cache.Set(ctx, key, data, ttl); err != nil {
		p.log.Warn("metadata cache write failed", "key", key, "error", err)
	}
	return v, nil
}

func (p *CachedProvider) GetTitle(ctx context.Context, id string) (*Title, error) {
	return cachedFetch(ctx, p, "title:"+id, titleTTL, func() (*Title, error) {
		return p.inner.GetTitle(ctx, id)
	})
}

func (p *CachedProvider) GetSeasons(ctx context.Context, seriesID string) ([]Season, error) {
	return cachedFetch(ctx, p, "seasons:"+seriesID, seasonTTL, func() ([]Season, error) {
		return p.inner.GetSeasons(ctx, seriesID)
	})
}

func (p *CachedProvider) GetEpisodes(ctx context.Context, seriesID string, season int) ([]Episode, error) {
	key := fmt.Sprintf("episodes:%s:%d", seriesID, season)
	return cachedFetch(ctx, p, key, episodeTTL, func() ([]Episode, error) {
		return p.inner.GetEpisodes(ctx, seriesID, season)
	})
}

func (p *CachedProvider) GetEpisodeDetail(ctx context.Context, episodeID string) (*EpisodeDetail, error) {
	return cachedFetch(ctx, p, "detail:"+episodeID, detailTTL, func() (*EpisodeDetail, error) {
		return p.inner.GetEpisodeDetail(ctx, episodeID)
	})
}
