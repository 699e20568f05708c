// Package metadata provides access to the external title-lookup API:
// series/season/episode listings and full episode detail records.
package metadata

import (
	"context"
)

// Title is a movie or series record from the metadata API.
type Title struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"` // "movie" or "series"
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Genres      []string `json:"genres"`
	Description string   `json:"description"`
	Rating      float64  `json:"rating"`
}

// Season summarizes one season of a series.
type Season struct {
	Number       int `json:"number"`
	EpisodeCount int `json:"episode_count"`
}

// Episode identifies one episode of a series. This is the identity the
// validator reconciles torrent files against; it carries no plot detail.
type Episode struct {
	ID      string `json:"id"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
	Title   string `json:"title"`
}

// EpisodeDetail is the full episode record used to populate library
// entities at import time. AirDate stays the API's YYYY-MM-DD string;
// nothing downstream does date arithmetic on it.
type EpisodeDetail struct {
	ID          string  `json:"id"`
	Season      int     `json:"season"`
	Episode     int     `json:"episode"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Rating      float64 `json:"rating"`
	AirDate     string  `json:"air_date"`
}

//go:generate mockgen -destination=mocks/provider.go -package=mocks github.com/reeler/reeler/internal/metadata Provider

// Provider is the metadata-API collaborator contract. Implementations
// return (nil, nil) for not-found rather than an error; errors mean the
// lookup itself failed.
type Provider interface {
	// GetTitle fetches a movie or series record by external ID.
	GetTitle(ctx context.Context, id string) (*Title, error)
	// GetSeasons lists season summaries for a series.
	GetSeasons(ctx context.Context, seriesID string) ([]Season, error)
	// GetEpisodes lists episode identities for one season of a series.
	GetEpisodes(ctx context.Context, seriesID string, season int) ([]Episode, error)
	// GetEpisodeDetail fetches the full record for a single episode.
	GetEpisodeDetail(ctx context.Context, episodeID string) (*EpisodeDetail, error)
}
