// Package library owns the on-disk media library: one JSON sidecar per
// entity, mirrored by an in-memory cache. The directory hierarchy is a
// persisted contract that external tools (media players, file browsers)
// walk directly, so it never changes shape:
//
//	root/<externalID>/metadata.json              movie or series
//	root/<externalID>/seasons/S01/metadata.json  season
//	.../seasons/S01/episodes/E05/metadata.json   episode
//
// with sibling files/ directories holding the actual media files.
package library

import "time"

// MediaType distinguishes the four entity kinds.
type MediaType string

const (
	TypeMovie   MediaType = "movie"
	TypeSeries  MediaType = "series"
	TypeSeason  MediaType = "season"
	TypeEpisode MediaType = "episode"
)

// MediaEntity is one node of the library tree. Movies and series live at
// the root; seasons and episodes hang off their parents via SeriesID and
// SeasonID (internal IDs). Entities are created lazily on first import
// and mutated only by appending DownloadedFile records; the import
// pipeline never deletes them.
type MediaEntity struct {
	ID            string           `json:"id"`
	ExternalID    string           `json:"external_id"`
	Title         string           `json:"title"`
	Type          MediaType        `json:"media_type"`
	Year          int              `json:"year,omitempty"`
	Genres        []string         `json:"genres,omitempty"`
	Description   string           `json:"description,omitempty"`
	Rating        float64          `json:"rating,omitempty"`
	SeriesID      string           `json:"series_id,omitempty"`
	SeasonID      string           `json:"season_id,omitempty"`
	SeasonNumber  int              `json:"season_number,omitempty"`
	EpisodeNumber int              `json:"episode_number,omitempty"`
	AirDate       string           `json:"air_date,omitempty"`
	Files         []DownloadedFile `json:"downloaded_files"`
	AddedAt       time.Time        `json:"added_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// DownloadedFile records one media file that has been moved into the
// entity's files/ directory. A record existing implies the file exists
// at FilePath; the move happens before the record is appended.
type DownloadedFile struct {
	ID             string    `json:"id"`
	OwningEntityID string    `json:"owning_entity_id"`
	FilePath       string    `json:"file_path"`
	Quality        string    `json:"quality"`
	FileSize       int64     `json:"file_size"`
	Source         string    `json:"source"`
	AddedAt        time.Time `json:"added_at"`
}
