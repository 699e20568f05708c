// Package media defines the download request types shared by the
// validator, importer, and download tracker.
package media

import (
	"fmt"

	"github.com/reeler/reeler/pkg/release"
)

// Request is what the user asked to download: a single movie, a single
// episode, a whole season, or a whole series. It is a sealed sum type;
// consumers dispatch with an exhaustive type switch and treat an unknown
// variant as a programming error.
type Request interface {
	// Describe returns a short human-readable identifier for logs.
	Describe() string

	isRequest()
}

// MovieRequest asks for a single movie.
type MovieRequest struct {
	Title  string
	Year   int
	MetaID string // external metadata ID
}

// EpisodeRequest asks for one episode of a series.
type EpisodeRequest struct {
	SeriesTitle string
	SeriesID    string // external metadata ID of the series
	Season      int
	Episode     int
}

// SeasonRequest asks for every episode of one season.
type SeasonRequest struct {
	SeriesTitle string
	SeriesID    string
	Season      int
}

// SeriesRequest asks for every episode of every season.
type SeriesRequest struct {
	SeriesTitle string
	SeriesID    string
}

func (MovieRequest) isRequest()   {}
func (EpisodeRequest) isRequest() {}
func (SeasonRequest) isRequest()  {}
func (SeriesRequest) isRequest()  {}

func (r MovieRequest) Describe() string {
	if r.Year > 0 {
		return fmt.Sprintf("%s (%d)", r.Title, r.Year)
	}
	return r.Title
}

func (r EpisodeRequest) Describe() string {
	return fmt.Sprintf("%s %s", r.SeriesTitle, release.FormatEpisodeCode(r.Season, r.Episode))
}

func (r SeasonRequest) Describe() string {
	return fmt.Sprintf("%s Season %d", r.SeriesTitle, r.Season)
}

func (r SeriesRequest) Describe() string {
	return fmt.Sprintf("%s (all seasons)", r.SeriesTitle)
}
