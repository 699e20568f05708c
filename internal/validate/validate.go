package validate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reeler/reeler/internal/media"
	"github.com/reeler/reeler/internal/metadata"
	"github.com/reeler/reeler/internal/torrent"
	"github.com/reeler/reeler/pkg/release"
)

// Validator fetches a torrent's file list and matches it against a
// download request. One fetch attempt per call; retries are a caller
// concern.
type Validator struct {
	torrents torrent.Client
	meta     metadata.Provider
	log      *slog.Logger
}

// New creates a validator.
func New(torrents torrent.Client, meta metadata.Provider, log *slog.Logger) *Validator {
	return &Validator{
		torrents: torrents,
		meta:     meta,
		log:      log,
	}
}

// Validate fetches the torrent's file list and reconciles it against the
// request. releaseName is the torrent's display name, used only for a
// best-effort title sanity warning on movie requests.
//
// The file-list fetch can block for tens of seconds on magnet links; it
// honors ctx cancellation. A fetch failure is wrapped in ErrMetadataFetch
// and is fatal to this validation attempt.
func (v *Validator) Validate(ctx context.Context, infoHash, releaseName string, req media.Request) (*MatchResult, error) {
	files, err := v.torrents.Files(ctx, infoHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataFetch, err)
	}

	v.log.Debug("validating torrent",
		"info_hash", infoHash,
		"files", len(files),
		"request", req.Describe(),
	)

	var result *MatchResult
	switch r := req.(type) {
	case media.MovieRequest:
		result = MatchMovie(files, r)
		v.checkMovieTitle(result, releaseName, r.Title)

	case media.EpisodeRequest:
		expected, err := v.expectedForEpisode(ctx, r)
		if err != nil {
			return nil, err
		}
		result = MatchEpisodes(files, expected)
		if len(expected) == 0 {
			result.warnf("metadata provider has no record of %s", r.Describe())
		}

	case media.SeasonRequest:
		expected, err := v.meta.GetEpisodes(ctx, r.SeriesID, r.Season)
		if err != nil {
			return nil, fmt.Errorf("%w: season %d of %s: %v", ErrEpisodeList, r.Season, r.SeriesTitle, err)
		}
		result = MatchEpisodes(files, expected)
		if len(expected) == 0 {
			result.warnf("metadata provider has no episodes for %s", r.Describe())
		}

	case media.SeriesRequest:
		expected, err := v.expectedForSeries(ctx, r)
		if err != nil {
			return nil, err
		}
		result = MatchEpisodes(files, expected)
		if len(expected) == 0 {
			result.warnf("metadata provider has no episodes for %s", r.Describe())
		}

	default:
		return nil, fmt.Errorf("unsupported request variant %T", req)
	}

	v.log.Info("validation complete",
		"info_hash", infoHash,
		"matched", len(result.MatchedFiles),
		"missing", len(result.MissingContent),
		"warnings", len(result.Warnings),
		"complete", result.HasAllRequestedContent,
	)
	return result, nil
}

// checkMovieTitle warns when the torrent name does not resemble the
// requested title. Warning only; the selection heuristic stands and the
// user decides at the confirm gate.
func (v *Validator) checkMovieTitle(result *MatchResult, releaseName, wantedTitle string) {
	if releaseName == "" || wantedTitle == "" {
		return
	}
	if release.TitleConfidence(releaseName, wantedTitle) == release.ConfidenceNone {
		result.warnf("torrent name %q doesn't resemble %q", releaseName, wantedTitle)
	}
}

// expectedForEpisode restricts the season's episode list to the one
// requested episode.
func (v *Validator) expectedForEpisode(ctx context.Context, r media.EpisodeRequest) ([]metadata.Episode, error) {
	episodes, err := v.meta.GetEpisodes(ctx, r.SeriesID, r.Season)
	if err != nil {
		return nil, fmt.Errorf("%w: season %d of %s: %v", ErrEpisodeList, r.Season, r.SeriesTitle, err)
	}
	for _, ep := range episodes {
		if ep.Episode == r.Episode {
			return []metadata.Episode{ep}, nil
		}
	}
	return nil, nil
}

// expectedForSeries collects episode identities across every season the
// metadata provider lists.
func (v *Validator) expectedForSeries(ctx context.Context, r media.SeriesRequest) ([]metadata.Episode, error) {
	seasons, err := v.meta.GetSeasons(ctx, r.SeriesID)
	if err != nil {
		return nil, fmt.Errorf("%w: seasons of %s: %v", ErrEpisodeList, r.SeriesTitle, err)
	}

	var all []metadata.Episode
	for _, season := range seasons {
		episodes, err := v.meta.GetEpisodes(ctx, r.SeriesID, season.Number)
		if err != nil {
			return nil, fmt.Errorf("%w: season %d of %s: %v", ErrEpisodeList, season.Number, r.SeriesTitle, err)
		}
		all = append(all, episodes...)
	}
	return all, nil
}
