// Package importer moves validated torrent content into the media
// library. Each matched file is one unit of work; units are imported
// independently so a season with one bad file still lands the rest.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/reeler/reeler/internal/library"
	"github.com/reeler/reeler/internal/media"
	"github.com/reeler/reeler/internal/metadata"
	"github.com/reeler/reeler/internal/validate"
)

// Importer processes validated downloads.
type Importer struct {
	library *library.Manager
	meta    metadata.Provider
	history *HistoryStore // nil disables history recording
	log     *slog.Logger
}

// New creates an importer.
func New(lib *library.Manager, meta metadata.Provider, history *HistoryStore, log *slog.Logger) *Importer {
	return &Importer{
		library: lib,
		meta:    meta,
		history: history,
		log:     log.With("component", "importer"),
	}
}

// UnitResult is the outcome of importing one matched file.
type UnitResult struct {
	EntityID  string // library entity internal ID (empty if creation failed)
	Movie     bool
	Season    int
	Episode   int
	FilePath  string // destination path (empty if failed)
	SizeBytes int64
	Success   bool
	Error     error // nil if success
}

// Report aggregates per-unit outcomes of one import call. Partial
// success is normal: callers inspect FailureCount rather than treating
// a non-nil Report as all-or-nothing.
type Report struct {
	Units     []UnitResult
	Warnings  []string
	TotalSize int64
}

// SuccessCount returns the number of successfully imported units.
func (r *Report) SuccessCount() int {
	n := 0
	for _, u := range r.Units {
		if u.Success {
			n++
		}
	}
	return n
}

// FailureCount returns the number of failed units.
func (r *Report) FailureCount() int {
	return len(r.Units) - r.SuccessCount()
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) add(u UnitResult) {
	r.Units = append(r.Units, u)
	if u.Success {
		r.TotalSize += u.SizeBytes
	}
}

// Import places the match result's files into the library. downloadPath
// is where the torrent client left the content, releaseName is the
// torrent's display name (recorded as each file's source).
//
// Root entity creation failures are fatal. Individual unit failures are
// not rolled back and do not abort the batch for season and series
// requests; everything that imported stays imported.
func (i *Importer) Import(ctx context.Context, downloadID int64, downloadPath, releaseName string, req media.Request, match *validate.MatchResult) (*Report, error) {
	if match == nil || len(match.MatchedFiles) == 0 {
		return nil, ErrNothingMatched
	}

	i.log.Info("import started",
		"download_id", downloadID,
		"path", downloadPath,
		"request", req.Describe(),
		"files", len(match.MatchedFiles),
	)

	var (
		report *Report
		err    error
	)
	switch r := req.(type) {
	case media.MovieRequest:
		report, err = i.importMovie(ctx, downloadID, downloadPath, releaseName, r, match)
	case media.EpisodeRequest:
		report, err = i.importEpisodic(ctx, downloadID, downloadPath, releaseName, r.SeriesID, r.SeriesTitle, match, true)
	case media.SeasonRequest:
		report, err = i.importEpisodic(ctx, downloadID, downloadPath, releaseName, r.SeriesID, r.SeriesTitle, match, false)
	case media.SeriesRequest:
		report, err = i.importEpisodic(ctx, downloadID, downloadPath, releaseName, r.SeriesID, r.SeriesTitle, match, false)
	default:
		return nil, fmt.Errorf("unsupported request variant %T", req)
	}
	if err != nil {
		return report, err
	}

	i.log.Info("import complete",
		"download_id", downloadID,
		"imported", report.SuccessCount(),
		"failed", report.FailureCount(),
		"total_size", report.TotalSize,
	)
	return report, nil
}

func (i *Importer) importMovie(ctx context.Context, downloadID int64, downloadPath, releaseName string, req media.MovieRequest, match *validate.MatchResult) (*Report, error) {
	report := &Report{}

	title, err := i.movieTitle(ctx, req)
	if err != nil {
		return report, err
	}
	entity, err := i.library.GetOrCreateMovie(title)
	if err != nil {
		return report, fmt.Errorf("create movie entity: %w", err)
	}

	fm := match.MatchedFiles[0]
	src, err := locateFile(downloadPath, fm.FilePath)
	if err != nil {
		return report, err
	}

	file, err := i.library.AddDownloadedFile(entity.ID, src, releaseName, "")
	if err != nil {
		return report, fmt.Errorf("attach movie file: %w", err)
	}

	report.add(UnitResult{
		EntityID:  entity.ID,
		Movie:     true,
		FilePath:  file.FilePath,
		SizeBytes: file.FileSize,
		Success:   true,
	})
	i.recordImported(downloadID, entity.ExternalID, src, file)
	return report, nil
}

// movieTitle fetches the full title record, falling back to the
// request's own fields when the metadata API has no entry.
func (i *Importer) movieTitle(ctx context.Context, req media.MovieRequest) (*metadata.Title, error) {
	if req.MetaID == "" {
		return nil, fmt.Errorf("%w: movie %q", ErrMissingMetadataID, req.Title)
	}
	title, err := i.meta.GetTitle(ctx, req.MetaID)
	if err != nil {
		i.log.Warn("title lookup failed, using request fields", "meta_id", req.MetaID, "error", err)
	}
	if title == nil {
		title = &metadata.Title{ID: req.MetaID, Kind: "movie", Name: req.Title, Year: req.Year}
	}
	return title, nil
}

// importEpisodic handles episode, season, and series requests. They
// differ only in how the validator restricted the expected set; by the
// time matching is done, the work is identical: group the matched files
// by season, walk each group. singleUnit makes a unit failure fatal,
// which is the right behavior when the request was for exactly one
// episode.
func (i *Importer) importEpisodic(ctx context.Context, downloadID int64, downloadPath, releaseName, seriesID, seriesTitle string, match *validate.MatchResult, singleUnit bool) (*Report, error) {
	report := &Report{}

	if seriesID == "" {
		return report, fmt.Errorf("%w: series %q", ErrMissingMetadataID, seriesTitle)
	}
	title, err := i.meta.GetTitle(ctx, seriesID)
	if err != nil {
		i.log.Warn("series lookup failed, using request fields", "series_id", seriesID, "error", err)
	}
	if title == nil {
		title = &metadata.Title{ID: seriesID, Kind: "series", Name: seriesTitle}
	}
	series, err := i.library.GetOrCreateSeries(title)
	if err != nil {
		return report, fmt.Errorf("create series entity: %w", err)
	}

	groups := groupBySeason(match.MatchedFiles, report)
	seasons := make([]int, 0, len(groups))
	for n := range groups {
		seasons = append(seasons, n)
	}
	sort.Ints(seasons)

	for _, seasonNum := range seasons {
		matches := groups[seasonNum]

		season, err := i.library.GetOrCreateSeason(series.ID, seasonNum)
		if err != nil {
			err = fmt.Errorf("create season %d entity: %w", seasonNum, err)
			if singleUnit {
				return report, err
			}
			i.log.Warn("skipping season group", "season", seasonNum, "error", err)
			for _, fm := range matches {
				report.add(failedUnit(fm, err))
			}
			continue
		}

		identities, err := i.seasonIdentities(ctx, seriesID, seasonNum, matches)
		if err != nil {
			err = fmt.Errorf("resolve episode identities for season %d: %w", seasonNum, err)
			if singleUnit {
				return report, err
			}
			i.log.Warn("skipping season group", "season", seasonNum, "error", err)
			for _, fm := range matches {
				report.add(failedUnit(fm, err))
			}
			continue
		}

		for _, fm := range matches {
			unit := i.importEpisodeFile(ctx, season, fm, identities[fm.Episode], downloadPath, releaseName, downloadID)
			report.add(unit)
			if !unit.Success {
				if singleUnit {
					return report, unit.Error
				}
				i.log.Warn("episode import failed",
					"season", fm.Season, "episode", fm.Episode, "error", unit.Error)
			}
		}
	}

	return report, nil
}

// groupBySeason buckets matched files by season number. Movie matches
// and matches without episode markers can't be placed in a series tree;
// they are dropped with a warning.
func groupBySeason(matches []validate.FileMatch, report *Report) map[int][]validate.FileMatch {
	groups := make(map[int][]validate.FileMatch)
	for _, fm := range matches {
		if fm.Movie || (fm.Season == 0 && fm.Episode == 0) {
			report.warnf("%q has no season grouping, dropped", fm.FilePath)
			continue
		}
		groups[fm.Season] = append(groups[fm.Season], fm)
	}
	return groups
}

// seasonIdentities resolves each matched episode number to its external
// metadata identity. Matches carry the identity from validation; the
// episode list is fetched only when some match lacks one.
func (i *Importer) seasonIdentities(ctx context.Context, seriesID string, season int, matches []validate.FileMatch) (map[int]metadata.Episode, error) {
	identities := make(map[int]metadata.Episode, len(matches))

	needFetch := false
	for _, fm := range matches {
		if fm.EpisodeID == "" {
			needFetch = true
			continue
		}
		identities[fm.Episode] = metadata.Episode{
			ID:      fm.EpisodeID,
			Season:  fm.Season,
			Episode: fm.Episode,
		}
	}
	if !needFetch {
		return identities, nil
	}

	episodes, err := i.meta.GetEpisodes(ctx, seriesID, season)
	if err != nil {
		return nil, err
	}
	for _, ep := range episodes {
		if _, ok := identities[ep.Episode]; !ok {
			identities[ep.Episode] = ep
		}
	}
	return identities, nil
}

// importEpisodeFile imports a single matched file into its episode
// entity. Full episode detail is fetched best-effort; the identity
// alone is enough to place the file.
func (i *Importer) importEpisodeFile(ctx context.Context, season *library.MediaEntity, fm validate.FileMatch, identity metadata.Episode, downloadPath, releaseName string, downloadID int64) UnitResult {
	if identity.ID == "" {
		return failedUnit(fm, fmt.Errorf("no metadata identity for S%02dE%02d", fm.Season, fm.Episode))
	}

	detail, err := i.meta.GetEpisodeDetail(ctx, identity.ID)
	if err != nil {
		i.log.Warn("episode detail fetch failed", "episode_id", identity.ID, "error", err)
		detail = nil
	}

	episode, err := i.library.GetOrCreateEpisode(season.ID, identity, detail)
	if err != nil {
		return failedUnit(fm, fmt.Errorf("create episode entity: %w", err))
	}

	src, err := locateFile(downloadPath, fm.FilePath)
	if err != nil {
		return failedUnit(fm, err)
	}

	file, err := i.library.AddDownloadedFile(episode.ID, src, releaseName, "")
	if err != nil {
		return failedUnit(fm, fmt.Errorf("attach episode file: %w", err))
	}

	i.recordImported(downloadID, episode.ExternalID, src, file)
	return UnitResult{
		EntityID:  episode.ID,
		Season:    fm.Season,
		Episode:   fm.Episode,
		FilePath:  file.FilePath,
		SizeBytes: file.FileSize,
		Success:   true,
	}
}

func failedUnit(fm validate.FileMatch, err error) UnitResult {
	return UnitResult{
		Movie:   fm.Movie,
		Season:  fm.Season,
		Episode: fm.Episode,
		Success: false,
		Error:   err,
	}
}

// recordImported appends a history entry, best effort.
func (i *Importer) recordImported(downloadID int64, externalID, src string, file *library.DownloadedFile) {
	if i.history == nil {
		return
	}
	data, _ := json.Marshal(map[string]any{
		"source_path": src,
		"dest_path":   file.FilePath,
		"size_bytes":  file.FileSize,
		"quality":     file.Quality,
		"source":      file.Source,
	})
	_ = i.history.Add(&HistoryEntry{
		DownloadID: &downloadID,
		EntityID:   externalID,
		Event:      EventImported,
		Data:       string(data),
	})
}
