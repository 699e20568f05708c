// Package validate decides whether the files in a torrent actually
// satisfy a download request, by parsing filenames for season/episode
// markers and reconciling them against the authoritative episode list.
package validate

import (
	"fmt"
	"sort"

	"github.com/reeler/reeler/internal/media"
	"github.com/reeler/reeler/internal/metadata"
	"github.com/reeler/reeler/internal/torrent"
	"github.com/reeler/reeler/pkg/release"
)

// FileMatch records that one torrent file satisfies one requested unit:
// either the movie itself or a specific (season, episode).
type FileMatch struct {
	FileIndex int    `json:"file_index"`
	FilePath  string `json:"file_path"`
	Movie     bool   `json:"movie,omitempty"`
	Season    int    `json:"season,omitempty"`
	Episode   int    `json:"episode,omitempty"`
	EpisodeID string `json:"episode_id,omitempty"` // external metadata ID when known
}

// MatchResult is the single source of truth the caller uses to decide
// whether to warn the user before downloading or importing.
//
// Invariant: HasAllRequestedContent is true exactly when MissingContent
// is empty and MatchedFiles is non-empty.
type MatchResult struct {
	MatchedFiles           []FileMatch `json:"matched_files"`
	MissingContent         []string    `json:"missing_content"`
	Warnings               []string    `json:"warnings"`
	HasAllRequestedContent bool        `json:"has_all_requested_content"`
	TotalFiles             int         `json:"total_files"`
}

// finalize recomputes the completeness flag. Every code path that builds
// a MatchResult must end here so the invariant holds unconditionally.
func (r *MatchResult) finalize() *MatchResult {
	r.HasAllRequestedContent = len(r.MissingContent) == 0 && len(r.MatchedFiles) > 0
	return r
}

func (r *MatchResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// MatchMovie selects the movie's main feature from the torrent: the
// largest video file. Extras and samples are smaller than the feature,
// so size is the deciding heuristic.
func MatchMovie(files []torrent.File, req media.MovieRequest) *MatchResult {
	result := &MatchResult{TotalFiles: len(files)}

	var best *torrent.File
	for i := range files {
		f := &files[i]
		if !release.IsVideoFile(f.Path) {
			continue
		}
		if best == nil || f.Size > best.Size {
			best = f
		}
	}

	if best == nil {
		result.warnf("no video files found in torrent for %s", req.Describe())
		result.MissingContent = []string{"Movie video file"}
		return result.finalize()
	}

	result.MatchedFiles = []FileMatch{{
		FileIndex: best.Index,
		FilePath:  best.Path,
		Movie:     true,
	}}
	return result.finalize()
}

type seasonEpisode struct {
	season  int
	episode int
}

// MatchEpisodes reconciles the torrent's video files against the expected
// episode identities. Files whose names cannot be parsed are skipped with
// a warning; files that parse to an episode outside the expected set are
// skipped with a warning so a torrent bundling extra seasons never leaks
// unrequested content into the match. Expected episodes with no file end
// up in MissingContent.
func MatchEpisodes(files []torrent.File, expected []metadata.Episode) *MatchResult {
	result := &MatchResult{TotalFiles: len(files)}

	want := make(map[seasonEpisode]metadata.Episode, len(expected))
	for _, ep := range expected {
		want[seasonEpisode{ep.Season, ep.Episode}] = ep
	}
	found := make(map[seasonEpisode]bool, len(want))

	for _, f := range files {
		if !release.IsVideoFile(f.Path) {
			continue
		}

		season, episode, ok := release.ParseSeasonEpisode(f.Path)
		if !ok {
			result.warnf("cannot parse season/episode from %q, skipping", f.Path)
			continue
		}

		key := seasonEpisode{season, episode}
		ep, wanted := want[key]
		if !wanted {
			result.warnf("%q (%s) doesn't match any expected episodes, skipping",
				f.Path, release.FormatEpisodeCode(season, episode))
			continue
		}
		if found[key] {
			result.warnf("duplicate file for %s: %q, keeping first match",
				release.FormatEpisodeCode(season, episode), f.Path)
			continue
		}

		found[key] = true
		result.MatchedFiles = append(result.MatchedFiles, FileMatch{
			FileIndex: f.Index,
			FilePath:  f.Path,
			Season:    season,
			Episode:   episode,
			EpisodeID: ep.ID,
		})
	}

	missing := make([]seasonEpisode, 0)
	for key := range want {
		if !found[key] {
			missing = append(missing, key)
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		if missing[i].season != missing[j].season {
			return missing[i].season < missing[j].season
		}
		return missing[i].episode < missing[j].episode
	})
	for _, key := range missing {
		result.MissingContent = append(result.MissingContent,
			release.FormatEpisodeCode(key.season, key.episode))
	}

	return result.finalize()
}
