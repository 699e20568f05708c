package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/reeler/reeler/internal/library"
	"github.com/reeler/reeler/internal/media"
	"github.com/reeler/reeler/internal/metadata"
	"github.com/reeler/reeler/internal/metadata/mocks"
	"github.com/reeler/reeler/internal/validate"
)

func newTestImporter(t *testing.T) (*Importer, *mocks.MockProvider, string) {
	t.Helper()
	ctrl := gomock.NewController(t)
	meta := mocks.NewMockProvider(ctrl)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	libRoot := t.TempDir()
	lib := library.NewManager(libRoot, log)
	return New(lib, meta, nil, log), meta, libRoot
}

// writeDownload lays out a fake completed download and returns its root.
func writeDownload(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("video payload"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func matchOf(files ...validate.FileMatch) *validate.MatchResult {
	return &validate.MatchResult{
		MatchedFiles:           files,
		HasAllRequestedContent: true,
		TotalFiles:             len(files),
	}
}

func TestImport_Movie(t *testing.T) {
	imp, meta, libRoot := newTestImporter(t)
	downloadPath := writeDownload(t, "Heat.1995.1080p.mkv")

	meta.EXPECT().
		GetTitle(gomock.Any(), "tt0113277").
		Return(&metadata.Title{ID: "tt0113277", Kind: "movie", Name: "Heat", Year: 1995}, nil)

	report, err := imp.Import(context.Background(), 1, downloadPath, "Heat.1995.1080p.BluRay",
		media.MovieRequest{Title: "Heat", Year: 1995, MetaID: "tt0113277"},
		matchOf(validate.FileMatch{FileIndex: 0, FilePath: "Heat.1995.1080p.mkv", Movie: true}))

	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount())
	assert.Zero(t, report.FailureCount())

	wantDest := filepath.Join(libRoot, "tt0113277", "files", "Heat.1995.1080p.mkv")
	assert.Equal(t, wantDest, report.Units[0].FilePath)
	_, statErr := os.Stat(wantDest)
	assert.NoError(t, statErr, "file must exist in the library tree")
}

func TestImport_Movie_UnknownTitleFallsBackToRequest(t *testing.T) {
	imp, meta, libRoot := newTestImporter(t)
	downloadPath := writeDownload(t, "Obscure.Film.2024.mkv")

	meta.EXPECT().GetTitle(gomock.Any(), "tt999").Return(nil, nil)

	report, err := imp.Import(context.Background(), 1, downloadPath, "Obscure.Film.2024",
		media.MovieRequest{Title: "Obscure Film", Year: 2024, MetaID: "tt999"},
		matchOf(validate.FileMatch{FilePath: "Obscure.Film.2024.mkv", Movie: true}))

	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount())
	_, statErr := os.Stat(filepath.Join(libRoot, "tt999", "metadata.json"))
	assert.NoError(t, statErr)
}

func TestImport_NothingMatched(t *testing.T) {
	imp, _, _ := newTestImporter(t)

	_, err := imp.Import(context.Background(), 1, t.TempDir(), "release",
		media.MovieRequest{Title: "Heat", MetaID: "tt1"},
		&validate.MatchResult{})

	assert.ErrorIs(t, err, ErrNothingMatched)
}

func TestImport_Episode_FileMissingIsFatal(t *testing.T) {
	imp, meta, _ := newTestImporter(t)
	downloadPath := writeDownload(t, "unrelated.txt")

	meta.EXPECT().
		GetTitle(gomock.Any(), "tt1").
		Return(&metadata.Title{ID: "tt1", Kind: "series", Name: "Show"}, nil)
	meta.EXPECT().
		GetEpisodeDetail(gomock.Any(), "ep-2-5").
		Return(&metadata.EpisodeDetail{ID: "ep-2-5", Season: 2, Episode: 5, Title: "Breakage"}, nil)

	report, err := imp.Import(context.Background(), 1, downloadPath, "Show.S02E05",
		media.EpisodeRequest{SeriesTitle: "Show", SeriesID: "tt1", Season: 2, Episode: 5},
		matchOf(validate.FileMatch{FilePath: "Show.S02E05.mkv", Season: 2, Episode: 5, EpisodeID: "ep-2-5"}))

	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Equal(t, 1, report.FailureCount())
}

func TestImport_Season_PartialFailurePersists(t *testing.T) {
	imp, meta, libRoot := newTestImporter(t)
	// E02's file is matched but absent from disk.
	downloadPath := writeDownload(t, "Show.S02E01.mkv")

	meta.EXPECT().
		GetTitle(gomock.Any(), "tt1").
		Return(&metadata.Title{ID: "tt1", Kind: "series", Name: "Show"}, nil)
	meta.EXPECT().
		GetEpisodeDetail(gomock.Any(), gomock.Any()).
		Return(nil, nil).AnyTimes()

	report, err := imp.Import(context.Background(), 1, downloadPath, "Show.S02",
		media.SeasonRequest{SeriesTitle: "Show", SeriesID: "tt1", Season: 2},
		matchOf(
			validate.FileMatch{FilePath: "Show.S02E01.mkv", Season: 2, Episode: 1, EpisodeID: "ep-2-1"},
			validate.FileMatch{FilePath: "Show.S02E02.mkv", Season: 2, Episode: 2, EpisodeID: "ep-2-2"},
		))

	require.NoError(t, err, "per-unit failures don't abort a season batch")
	assert.Equal(t, 1, report.SuccessCount())
	assert.Equal(t, 1, report.FailureCount())
	assert.ErrorIs(t, report.Units[1].Error, ErrFileNotFound)

	// The successful episode stays imported.
	_, statErr := os.Stat(filepath.Join(libRoot, "tt1", "seasons", "S02", "episodes", "E01", "files", "Show.S02E01.mkv"))
	assert.NoError(t, statErr)
}

func TestImport_Series_PartialSuccessWhenSeasonFetchFails(t *testing.T) {
	imp, meta, libRoot := newTestImporter(t)
	downloadPath := writeDownload(t, "Show.S01E01.mkv", "Show.S02E01.mkv")

	meta.EXPECT().
		GetTitle(gomock.Any(), "tt1").
		Return(&metadata.Title{ID: "tt1", Kind: "series", Name: "Show"}, nil)
	// Matches carry no identities, so each season group resolves via the
	// episode list. Season 2's fetch fails.
	meta.EXPECT().
		GetEpisodes(gomock.Any(), "tt1", 1).
		Return([]metadata.Episode{{ID: "ep-1-1", Season: 1, Episode: 1}}, nil)
	meta.EXPECT().
		GetEpisodes(gomock.Any(), "tt1", 2).
		Return(nil, errors.New("api down"))
	meta.EXPECT().
		GetEpisodeDetail(gomock.Any(), "ep-1-1").
		Return(nil, nil)

	report, err := imp.Import(context.Background(), 1, downloadPath, "Show.Complete",
		media.SeriesRequest{SeriesTitle: "Show", SeriesID: "tt1"},
		matchOf(
			validate.FileMatch{FilePath: "Show.S01E01.mkv", Season: 1, Episode: 1},
			validate.FileMatch{FilePath: "Show.S02E01.mkv", Season: 2, Episode: 1},
		))

	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount())
	assert.Equal(t, 1, report.FailureCount())

	_, statErr := os.Stat(filepath.Join(libRoot, "tt1", "seasons", "S01", "episodes", "E01", "files", "Show.S01E01.mkv"))
	assert.NoError(t, statErr, "season 1 must persist despite season 2 failing")
}

func TestImport_Series_DropsUnplaceableMatches(t *testing.T) {
	imp, meta, _ := newTestImporter(t)
	downloadPath := writeDownload(t, "Show.S01E01.mkv")

	meta.EXPECT().
		GetTitle(gomock.Any(), "tt1").
		Return(&metadata.Title{ID: "tt1", Kind: "series", Name: "Show"}, nil)
	meta.EXPECT().
		GetEpisodeDetail(gomock.Any(), "ep-1-1").
		Return(nil, nil)

	report, err := imp.Import(context.Background(), 1, downloadPath, "Show",
		media.SeriesRequest{SeriesTitle: "Show", SeriesID: "tt1"},
		matchOf(
			validate.FileMatch{FilePath: "Show.S01E01.mkv", Season: 1, Episode: 1, EpisodeID: "ep-1-1"},
			validate.FileMatch{FilePath: "stray-feature.mkv", Movie: true},
		))

	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount())
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "stray-feature.mkv")
}
