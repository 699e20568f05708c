package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	_ "modernc.org/sqlite"

	"github.com/reeler/reeler/internal/download"
	"github.com/reeler/reeler/internal/importer"
	"github.com/reeler/reeler/internal/library"
	"github.com/reeler/reeler/internal/media"
	"github.com/reeler/reeler/internal/metadata"
	metamocks "github.com/reeler/reeler/internal/metadata/mocks"
	"github.com/reeler/reeler/internal/migrations"
	"github.com/reeler/reeler/internal/torrent"
	torrentmocks "github.com/reeler/reeler/internal/torrent/mocks"
	"github.com/reeler/reeler/internal/validate"
)

type testEnv struct {
	torrents *torrentmocks.MockClient
	meta     *metamocks.MockProvider
	store    *download.Store
	pipeline *Pipeline
	mux      *http.ServeMux
	libRoot  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	torrents := torrentmocks.NewMockClient(ctrl)
	meta := metamocks.NewMockProvider(ctrl)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err)

	libRoot := t.TempDir()
	lib := library.NewManager(libRoot, log)
	history := importer.NewHistoryStore(db)
	imp := importer.New(lib, meta, history, log)
	validator := validate.New(torrents, meta, log)
	store := download.NewStore(db)
	manager := download.NewManager(torrents, store, log)
	pipeline := NewPipeline(manager, validator, imp, log)
	api := NewAPI(manager, pipeline, lib, history, log)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	return &testEnv{
		torrents: torrents,
		meta:     meta,
		store:    store,
		pipeline: pipeline,
		mux:      mux,
		libRoot:  libRoot,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// addCompleted seeds a download record already in completed status with
// its content on disk, returning the record and the download dir.
func (e *testEnv) addCompleted(t *testing.T, infoHash, releaseName string, req media.Request, files ...string) (*download.Download, string) {
	t.Helper()
	d := &download.Download{InfoHash: infoHash, ReleaseName: releaseName, Request: req}
	require.NoError(t, e.store.Add(d))
	require.NoError(t, e.store.Transition(d, download.StatusCompleted))

	dir := t.TempDir()
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("payload"), 0o644))
	}
	return d, dir
}

func TestPipeline_AutoImportsCompleteMovie(t *testing.T) {
	env := newTestEnv(t)
	req := media.MovieRequest{Title: "Heat", Year: 1995, MetaID: "tt0113277"}
	d, dir := env.addCompleted(t, "h1", "Heat.1995.1080p.BluRay", req, "Heat.1995.1080p.mkv")

	env.torrents.EXPECT().
		Files(gomock.Any(), "h1").
		Return([]torrent.File{{Index: 0, Path: "Heat.1995.1080p.mkv", Size: 100}}, nil)
	env.torrents.EXPECT().
		Status(gomock.Any(), "h1").
		Return(&torrent.Status{InfoHash: "h1", State: torrent.StateSeeding, Progress: 1.0, DownloadDir: dir}, nil)
	env.meta.EXPECT().
		GetTitle(gomock.Any(), "tt0113277").
		Return(&metadata.Title{ID: "tt0113277", Kind: "movie", Name: "Heat", Year: 1995}, nil)

	env.pipeline.ProcessCompleted(context.Background(), d)

	got, err := env.store.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, download.StatusImported, got.Status)

	_, statErr := os.Stat(filepath.Join(env.libRoot, "tt0113277", "files", "Heat.1995.1080p.mkv"))
	assert.NoError(t, statErr)
}

func TestPipeline_ParksIncompleteSeason(t *testing.T) {
	env := newTestEnv(t)
	req := media.SeasonRequest{SeriesTitle: "Show", SeriesID: "tt1", Season: 2}
	d, _ := env.addCompleted(t, "h2", "Show.S02.1080p", req, "Show.S02E01.mkv")

	env.torrents.EXPECT().
		Files(gomock.Any(), "h2").
		Return([]torrent.File{{Index: 0, Path: "Show.S02E01.mkv", Size: 100}}, nil)
	env.meta.EXPECT().
		GetEpisodes(gomock.Any(), "tt1", 2).
		Return([]metadata.Episode{
			{ID: "e1", Season: 2, Episode: 1},
			{ID: "e2", Season: 2, Episode: 2},
		}, nil)

	env.pipeline.ProcessCompleted(context.Background(), d)

	got, err := env.store.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, download.StatusAwaitingConfirm, got.Status)
	require.NotNil(t, got.MatchReport, "report must persist for the confirm screen")
	assert.Equal(t, []string{"S02E02"}, got.MatchReport.MissingContent)
}

func TestAPI_ConfirmImportsParkedDownload(t *testing.T) {
	env := newTestEnv(t)
	req := media.SeasonRequest{SeriesTitle: "Show", SeriesID: "tt1", Season: 2}
	d, dir := env.addCompleted(t, "h3", "Show.S02.1080p", req, "Show.S02E01.mkv")

	require.NoError(t, env.store.SetMatchReport(d, &validate.MatchResult{
		MatchedFiles: []validate.FileMatch{{FileIndex: 0, FilePath: "Show.S02E01.mkv", Season: 2, Episode: 1, EpisodeID: "e1"}},
		MissingContent: []string{"S02E02"},
		TotalFiles:     1,
	}))
	require.NoError(t, env.store.Transition(d, download.StatusAwaitingConfirm))

	env.torrents.EXPECT().
		Status(gomock.Any(), "h3").
		Return(&torrent.Status{InfoHash: "h3", DownloadDir: dir, Progress: 1.0}, nil)
	env.meta.EXPECT().
		GetTitle(gomock.Any(), "tt1").
		Return(&metadata.Title{ID: "tt1", Kind: "series", Name: "Show"}, nil)
	env.meta.EXPECT().
		GetEpisodeDetail(gomock.Any(), "e1").
		Return(nil, nil)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/downloads/%d/confirm", d.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report importer.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Len(t, report.Units, 1)

	got, err := env.store.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, download.StatusImported, got.Status)
}

func TestAPI_ConfirmRefusesEmptyMatch(t *testing.T) {
	env := newTestEnv(t)
	req := media.MovieRequest{Title: "Heat", MetaID: "tt1"}
	d, _ := env.addCompleted(t, "h4", "not-a-movie", req)

	require.NoError(t, env.store.SetMatchReport(d, &validate.MatchResult{
		MissingContent: []string{"Movie video file"},
		TotalFiles:     2,
	}))
	require.NoError(t, env.store.Transition(d, download.StatusAwaitingConfirm))

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/downloads/%d/confirm", d.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	got, err := env.store.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, download.StatusAwaitingConfirm, got.Status, "refused confirm must not change status")
}

func TestAPI_Grab(t *testing.T) {
	env := newTestEnv(t)

	env.torrents.EXPECT().
		Add(gomock.Any(), "magnet:?xt=urn:btih:abc").
		Return("abc", nil)

	reqJSON, err := media.EncodeRequest(media.MovieRequest{Title: "Heat", Year: 1995, MetaID: "tt1"})
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/v1/grab", map[string]any{
		"magnet":       "magnet:?xt=urn:btih:abc",
		"release_name": "Heat.1995.1080p",
		"request":      json.RawMessage(reqJSON),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID     int64           `json:"id"`
		Status download.Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, download.StatusQueued, resp.Status)

	_, err = env.store.Get(resp.ID)
	assert.NoError(t, err)
}

func TestAPI_GrabRejectsUnknownRequestKind(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/grab", map[string]any{
		"magnet":  "magnet:?xt=urn:btih:abc",
		"request": map[string]any{"kind": "album"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ValidateEndpointReturnsReport(t *testing.T) {
	env := newTestEnv(t)
	req := media.MovieRequest{Title: "Heat", Year: 1995, MetaID: "tt1"}
	d, _ := env.addCompleted(t, "h5", "Heat.1995.1080p", req, "Heat.1995.1080p.mkv")

	env.torrents.EXPECT().
		Files(gomock.Any(), "h5").
		Return([]torrent.File{{Index: 0, Path: "Heat.1995.1080p.mkv", Size: 100}}, nil)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/downloads/%d/validate", d.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report validate.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.HasAllRequestedContent)

	got, err := env.store.Get(d.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.MatchReport)
}

func TestAPI_GetDownloadNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/downloads/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
