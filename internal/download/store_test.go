package download

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/reeler/reeler/internal/media"
	"github.com/reeler/reeler/internal/migrations"
	"github.com/reeler/reeler/internal/validate"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err)
	return NewStore(db)
}

func seasonReq() media.Request {
	return media.SeasonRequest{SeriesTitle: "Show", SeriesID: "tt1", Season: 2}
}

func TestStore_AddIdempotent(t *testing.T) {
	store := setupStore(t)

	first := &Download{InfoHash: "abc123", ReleaseName: "Show.S02.1080p", Request: seasonReq()}
	require.NoError(t, store.Add(first))
	require.NotZero(t, first.ID)

	second := &Download{InfoHash: "abc123", ReleaseName: "Show.S02.1080p", Request: seasonReq()}
	require.NoError(t, store.Add(second))

	assert.Equal(t, first.ID, second.ID, "same hash and request must not duplicate")

	// Same hash grabbed for a different request is a distinct record.
	other := &Download{InfoHash: "abc123", ReleaseName: "Show.S02.1080p", Request: media.SeriesRequest{SeriesTitle: "Show", SeriesID: "tt1"}}
	require.NoError(t, store.Add(other))
	assert.NotEqual(t, first.ID, other.ID)
}

func TestStore_RequestRoundTrip(t *testing.T) {
	store := setupStore(t)

	d := &Download{InfoHash: "abc123", ReleaseName: "Show.S02", Request: seasonReq()}
	require.NoError(t, store.Add(d))

	got, err := store.Get(d.ID)
	require.NoError(t, err)
	req, ok := got.Request.(media.SeasonRequest)
	require.True(t, ok, "request kind lost in round trip: %T", got.Request)
	assert.Equal(t, 2, req.Season)
	assert.Equal(t, StatusQueued, got.Status)
}

func TestStore_GetNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.Get(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_MatchReportRoundTrip(t *testing.T) {
	store := setupStore(t)

	d := &Download{InfoHash: "abc123", ReleaseName: "Show.S02", Request: seasonReq()}
	require.NoError(t, store.Add(d))

	report := &validate.MatchResult{
		MatchedFiles:   []validate.FileMatch{{FileIndex: 0, FilePath: "Show.S02E01.mkv", Season: 2, Episode: 1}},
		MissingContent: []string{"S02E02"},
		TotalFiles:     2,
	}
	require.NoError(t, store.SetMatchReport(d, report))

	got, err := store.Get(d.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MatchReport)
	assert.Equal(t, []string{"S02E02"}, got.MatchReport.MissingContent)
	require.Len(t, got.MatchReport.MatchedFiles, 1)
	assert.Equal(t, 1, got.MatchReport.MatchedFiles[0].Episode)
}

func TestStore_Transition(t *testing.T) {
	store := setupStore(t)

	d := &Download{InfoHash: "abc123", ReleaseName: "Show.S02", Request: seasonReq()}
	require.NoError(t, store.Add(d))

	var events []TransitionEvent
	store.OnTransition(func(e TransitionEvent) { events = append(events, e) })

	require.NoError(t, store.Transition(d, StatusDownloading))
	require.NoError(t, store.Transition(d, StatusCompleted))
	assert.NotNil(t, d.CompletedAt, "completing must stamp CompletedAt")

	err := store.Transition(d, StatusQueued)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.Len(t, events, 2)
	assert.Equal(t, StatusQueued, events[0].From)
	assert.Equal(t, StatusCompleted, events[1].To)

	got, err := store.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestStore_ListActive(t *testing.T) {
	store := setupStore(t)

	active := &Download{InfoHash: "aaa", ReleaseName: "A", Request: seasonReq()}
	require.NoError(t, store.Add(active))

	parked := &Download{InfoHash: "bbb", ReleaseName: "B", Request: seasonReq()}
	require.NoError(t, store.Add(parked))
	require.NoError(t, store.Transition(parked, StatusCompleted))
	require.NoError(t, store.Transition(parked, StatusAwaitingConfirm))

	done := &Download{InfoHash: "ccc", ReleaseName: "C", Request: seasonReq()}
	require.NoError(t, store.Add(done))
	require.NoError(t, store.Transition(done, StatusCompleted))
	require.NoError(t, store.Transition(done, StatusImported))

	broken := &Download{InfoHash: "ddd", ReleaseName: "D", Request: seasonReq()}
	require.NoError(t, store.Add(broken))
	require.NoError(t, store.Transition(broken, StatusFailed))

	got, err := store.List(Filter{Active: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, active.ID, got[0].ID)
	assert.Equal(t, parked.ID, got[1].ID)
}
