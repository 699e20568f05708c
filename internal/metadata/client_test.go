package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/titles/tt0306414", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"tt0306414","kind":"series","name":"The Wire","year":2002,"rating":9.3}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	title, err := c.GetTitle(context.Background(), "tt0306414")
	require.NoError(t, err)
	require.NotNil(t, title)
	assert.Equal(t, "The Wire", title.Name)
	assert.Equal(t, 2002, title.Year)
	assert.Equal(t, "series", title.Kind)
}

func TestClient_GetTitle_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	title, err := c.GetTitle(context.Background(), "tt0000000")
	require.NoError(t, err)
	assert.Nil(t, title)
}

func TestClient_GetEpisodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/titles/tt0306414/seasons/2/episodes", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"ep1","season":2,"episode":1,"title":"Ebb Tide"},
			{"id":"ep2","season":2,"episode":2,"title":"Collateral Damage"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	eps, err := c.GetEpisodes(context.Background(), "tt0306414", 2)
	require.NoError(t, err)
	require.Len(t, eps, 2)
	assert.Equal(t, "Ebb Tide", eps[0].Title)
	assert.Equal(t, 2, eps[0].Season)
	assert.Equal(t, 1, eps[0].Episode)
}

func TestClient_GetEpisodeDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/episodes/ep1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ep1","season":2,"episode":1,"title":"Ebb Tide","description":"Back to the docks.","rating":8.1,"air_date":"2003-06-01"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	detail, err := c.GetEpisodeDetail(context.Background(), "ep1")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "Ebb Tide", detail.Title)
	assert.Equal(t, "2003-06-01", detail.AirDate)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-key")
	_, err := c.GetSeasons(context.Background(), "tt0306414")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	_, err := c.GetEpisodeDetail(context.Background(), "ep1")
	assert.ErrorIs(t, err, ErrRateLimited)
}
