package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Sentinel errors for metadata API responses.
var (
	ErrUnauthorized = errors.New("unauthorized: invalid metadata api key")
	ErrRateLimited  = errors.New("rate limited: too many requests")
)

// Client is an HTTP client for the title-lookup API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log.With("component", "metadata")
	}
}

// NewClient creates a title-lookup API client.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doGet performs a GET request and decodes the JSON response into out.
// Returns (false, nil) on 404 so callers can map not-found to nil results.
func (c *Client) doGet(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return false, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, ErrUnauthorized
	case http.StatusTooManyRequests:
		return false, ErrRateLimited
	default:
		return false, fmt.Errorf("metadata api: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

// GetTitle fetches a movie or series record by external ID.
// Returns (nil, nil) when the title does not exist.
func (c *Client) GetTitle(ctx context.Context, id string) (*Title, error) {
	var t Title
	found, err := c.doGet(ctx, "/titles/"+url.PathEscape(id), &t)
	if err != nil {
		return nil, fmt.Errorf("get title %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	if c.log != nil {
		c.log.Debug("fetched title", "id", id, "name", t.Name)
	}
	return &t, nil
}

// GetSeasons lists season summaries for a series.
// Returns (nil, nil) when the series does not exist.
func (c *Client) GetSeasons(ctx context.Context, seriesID string) ([]Season, error) {
	var seasons []Season
	found, err := c.doGet(ctx, "/titles/"+url.PathEscape(seriesID)+"/seasons", &seasons)
	if err != nil {
		return nil, fmt.Errorf("get seasons for %s: %w", seriesID, err)
	}
	if !found {
		return nil, nil
	}
	return seasons, nil
}

// GetEpisodes lists episode identities for one season of a series.
// Returns (nil, nil) when the series or season does not exist.
func (c *Client) GetEpisodes(ctx context.Context, seriesID string, season int) ([]Episode, error) {
	var episodes []Episode
	path := fmt.Sprintf("/titles/%s/seasons/%d/episodes", url.PathEscape(seriesID), season)
	found, err := c.doGet(ctx, path, &episodes)
	if err != nil {
		return nil, fmt.Errorf("get episodes for %s season %d: %w", seriesID, season, err)
	}
	if !found {
		return nil, nil
	}
	return episodes, nil
}

// GetEpisodeDetail fetches the full record for a single episode.
// Returns (nil, nil) when the episode does not exist.
func (c *Client) GetEpisodeDetail(ctx context.Context, episodeID string) (*EpisodeDetail, error) {
	var d EpisodeDetail
	found, err := c.doGet(ctx, "/episodes/"+url.PathEscape(episodeID), &d)
	if err != nil {
		return nil, fmt.Errorf("get episode detail %s: %w", episodeID, err)
	}
	if !found {
		return nil, nil
	}
	return &d, nil
}
