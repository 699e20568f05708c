package library

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reeler/reeler/internal/metadata"
)

// Manager is the sole owner of entity persistence. The in-memory cache
// mirrors the on-disk sidecars and is populated by a full rescan before
// first use. Reads are safe concurrently; the design assumes at most one
// import batch mutates a given entity at a time.
type Manager struct {
	root string
	log  *slog.Logger

	mu         sync.Mutex
	loaded     bool
	byExternal map[string]*MediaEntity
	byID       map[string]*MediaEntity
}

// NewManager creates a manager rooted at the library directory. The
// directory is created on first write; no scan happens until first use.
func NewManager(root string, log *slog.Logger) *Manager {
	return &Manager{
		root: root,
		log:  log.With("component", "library"),
	}
}

// GetByExternalID returns the entity with the given external metadata ID,
// or ErrNotFound.
func (m *Manager) GetByExternalID(externalID string) (*MediaEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}
	e, ok := m.byExternal[externalID]
	if !ok {
		return nil, fmt.Errorf("external id %q: %w", externalID, ErrNotFound)
	}
	return e, nil
}

// GetByID returns the entity with the given internal ID, or ErrNotFound.
func (m *Manager) GetByID(id string) (*MediaEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}
	e, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("entity %q: %w", id, ErrNotFound)
	}
	return e, nil
}

// List returns every entity in the library, root entities (movies and
// series) first, ordered by title for stable output.
func (m *Manager) List() ([]*MediaEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}
	all := make([]*MediaEntity, 0, len(m.byID))
	for _, e := range m.byID {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		ri, rj := all[i].Type == TypeMovie || all[i].Type == TypeSeries,
			all[j].Type == TypeMovie || all[j].Type == TypeSeries
		if ri != rj {
			return ri
		}
		if all[i].Title != all[j].Title {
			return all[i].Title < all[j].Title
		}
		return all[i].ID < all[j].ID
	})
	return all, nil
}

// GetOrCreateMovie returns the movie entity for the title, creating its
// directory and sidecar on first call. Repeated calls with the same
// external ID return the same entity.
func (m *Manager) GetOrCreateMovie(t *metadata.Title) (*MediaEntity, error) {
	return m.getOrCreateRoot(t, TypeMovie)
}

// GetOrCreateSeries returns the series entity for the title, creating it
// on first call.
func (m *Manager) GetOrCreateSeries(t *metadata.Title) (*MediaEntity, error) {
	return m.getOrCreateRoot(t, TypeSeries)
}

func (m *Manager) getOrCreateRoot(t *metadata.Title, typ MediaType) (*MediaEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}

	if e, ok := m.byExternal[t.ID]; ok {
		return e, nil
	}

	now := time.Now().UTC()
	e := &MediaEntity{
		ID:          uuid.NewString(),
		ExternalID:  t.ID,
		Title:       t.Name,
		Type:        typ,
		Year:        t.Year,
		Genres:      t.Genres,
		Description: t.Description,
		Rating:      t.Rating,
		Files:       []DownloadedFile{},
		AddedAt:     now,
		UpdatedAt:   now,
	}
	if err := m.persist(e); err != nil {
		return nil, err
	}
	m.register(e)
	m.log.Info("created entity", "type", typ, "title", t.Name, "external_id", t.ID)
	return e, nil
}

// GetOrCreateSeason returns the season entity under the given series
// (internal ID), creating it on first call. Returns ErrParentNotFound
// when the series hasn't been created yet.
func (m *Manager) GetOrCreateSeason(seriesID string, seasonNumber int) (*MediaEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}

	series, ok := m.byID[seriesID]
	if !ok || series.Type != TypeSeries {
		return nil, fmt.Errorf("series %q: %w", seriesID, ErrParentNotFound)
	}

	extID := seasonExternalID(series.ExternalID, seasonNumber)
	if e, ok := m.byExternal[extID]; ok {
		return e, nil
	}

	now := time.Now().UTC()
	e := &MediaEntity{
		ID:           uuid.NewString(),
		ExternalID:   extID,
		Title:        fmt.Sprintf("%s Season %d", series.Title, seasonNumber),
		Type:         TypeSeason,
		SeriesID:     series.ID,
		SeasonNumber: seasonNumber,
		Files:        []DownloadedFile{},
		AddedAt:      now,
		UpdatedAt:    now,
	}
	if err := m.persist(e); err != nil {
		return nil, err
	}
	m.register(e)
	m.log.Info("created entity", "type", TypeSeason, "series", series.Title, "season", seasonNumber)
	return e, nil
}

// GetOrCreateEpisode returns the episode entity under the given season
// (internal ID), creating it on first call. The episode's season number
// comes from the parent season so the two can never disagree. detail may
// be nil when the metadata API has no full record; the identity alone is
// enough to create the entity.
func (m *Manager) GetOrCreateEpisode(seasonID string, ep metadata.Episode, detail *metadata.EpisodeDetail) (*MediaEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}

	season, ok := m.byID[seasonID]
	if !ok || season.Type != TypeSeason {
		return nil, fmt.Errorf("season %q: %w", seasonID, ErrParentNotFound)
	}

	if e, ok := m.byExternal[ep.ID]; ok {
		return e, nil
	}

	now := time.Now().UTC()
	e := &MediaEntity{
		ID:            uuid.NewString(),
		ExternalID:    ep.ID,
		Title:         ep.Title,
		Type:          TypeEpisode,
		SeriesID:      season.SeriesID,
		SeasonID:      season.ID,
		SeasonNumber:  season.SeasonNumber,
		EpisodeNumber: ep.Episode,
		Files:         []DownloadedFile{},
		AddedAt:       now,
		UpdatedAt:     now,
	}
	if detail != nil {
		if detail.Title != "" {
			e.Title = detail.Title
		}
		e.Description = detail.Description
		e.Rating = detail.Rating
		e.AirDate = detail.AirDate
	}
	if err := m.persist(e); err != nil {
		return nil, err
	}
	m.register(e)
	m.log.Info("created entity", "type", TypeEpisode,
		"season", season.SeasonNumber, "episode", ep.Episode, "title", e.Title)
	return e, nil
}

func (m *Manager) register(e *MediaEntity) {
	m.byID[e.ID] = e
	m.byExternal[e.ExternalID] = e
}

// seasonExternalID synthesizes a cache key for seasons, which have no
// external metadata ID of their own.
func seasonExternalID(seriesExternalID string, season int) string {
	return fmt.Sprintf("%s/S%02d", seriesExternalID, season)
}

// entityDir resolves the entity's directory inside the library tree.
// Callers hold the lock.
func (m *Manager) entityDir(e *MediaEntity) (string, error) {
	switch e.Type {
	case TypeMovie, TypeSeries:
		return filepath.Join(m.root, e.ExternalID), nil
	case TypeSeason:
		series, ok := m.byID[e.SeriesID]
		if !ok {
			return "", fmt.Errorf("series %q of season %q: %w", e.SeriesID, e.ID, ErrParentNotFound)
		}
		return filepath.Join(m.root, series.ExternalID, "seasons", fmt.Sprintf("S%02d", e.SeasonNumber)), nil
	case TypeEpisode:
		season, ok := m.byID[e.SeasonID]
		if !ok {
			return "", fmt.Errorf("season %q of episode %q: %w", e.SeasonID, e.ID, ErrParentNotFound)
		}
		seasonDir, err := m.entityDir(season)
		if err != nil {
			return "", err
		}
		return filepath.Join(seasonDir, "episodes", fmt.Sprintf("E%02d", e.EpisodeNumber)), nil
	default:
		return "", fmt.Errorf("unknown media type %q", e.Type)
	}
}

// persist writes the entity's sidecar atomically. Callers hold the lock.
func (m *Manager) persist(e *MediaEntity) error {
	dir, err := m.entityDir(e)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create entity dir: %w", err)
	}
	if err := writeJSONAtomic(filepath.Join(dir, "metadata.json"), e); err != nil {
		return fmt.Errorf("persist entity %s: %w", e.ID, err)
	}
	return nil
}
