package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ensureLoaded populates the cache from a full tree walk on first use.
// The maps are swapped in only when the walk completes, so a failed scan
// never leaves a partially populated cache. Callers hold the lock.
func (m *Manager) ensureLoaded() error {
	if m.loaded {
		return nil
	}

	byExternal := make(map[string]*MediaEntity)
	byID := make(map[string]*MediaEntity)

	entries, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Fresh library; directory appears on first write.
			m.byExternal, m.byID = byExternal, byID
			m.loaded = true
			return nil
		}
		return fmt.Errorf("scan library root: %w", err)
	}

	register := func(e *MediaEntity) {
		byID[e.ID] = e
		byExternal[e.ExternalID] = e
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rootDir := filepath.Join(m.root, entry.Name())
		e, err := readSidecar(rootDir)
		if err != nil {
			m.log.Warn("skipping unreadable entity", "dir", rootDir, "error", err)
			continue
		}
		register(e)

		if e.Type != TypeSeries {
			continue
		}
		seasonDirs, err := filepath.Glob(filepath.Join(rootDir, "seasons", "S*"))
		if err != nil {
			return fmt.Errorf("scan seasons of %s: %w", entry.Name(), err)
		}
		for _, seasonDir := range seasonDirs {
			season, err := readSidecar(seasonDir)
			if err != nil {
				m.log.Warn("skipping unreadable entity", "dir", seasonDir, "error", err)
				continue
			}
			register(season)

			episodeDirs, err := filepath.Glob(filepath.Join(seasonDir, "episodes", "E*"))
			if err != nil {
				return fmt.Errorf("scan episodes of %s: %w", seasonDir, err)
			}
			for _, episodeDir := range episodeDirs {
				episode, err := readSidecar(episodeDir)
				if err != nil {
					m.log.Warn("skipping unreadable entity", "dir", episodeDir, "error", err)
					continue
				}
				register(episode)
			}
		}
	}

	m.byExternal, m.byID = byExternal, byID
	m.loaded = true
	m.log.Debug("library scan complete", "entities", len(byID))
	return nil
}

func readSidecar(dir string) (*MediaEntity, error) {
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return nil, err
	}
	e := &MediaEntity{}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("decode metadata.json: %w", err)
	}
	if e.ID == "" || e.ExternalID == "" {
		return nil, fmt.Errorf("metadata.json missing identity fields")
	}
	return e, nil
}
