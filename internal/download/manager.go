package download

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reeler/reeler/internal/media"
	"github.com/reeler/reeler/internal/torrent"
)

// Manager orchestrates download operations against the torrent engine.
type Manager struct {
	client torrent.Client
	store  *Store
	log    *slog.Logger
}

// NewManager creates a download manager.
func NewManager(client torrent.Client, store *Store, log *slog.Logger) *Manager {
	return &Manager{
		client: client,
		store:  store,
		log:    log.With("component", "download"),
	}
}

// Grab hands a magnet link to the engine and records the download.
func (m *Manager) Grab(ctx context.Context, magnet, releaseName string, req media.Request) (*Download, error) {
	infoHash, err := m.client.Add(ctx, magnet)
	if err != nil {
		m.log.Error("grab failed", "release", releaseName, "error", err)
		return nil, fmt.Errorf("add to engine: %w", err)
	}

	d := &Download{
		InfoHash:    infoHash,
		ReleaseName: releaseName,
		Request:     req,
		Status:      StatusQueued,
	}
	if err := m.store.Add(d); err != nil {
		// Orphan in the engine is acceptable; Refresh will see it again
		// on the next grab of the same hash.
		return nil, fmt.Errorf("save download: %w", err)
	}

	m.log.Info("grab sent", "release", releaseName, "info_hash", infoHash, "request", req.Describe())
	return d, nil
}

// Refresh polls the engine for every active download and syncs status
// changes to the store. Returns the downloads that reached completed
// during this pass, so the caller can kick off validation.
func (m *Manager) Refresh(ctx context.Context) ([]*Download, error) {
	downloads, err := m.store.List(Filter{Active: true})
	if err != nil {
		return nil, fmt.Errorf("list active: %w", err)
	}

	m.log.Debug("refresh started", "active_downloads", len(downloads))

	var completed []*Download
	var lastErr error
	for _, d := range downloads {
		if d.Status == StatusCompleted || d.Status == StatusAwaitingConfirm {
			continue
		}

		ts, err := m.client.Status(ctx, d.InfoHash)
		if err != nil {
			m.log.Error("refresh error", "download_id", d.ID, "info_hash", d.InfoHash, "error", err)
			lastErr = err
			continue
		}

		next := statusFromTorrent(ts)
		if next == d.Status || !d.Status.CanTransitionTo(next) {
			continue
		}
		m.log.Info("download status changed", "download_id", d.ID, "status", next, "prev", d.Status)
		if err := m.store.Transition(d, next); err != nil {
			m.log.Error("refresh update failed", "download_id", d.ID, "error", err)
			lastErr = err
			continue
		}
		if next == StatusCompleted {
			completed = append(completed, d)
		}
	}

	return completed, lastErr
}

// DownloadDir returns where the engine placed the torrent's content.
func (m *Manager) DownloadDir(ctx context.Context, d *Download) (string, error) {
	ts, err := m.client.Status(ctx, d.InfoHash)
	if err != nil {
		return "", fmt.Errorf("torrent status: %w", err)
	}
	return ts.DownloadDir, nil
}

// Cancel removes a download from the engine and the store.
func (m *Manager) Cancel(ctx context.Context, downloadID int64, deleteFiles bool) error {
	d, err := m.store.Get(downloadID)
	if err != nil {
		return fmt.Errorf("get download: %w", err)
	}

	// Best effort; the torrent may already be gone from the engine.
	if err := m.client.Remove(ctx, d.InfoHash, deleteFiles); err != nil {
		m.log.Warn("engine remove failed", "download_id", downloadID, "error", err)
	}

	if err := m.store.Delete(downloadID); err != nil {
		return fmt.Errorf("delete download: %w", err)
	}
	m.log.Info("download cancelled", "download_id", downloadID, "release", d.ReleaseName)
	return nil
}

// Store returns the underlying record store.
func (m *Manager) Store() *Store {
	return m.store
}
