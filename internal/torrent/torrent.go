// Package torrent defines the torrent-engine collaborator contract and a
// Transmission RPC implementation.
package torrent

import (
	"context"
	"errors"
)

// Sentinel errors for the torrent engine.
var (
	// ErrEngineUnavailable is returned when the engine cannot be reached.
	ErrEngineUnavailable = errors.New("torrent engine unavailable")

	// ErrNotFound is returned when the engine has no torrent with the hash.
	ErrNotFound = errors.New("torrent not found in engine")

	// ErrMetadataTimeout is returned when the torrent's file list could
	// not be learned within the allowed wait (magnet with no peers).
	ErrMetadataTimeout = errors.New("timed out waiting for torrent metadata")
)

// File is one file inside a torrent, as reported by the engine once
// metadata is available. Path is relative to the torrent root.
type File struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
	Size  int64  `json:"size"`
}

// State of a torrent in the engine.
type State string

const (
	StateQueued      State = "queued"
	StateDownloading State = "downloading"
	StateSeeding     State = "seeding"
	StateStopped     State = "stopped"
)

// Status is a live snapshot of one torrent.
type Status struct {
	InfoHash    string
	Name        string
	State       State
	Progress    float64 // 0-1
	DownloadDir string
}

// Done reports whether all wanted pieces have been downloaded.
func (s *Status) Done() bool {
	return s.Progress >= 1.0
}

//go:generate mockgen -destination=mocks/client.go -package=mocks github.com/reeler/reeler/internal/torrent Client

// Client is the torrent-engine collaborator contract.
type Client interface {
	// Add hands a magnet link or .torrent URL to the engine and returns
	// the info hash identifying the torrent.
	Add(ctx context.Context, magnet string) (string, error)
	// Files returns the torrent's file list, waiting for magnet metadata
	// if necessary. Returns ErrMetadataTimeout when metadata does not
	// arrive in time; honors ctx cancellation while waiting.
	Files(ctx context.Context, infoHash string) ([]File, error)
	// Status returns a live snapshot of one torrent.
	Status(ctx context.Context, infoHash string) (*Status, error)
	// Remove deletes a torrent from the engine, optionally with its data.
	Remove(ctx context.Context, infoHash string, deleteFiles bool) error
}
