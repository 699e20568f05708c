package download

import "github.com/reeler/reeler/internal/torrent"

// Status tracks a download through its life: grabbed, fetched,
// validated, and finally imported into the library (or parked waiting
// for the user's go-ahead when validation found gaps).
type Status string

const (
	StatusQueued          Status = "queued"
	StatusDownloading     Status = "downloading"
	StatusCompleted       Status = "completed"
	StatusAwaitingConfirm Status = "awaiting_confirm"
	StatusImported        Status = "imported"
	StatusFailed          Status = "failed"
)

// validTransitions defines allowed state transitions. Key is the "from"
// status, value is the list of valid "to" statuses.
var validTransitions = map[Status][]Status{
	// A torrent can be complete on the very first poll (cached or
	// seeded-from-disk), so queued may jump straight to completed.
	StatusQueued:          {StatusDownloading, StatusCompleted, StatusFailed},
	StatusDownloading:     {StatusCompleted, StatusFailed},
	StatusCompleted:       {StatusImported, StatusAwaitingConfirm, StatusFailed},
	StatusAwaitingConfirm: {StatusImported, StatusFailed},
	StatusImported:        {}, // terminal
	StatusFailed:          {StatusQueued}, // allow retry
}

// allStatuses enumerates every download status, in lifecycle order.
var allStatuses = []Status{
	StatusQueued,
	StatusDownloading,
	StatusCompleted,
	StatusAwaitingConfirm,
	StatusImported,
	StatusFailed,
}

// CanTransitionTo returns true if transitioning from s to target is valid.
func (s Status) CanTransitionTo(target Status) bool {
	valid, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, v := range valid {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true when the status has no outgoing transitions
// other than a retry.
func (s Status) IsTerminal() bool {
	return s == StatusImported || s == StatusFailed
}

// statusFromTorrent maps a live torrent status to a download status.
func statusFromTorrent(ts *torrent.Status) Status {
	if ts.Done() {
		return StatusCompleted
	}
	switch ts.State {
	case torrent.StateQueued:
		return StatusQueued
	case torrent.StateDownloading:
		return StatusDownloading
	case torrent.StateStopped:
		return StatusFailed
	default:
		return StatusDownloading
	}
}
