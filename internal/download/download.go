// Package download tracks torrent grabs from queue to import. Records
// live in SQLite; the serialized request and match report travel with
// each record so validation and import can resume after a restart.
package download

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/reeler/reeler/internal/media"
	"github.com/reeler/reeler/internal/validate"
)

// Download represents an active or recent download.
type Download struct {
	ID               int64
	InfoHash         string
	ReleaseName      string
	Request          media.Request
	Status           Status
	MatchReport      *validate.MatchResult // set after validation
	AddedAt          time.Time
	CompletedAt      *time.Time
	LastTransitionAt time.Time
}

// Filter specifies criteria for listing downloads.
type Filter struct {
	Status   *Status
	InfoHash *string
	Active   bool // exclude terminal statuses
}

// TransitionEvent is emitted on every status change.
type TransitionEvent struct {
	DownloadID int64
	From       Status
	To         Status
	At         time.Time
}

// TransitionHandler receives transition events.
type TransitionHandler func(TransitionEvent)

// Store persists download records.
type Store struct {
	db       *sql.DB
	handlers []TransitionHandler
}

// NewStore creates a download store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// OnTransition registers a handler called on every state transition.
func (s *Store) OnTransition(h TransitionHandler) {
	s.handlers = append(s.handlers, h)
}

// Add records a new download. Idempotent: grabbing the same torrent for
// the same request returns the existing record instead of duplicating it.
func (s *Store) Add(d *Download) error {
	reqJSON, err := media.EncodeRequest(d.Request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	var existingID int64
	var existingAddedAt time.Time
	err = s.db.QueryRow(`
		SELECT id, added_at FROM downloads
		WHERE info_hash = ? AND request = ?`,
		d.InfoHash, string(reqJSON),
	).Scan(&existingID, &existingAddedAt)

	if err == nil {
		existing, err := s.Get(existingID)
		if err != nil {
			return err
		}
		*d = *existing
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check existing download: %w", err)
	}

	if d.Status == "" {
		d.Status = StatusQueued
	}
	now := time.Now()
	result, err := s.db.Exec(`
		INSERT INTO downloads (info_hash, release_name, request, status, match_report, added_at, completed_at, last_transition_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.InfoHash, d.ReleaseName, string(reqJSON), d.Status, matchReportJSON(d.MatchReport), now, d.CompletedAt, now,
	)
	if err != nil {
		return fmt.Errorf("insert download: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	d.ID = id
	d.AddedAt = now
	d.LastTransitionAt = now
	return nil
}

const downloadColumns = "id, info_hash, release_name, request, status, match_report, added_at, completed_at, last_transition_at"

func scanDownload(row interface{ Scan(...any) error }) (*Download, error) {
	d := &Download{}
	var reqJSON string
	var reportJSON sql.NullString
	err := row.Scan(&d.ID, &d.InfoHash, &d.ReleaseName, &reqJSON, &d.Status, &reportJSON, &d.AddedAt, &d.CompletedAt, &d.LastTransitionAt)
	if err != nil {
		return nil, err
	}

	d.Request, err = media.DecodeRequest([]byte(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("decode request of download %d: %w", d.ID, err)
	}
	if reportJSON.Valid && reportJSON.String != "" {
		report := &validate.MatchResult{}
		if err := json.Unmarshal([]byte(reportJSON.String), report); err != nil {
			return nil, fmt.Errorf("decode match report of download %d: %w", d.ID, err)
		}
		d.MatchReport = report
	}
	return d, nil
}

func matchReportJSON(r *validate.MatchResult) any {
	if r == nil {
		return nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	return string(data)
}

// Get retrieves a download by ID. Returns ErrNotFound if it does not
// exist.
func (s *Store) Get(id int64) (*Download, error) {
	d, err := scanDownload(s.db.QueryRow(
		"SELECT "+downloadColumns+" FROM downloads WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get download %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get download %d: %w", id, err)
	}
	return d, nil
}

// SetMatchReport stores the validation outcome on the record.
func (s *Store) SetMatchReport(d *Download, report *validate.MatchResult) error {
	result, err := s.db.Exec(
		"UPDATE downloads SET match_report = ? WHERE id = ?",
		matchReportJSON(report), d.ID,
	)
	if err != nil {
		return fmt.Errorf("update match report %d: %w", d.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update match report %d: %w", d.ID, ErrNotFound)
	}
	d.MatchReport = report
	return nil
}

// Transition changes a download's status with validation and event
// emission. Completing transitions also stamp CompletedAt.
func (s *Store) Transition(d *Download, to Status) error {
	if !d.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, to)
	}

	from := d.Status
	now := time.Now()

	completedAt := d.CompletedAt
	if to == StatusCompleted {
		completedAt = &now
	}

	result, err := s.db.Exec(`
		UPDATE downloads SET status = ?, completed_at = ?, last_transition_at = ?
		WHERE id = ?`,
		to, completedAt, now, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update download %d: %w", d.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transition download %d: %w", d.ID, ErrNotFound)
	}

	d.Status = to
	d.CompletedAt = completedAt
	d.LastTransitionAt = now

	event := TransitionEvent{
		DownloadID: d.ID,
		From:       from,
		To:         to,
		At:         now,
	}
	for _, h := range s.handlers {
		h(event)
	}

	return nil
}

// List returns downloads matching the filter, oldest first.
func (s *Store) List(f Filter) ([]*Download, error) {
	var conditions []string
	var args []any

	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *f.Status)
	}
	if f.InfoHash != nil {
		conditions = append(conditions, "info_hash = ?")
		args = append(args, *f.InfoHash)
	}
	if f.Active {
		var placeholders []string
		for _, st := range allStatuses {
			if st.IsTerminal() {
				placeholders = append(placeholders, "?")
				args = append(args, st)
			}
		}
		conditions = append(conditions, "status NOT IN ("+strings.Join(placeholders, ", ")+")")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := s.db.Query("SELECT "+downloadColumns+" FROM downloads "+whereClause+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate downloads: %w", err)
	}

	return results, nil
}

// Delete removes a download by ID. Idempotent.
func (s *Store) Delete(id int64) error {
	if _, err := s.db.Exec("DELETE FROM downloads WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete download %d: %w", id, err)
	}
	return nil
}
