// Package server exposes the HTTP API and runs the background poller
// that walks downloads through validation and import.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reeler/reeler/internal/download"
	"github.com/reeler/reeler/internal/importer"
	"github.com/reeler/reeler/internal/validate"
)

// ErrNotImportable is returned when a confirm is attempted on a download
// whose validation matched nothing. The user has to pick a different
// torrent; there is nothing to import.
var ErrNotImportable = errors.New("validation matched no files")

// Pipeline drives a completed download through validate, the confirm
// gate, and import. The API's confirm endpoint and the poller share it.
type Pipeline struct {
	downloads *download.Manager
	validator *validate.Validator
	importer  *importer.Importer
	log       *slog.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(downloads *download.Manager, validator *validate.Validator, imp *importer.Importer, log *slog.Logger) *Pipeline {
	return &Pipeline{
		downloads: downloads,
		validator: validator,
		importer:  imp,
		log:       log.With("component", "pipeline"),
	}
}

// Validate runs validation for the download and stores the match report
// on its record.
func (p *Pipeline) Validate(ctx context.Context, d *download.Download) (*validate.MatchResult, error) {
	report, err := p.validator.Validate(ctx, d.InfoHash, d.ReleaseName, d.Request)
	if err != nil {
		return nil, err
	}
	if err := p.downloads.Store().SetMatchReport(d, report); err != nil {
		return nil, fmt.Errorf("store match report: %w", err)
	}
	return report, nil
}

// ProcessCompleted handles a download that just finished fetching:
// validate it, then either import automatically (everything requested is
// present) or park it awaiting the user's confirm. Validation errors
// leave the download in completed so the next poll retries.
func (p *Pipeline) ProcessCompleted(ctx context.Context, d *download.Download) {
	report := d.MatchReport
	if report == nil {
		var err error
		report, err = p.Validate(ctx, d)
		if err != nil {
			p.log.Error("validation failed, will retry next poll", "download_id", d.ID, "error", err)
			return
		}
	}

	if !report.HasAllRequestedContent {
		p.log.Warn("download incomplete, awaiting user confirmation",
			"download_id", d.ID,
			"release", d.ReleaseName,
			"matched", len(report.MatchedFiles),
			"missing", report.MissingContent,
		)
		if err := p.downloads.Store().Transition(d, download.StatusAwaitingConfirm); err != nil {
			p.log.Error("park failed", "download_id", d.ID, "error", err)
		}
		return
	}

	if _, err := p.Import(ctx, d); err != nil {
		p.log.Error("auto-import failed", "download_id", d.ID, "error", err)
	}
}

// Import places the download's matched files into the library and marks
// the record imported. A partially successful batch still counts as
// imported; per-unit failures live in the returned report.
func (p *Pipeline) Import(ctx context.Context, d *download.Download) (*importer.Report, error) {
	if d.MatchReport == nil || len(d.MatchReport.MatchedFiles) == 0 {
		return nil, ErrNotImportable
	}

	dir, err := p.downloads.DownloadDir(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("resolve download dir: %w", err)
	}

	report, err := p.importer.Import(ctx, d.ID, dir, d.ReleaseName, d.Request, d.MatchReport)
	if err != nil {
		if terr := p.downloads.Store().Transition(d, download.StatusFailed); terr != nil {
			p.log.Error("mark failed", "download_id", d.ID, "error", terr)
		}
		return report, err
	}

	if err := p.downloads.Store().Transition(d, download.StatusImported); err != nil {
		p.log.Error("mark imported", "download_id", d.ID, "error", err)
	}
	p.log.Info("download imported",
		"download_id", d.ID,
		"imported", report.SuccessCount(),
		"failed", report.FailureCount(),
	)
	return report, nil
}
