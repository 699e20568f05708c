package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/reeler/reeler/internal/download"
	"github.com/reeler/reeler/internal/importer"
	"github.com/reeler/reeler/internal/library"
	"github.com/reeler/reeler/internal/media"
	"github.com/reeler/reeler/internal/validate"
)

// API is the HTTP surface the bot talks to.
type API struct {
	downloads *download.Manager
	pipeline  *Pipeline
	library   *library.Manager
	history   *importer.HistoryStore
	log       *slog.Logger
}

// NewAPI creates the API server.
func NewAPI(downloads *download.Manager, pipeline *Pipeline, lib *library.Manager, history *importer.HistoryStore, log *slog.Logger) *API {
	return &API{
		downloads: downloads,
		pipeline:  pipeline,
		library:   lib,
		history:   history,
		log:       log.With("component", "api"),
	}
}

// RegisterRoutes registers API routes on the given mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/grab", a.grab)

	mux.HandleFunc("GET /api/v1/downloads", a.listDownloads)
	mux.HandleFunc("GET /api/v1/downloads/{id}", a.getDownload)
	mux.HandleFunc("POST /api/v1/downloads/{id}/validate", a.validateDownload)
	mux.HandleFunc("POST /api/v1/downloads/{id}/confirm", a.confirmDownload)
	mux.HandleFunc("DELETE /api/v1/downloads/{id}", a.cancelDownload)

	mux.HandleFunc("GET /api/v1/library", a.listLibrary)
	mux.HandleFunc("GET /api/v1/library/{external_id}", a.getLibraryEntity)

	mux.HandleFunc("GET /api/v1/history", a.listHistory)
	mux.HandleFunc("GET /api/v1/status", a.getStatus)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func pathID(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: id")
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// downloadResponse is the wire shape of a download record. The request
// travels as its tagged envelope so clients can tell the kinds apart.
type downloadResponse struct {
	ID          int64                 `json:"id"`
	InfoHash    string                `json:"info_hash"`
	ReleaseName string                `json:"release_name"`
	Request     json.RawMessage       `json:"request"`
	Status      download.Status       `json:"status"`
	MatchReport *validate.MatchResult `json:"match_report,omitempty"`
	AddedAt     time.Time             `json:"added_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

func toDownloadResponse(d *download.Download) downloadResponse {
	reqJSON, _ := media.EncodeRequest(d.Request)
	return downloadResponse{
		ID:          d.ID,
		InfoHash:    d.InfoHash,
		ReleaseName: d.ReleaseName,
		Request:     reqJSON,
		Status:      d.Status,
		MatchReport: d.MatchReport,
		AddedAt:     d.AddedAt,
		CompletedAt: d.CompletedAt,
	}
}

type grabRequest struct {
	Magnet      string          `json:"magnet"`
	ReleaseName string          `json:"release_name"`
	Request     json.RawMessage `json:"request"`
}

func (a *API) grab(w http.ResponseWriter, r *http.Request) {
	var body grabRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON: "+err.Error())
		return
	}
	if body.Magnet == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "magnet is required")
		return
	}
	req, err := media.DecodeRequest(body.Request)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request: "+err.Error())
		return
	}

	d, err := a.downloads.Grab(r.Context(), body.Magnet, body.ReleaseName, req)
	if err != nil {
		writeError(w, http.StatusBadGateway, "grab_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toDownloadResponse(d))
}

func (a *API) listDownloads(w http.ResponseWriter, r *http.Request) {
	filter := download.Filter{}
	if r.URL.Query().Get("active") == "true" {
		filter.Active = true
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := download.Status(s)
		filter.Status = &status
	}

	all, err := a.downloads.Store().List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	out := make([]downloadResponse, 0, len(all))
	for _, d := range all {
		out = append(out, toDownloadResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getDownload(w http.ResponseWriter, r *http.Request) {
	d, ok := a.downloadFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toDownloadResponse(d))
}

// validateDownload runs validation on demand and returns the match
// report, so the bot can show the warning screen before the user decides.
func (a *API) validateDownload(w http.ResponseWriter, r *http.Request) {
	d, ok := a.downloadFromPath(w, r)
	if !ok {
		return
	}

	report, err := a.pipeline.Validate(r.Context(), d)
	if err != nil {
		if errors.Is(err, validate.ErrMetadataFetch) {
			writeError(w, http.StatusBadGateway, "metadata_fetch", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// confirmDownload is the user's explicit go-ahead for a download whose
// validation found gaps. Refused when nothing matched at all.
func (a *API) confirmDownload(w http.ResponseWriter, r *http.Request) {
	d, ok := a.downloadFromPath(w, r)
	if !ok {
		return
	}
	if d.Status != download.StatusAwaitingConfirm && d.Status != download.StatusCompleted {
		writeError(w, http.StatusConflict, "wrong_status",
			fmt.Sprintf("download is %s, not awaiting confirmation", d.Status))
		return
	}

	report, err := a.pipeline.Import(r.Context(), d)
	if err != nil {
		if errors.Is(err, ErrNotImportable) {
			writeError(w, http.StatusUnprocessableEntity, "not_importable", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "import_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) cancelDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	deleteFiles := r.URL.Query().Get("delete_files") == "true"

	if err := a.downloads.Cancel(r.Context(), id, deleteFiles); err != nil {
		if errors.Is(err, download.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listLibrary(w http.ResponseWriter, _ *http.Request) {
	entities, err := a.library.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entities)
}

func (a *API) getLibraryEntity(w http.ResponseWriter, r *http.Request) {
	externalID := r.PathValue("external_id")
	entity, err := a.library.GetByExternalID(externalID)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (a *API) listHistory(w http.ResponseWriter, r *http.Request) {
	filter := importer.HistoryFilter{Limit: 100}
	if s := r.URL.Query().Get("download_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid download_id")
			return
		}
		filter.DownloadID = &id
	}
	if s := r.URL.Query().Get("entity_id"); s != "" {
		filter.EntityID = &s
	}

	entries, err := a.history.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) downloadFromPath(w http.ResponseWriter, r *http.Request) (*download.Download, bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return nil, false
	}
	d, err := a.downloads.Store().Get(id)
	if err != nil {
		if errors.Is(err, download.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err.Error())
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return nil, false
	}
	return d, true
}
