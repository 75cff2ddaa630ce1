// Package v1 implements the native REST API.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vmunix/nzzel/internal/download"
	"github.com/vmunix/nzzel/internal/ytdlp"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

// Server is the v1 API server.
type Server struct {
	deps ServerDeps
}

// New creates a new v1 API server.
func New(deps ServerDeps) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingDependency, err)
	}
	return &Server{deps: deps}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Metadata
	mux.HandleFunc("POST /api/v1/extract", s.requireTool(s.extract))
	mux.HandleFunc("POST /api/v1/formats", s.requireTool(s.formats))

	// Downloads
	mux.HandleFunc("POST /api/v1/downloads", s.startDownload)
	mux.HandleFunc("GET /api/v1/downloads", s.listDownloads)
	mux.HandleFunc("GET /api/v1/downloads/{id}", s.getDownload)
	mux.HandleFunc("DELETE /api/v1/downloads/{id}", s.deleteDownload)
	mux.HandleFunc("POST /api/v1/downloads/{id}/retry", s.retryDownload)

	// Events
	mux.HandleFunc("GET /api/v1/events", s.requireEventLog(s.listEvents))
	mux.HandleFunc("GET /api/v1/downloads/{id}/events", s.requireEventLog(s.listDownloadEvents))

	// System
	mux.HandleFunc("GET /api/v1/status", s.getStatus)

	if s.deps.Realtime != nil {
		mux.Handle("GET /api/v1/ws", s.deps.Realtime)
	}
}

// Error response
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

// writeToolError maps a yt-dlp failure to a response.
func writeToolError(w http.ResponseWriter, err error) {
	var rerr *ytdlp.RuntimeError
	switch {
	case errors.As(err, &rerr):
		writeError(w, http.StatusUnprocessableEntity, "EXTRACT_FAILED", rerr.Message)
	case errors.Is(err, ytdlp.ErrSpawn), errors.Is(err, ytdlp.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "YTDLP_UNAVAILABLE", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "EXTRACT_FAILED", err.Error())
	}
}

// writeDownloadError maps a download manager failure to a response.
func writeDownloadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, download.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Download not found")
	case errors.Is(err, download.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "INVALID_STATE", err.Error())
	case errors.Is(err, download.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, ytdlp.ErrSpawn):
		writeError(w, http.StatusServiceUnavailable, "SPAWN_FAILED", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
	}
}

// pathID extracts the integer {id} from the URL path.
func pathID(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	if idStr == "" {
		return 0, errors.New("missing path parameter: id")
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// pagination reads limit and offset, writing a 400 if they are negative.
func pagination(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit = queryInt(r, "limit", defaultLimit)
	offset = queryInt(r, "offset", 0)
	if limit < 0 || offset < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "limit and offset must be non-negative")
		return 0, 0, false
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, offset, true
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "MISSING_URL", "URL is required")
		return
	}

	if ytdlp.IsPlaylistURL(req.URL) {
		info, err := s.deps.Extractor.PlaylistInfo(r.Context(), req.URL)
		if err != nil {
			writeToolError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, extractResponse{Type: "playlist", Data: info})
		return
	}

	info, err := s.deps.Extractor.VideoInfo(r.Context(), req.URL)
	if err != nil {
		writeToolError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{Type: "video", Data: info})
}

func (s *Server) formats(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "MISSING_URL", "URL is required")
		return
	}

	formats, err := s.deps.Extractor.Formats(r.Context(), req.URL)
	if err != nil {
		writeToolError(w, err)
		return
	}

	useful := ytdlp.UsefulFormats(formats)
	if useful == nil {
		useful = []ytdlp.UsefulFormat{}
	}
	writeJSON(w, http.StatusOK, formatsResponse{Formats: useful})
}

func (s *Server) startDownload(w http.ResponseWriter, r *http.Request) {
	var req startDownloadRequest
	if !decodeBody(w, r, &req) {
		return
	}

	d, err := s.deps.Downloads.Start(r.Context(), download.Request{
		URL:          req.URL,
		VideoID:      req.VideoID,
		Title:        req.Title,
		Format:       req.Format,
		Quality:      req.Quality,
		AudioOnly:    req.AudioOnly,
		OutputDir:    req.OutputPath,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     req.Duration,
	})
	if err != nil {
		writeDownloadError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, startDownloadResponse{
		DownloadID: d.ID,
		JobID:      d.JobID,
		Message:    "Download started",
	})
}

func (s *Server) listDownloads(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := download.Filter{
		Query:  q.Get("q"),
		Limit:  limit,
		Offset: offset,
	}
	if st := q.Get("status"); st != "" {
		status := download.Status(st)
		filter.Status = &status
	}
	if q.Get("active") == "true" {
		filter.Active = true
	}

	items, total, err := s.deps.Downloads.List(filter)
	if err != nil {
		writeDownloadError(w, err)
		return
	}

	resp := listDownloadsResponse{
		Items:  make([]downloadResponse, len(items)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i, d := range items {
		resp.Items[i] = downloadToResponse(d)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	d, err := s.deps.Downloads.Get(id)
	if err != nil {
		writeDownloadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, downloadToResponse(d))
}

// deleteDownload cancels a download, or deletes its record with ?action=remove.
func (s *Server) deleteDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	if r.URL.Query().Get("action") == "remove" {
		if err := s.deps.Downloads.Remove(id); err != nil {
			writeDownloadError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	active, err := s.deps.Downloads.Cancel(id)
	if err != nil {
		writeDownloadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cancelResponse{
		ID:        id,
		Status:    string(download.StatusCancelled),
		JobActive: active,
	})
}

func (s *Server) retryDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	d, err := s.deps.Downloads.Retry(r.Context(), id)
	if err != nil {
		writeDownloadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, downloadToResponse(d))
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:     "ok",
		ActiveJobs: s.deps.Extractor.Active(),
		Downloads:  make(map[string]int),
	}
	if resp.ActiveJobs == nil {
		resp.ActiveJobs = []string{}
	}

	if version, err := s.deps.Extractor.Version(r.Context()); err == nil {
		resp.YtDlp = toolStatus{Available: true, Version: version}
	} else {
		resp.Status = "degraded"
	}

	counts, err := s.deps.Downloads.Counts()
	if err != nil {
		writeDownloadError(w, err)
		return
	}
	for st, n := range counts {
		resp.Downloads[string(st)] = n
	}

	writeJSON(w, http.StatusOK, resp)
}
