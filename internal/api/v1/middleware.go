package v1

import (
	"encoding/json"
	"net/http"
)

const maxBodyBytes = 1 << 20

// requireEventLog wraps a handler and returns 503 if the event log is not configured.
func (s *Server) requireEventLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.EventLog == nil {
			writeError(w, http.StatusServiceUnavailable, "NO_EVENT_LOG", "Event log not configured")
			return
		}
		next(w, r)
	}
}

// requireTool wraps a handler and returns 503 if yt-dlp cannot be run.
func (s *Server) requireTool(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.deps.Extractor.Available(r.Context()) {
			writeError(w, http.StatusServiceUnavailable, "YTDLP_UNAVAILABLE", "yt-dlp is not available. Please install it first.")
			return
		}
		next(w, r)
	}
}

// decodeBody decodes a bounded JSON request body into v, writing a 400 on
// failure. It reports whether decoding succeeded.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return false
	}
	return true
}
