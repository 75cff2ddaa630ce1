package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vmunix/nzzel/internal/events"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(w, r)
	if !ok {
		return
	}

	raws, total, err := s.deps.EventLog.Recent(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, listEventsResponse{
		Items:  eventsToResponse(raws),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) listDownloadEvents(w http.ResponseWriter, r *http.Request) {
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

	raws, err := s.deps.EventLog.ForJob(d.JobID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, listEventsResponse{
		Items:  eventsToResponse(raws),
		Total:  len(raws),
		Limit:  len(raws),
		Offset: 0,
	})
}

func eventsToResponse(raws []events.RawEvent) []EventResponse {
	items := make([]EventResponse, len(raws))
	for i, e := range raws {
		items[i] = EventResponse{
			ID:         e.ID,
			EventType:  string(e.EventType),
			JobID:      e.JobID,
			OccurredAt: e.OccurredAt.Format(time.RFC3339),
		}
		// a payload that no longer decodes is still listed
		_ = json.Unmarshal([]byte(e.Payload), &items[i].Payload)
	}
	return items
}
