package adapthttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"tracked/internal/domain"
)

// entryRequest is the body of POST /api/entries. number_value accepts a JSON
// number or a string so that "12.50" keeps its digits.
type entryRequest struct {
	TrackerID       int64           `json:"tracker_id"`
	Date            string          `json:"date"`
	DeleteEntry     bool            `json:"delete_entry"`
	BinaryValue     *bool           `json:"binary_value"`
	NumberValue     json.RawMessage `json:"number_value"`
	RatingValue     *int            `json:"rating_value"`
	DurationMinutes *int            `json:"duration_minutes"`
	TimeValue       *string         `json:"time_value"`
	TextValue       *string         `json:"text_value"`
}

func (req entryRequest) payload() (domain.EntryPayload, error) {
	p := domain.EntryPayload{
		Delete:   req.DeleteEntry,
		Binary:   req.BinaryValue,
		Rating:   req.RatingValue,
		Duration: req.DurationMinutes,
		Time:     req.TimeValue,
		Text:     req.TextValue,
	}
	raw := bytes.TrimSpace(req.NumberValue)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return p, nil
	}
	var n string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &n); err != nil {
			return p, fmt.Errorf("invalid number_value: %w", err)
		}
	} else {
		n = string(raw)
	}
	p.Number = &n
	return p, nil
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req entryRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.TrackerID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "tracker_id is required", "field": "tracker_id"})
		return
	}
	p, err := req.payload()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "field": "number_value"})
		return
	}

	res, err := s.entries.UpsertEntry(r.Context(), userFromContext(r).ID, req.TrackerID, req.Date, p)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	switch {
	case res.Deleted:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": true})
	case res.Created:
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "entry_id": res.EntryID, "created": true})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "entry_id": res.EntryID, "created": false})
	}
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.entries.DeleteEntry(r.Context(), userFromContext(r).ID, id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": true})
}
