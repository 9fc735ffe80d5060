package adapthttp

import (
	"fmt"
	"net/http"
	"time"

	"tracked/internal/domain"
)

// handleSnapshots lists snapshots in [from, to]. Both default to today, and a
// missing from spans intQuery("days", 30) days back from to.
func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	to := q.Get("to")
	if to == "" {
		to = time.Now().Format(domain.DayLayout)
	}
	from := q.Get("from")
	if from == "" {
		end, err := domain.ParseDay(to)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		from = end.AddDate(0, 0, 1-intQuery(r, "days", 30)).Format(domain.DayLayout)
	}

	items, err := s.entries.ListSnapshots(r.Context(), userFromContext(r).ID, from, to)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"from": from, "to": to, "items": items})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	date := r.PathValue("date")
	if date == "" {
		s.writeDomainError(w, r, fmt.Errorf("%w: date is required", domain.ErrInvalidInput))
		return
	}
	snap, err := s.entries.GetOrCreateSnapshot(r.Context(), userFromContext(r).ID, date)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshot": snap})
}
