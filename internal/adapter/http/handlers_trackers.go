package adapthttp

import (
	"net/http"

	"tracked/internal/domain"
)

func (s *Server) handleTrackers(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	switch r.Method {
	case http.MethodGet:
		items, err := s.trackers.List(r.Context(), user.ID)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var body domain.TrackerPatch
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		t, err := s.trackers.Create(r.Context(), user.ID, body)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"tracker": t})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSuggestedTrackers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": s.trackers.Suggested()})
}

func (s *Server) handleQuickAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	t, err := s.trackers.QuickAdd(r.Context(), userFromContext(r).ID, r.PathValue("slug"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"tracker": t})
}

func (s *Server) handleTracker(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	user := userFromContext(r)

	switch r.Method {
	case http.MethodPut, http.MethodPatch:
		var patch domain.TrackerPatch
		if err := parseJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		t, err := s.trackers.Update(r.Context(), user.ID, id, patch)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tracker": t})
	case http.MethodDelete:
		if err := s.trackers.Delete(r.Context(), user.ID, id); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": true})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTrackerAction(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("action") != "deactivate" {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	t, err := s.trackers.Deactivate(r.Context(), userFromContext(r).ID, id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracker": t})
}
