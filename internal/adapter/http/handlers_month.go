package adapthttp

import (
	"fmt"
	"net/http"
	"strconv"

	"tracked/internal/domain"
)

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		s.writeDomainError(w, r, fmt.Errorf("%w: invalid year %q", domain.ErrInvalidInput, r.PathValue("year")))
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		s.writeDomainError(w, r, fmt.Errorf("%w: invalid month %q", domain.ErrInvalidInput, r.PathValue("month")))
		return
	}

	grid, err := s.grid.BuildMonthGrid(r.Context(), userFromContext(r).ID, year, month)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}
