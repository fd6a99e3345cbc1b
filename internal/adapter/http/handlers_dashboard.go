package adapthttp

import (
	"net/http"
	"time"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user := userFromContext(r.Context())
	sum, err := s.dashboard.Summary(r.Context(), user.ID, s.now().In(time.Local), unitQuery(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user := userFromContext(r.Context())
	points, err := s.dashboard.Series(r.Context(), user.ID, intQuery(r, "limit", 0), unitQuery(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": points})
}
