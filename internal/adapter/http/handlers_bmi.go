package adapthttp

import (
	"net/http"

	"healthmonitor/internal/domain"
)

// handleBMI is the stateless calculator: nothing is stored.
func (s *Server) handleBMI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	weight, err := floatQuery(r, "weight")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	height, err := floatQuery(r, "height")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	bmi, err := domain.ComputeBMI(weight, height)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bmi":            bmi,
		"classification": domain.ClassifyBMI(bmi),
	})
}
