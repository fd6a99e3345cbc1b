package adapthttp

import "net/http"

func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFromContext(ctx)

	switch r.Method {
	case http.MethodGet:
		goal, err := s.goals.Get(ctx, user.ID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"goal": goal})

	case http.MethodPut:
		var body struct {
			WeightKg float64 `json:"weightKg"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		goal, err := s.goals.Set(ctx, user.ID, body.WeightKg)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"goal": goal})

	default:
		methodNotAllowed(w)
	}
}
