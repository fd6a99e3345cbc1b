package adapthttp

import (
	"errors"
	"net/http"
	"strings"
)

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFromContext(ctx)

	switch r.Method {
	case http.MethodGet:
		items, err := s.records.List(ctx, user.ID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPut:
		var body struct {
			Date   string  `json:"date"`
			Weight float64 `json:"weight"`
			Height float64 `json:"height"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if body.Date == "" {
			body.Date = localDayString(s.now())
		}
		rec, err := s.records.Save(ctx, user.ID, body.Date, body.Weight, body.Height)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"record": rec})

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleRecordByDay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFromContext(ctx)
	day := strings.TrimPrefix(r.URL.Path, "/records/")

	switch r.Method {
	case http.MethodGet:
		rec, err := s.records.Get(ctx, user.ID, day)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if rec == nil {
			writeError(w, http.StatusNotFound, errors.New("record not found"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"record": rec})

	case http.MethodDelete:
		deleted, err := s.records.Delete(ctx, user.ID, day)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, errors.New("record not found"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": true})

	default:
		methodNotAllowed(w)
	}
}
