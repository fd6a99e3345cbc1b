package adapthttp

import (
	"bytes"
	"net/http"
)

const exportFilename = "health-records.csv"

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user := userFromContext(r.Context())

	// Buffer so a store error still yields a JSON error instead of a
	// truncated download.
	var buf bytes.Buffer
	if _, err := s.export.WriteCSV(r.Context(), &buf, user.ID, r.URL.Query().Get("order")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
