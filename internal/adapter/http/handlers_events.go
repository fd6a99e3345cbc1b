package adapthttp

import (
	"errors"
	"net/http"
)

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, errors.New("events disabled"))
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user := userFromContext(r.Context())
	if err := s.events.Serve(w, r, user.ID); err != nil {
		// The upgrader has already written the failure response.
		s.log.Debug().Err(err).Msg("websocket upgrade")
	}
}
