// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"healthmonitor/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	sessionCookie = "session"
	stateCookie   = "oauth_state"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.authSvc.SessionTTL().Seconds()),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request"))
		return
	}

	token, err := s.authSvc.Login(r.Context(), req.Username, req.Password, r.UserAgent(), r.RemoteAddr)
	if errors.Is(err, app.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.setSessionCookie(w, r, token)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := s.authSvc.Logout(r.Context(), cookie.Value); err != nil {
			s.log.Warn().Err(err).Msg("logout")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSetupUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request"))
		return
	}

	if err := s.authSvc.CreateInitialUser(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": userFromContext(r.Context())})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sso_enabled": s.oidcConfig.Enabled,
	})
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		writeError(w, http.StatusNotFound, errors.New("sso disabled"))
		return
	}
	state, err := generateState()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.oidcConfig.OAuth2Config.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		writeError(w, http.StatusNotFound, errors.New("sso disabled"))
		return
	}

	state, err := r.Cookie(stateCookie)
	if err != nil || r.URL.Query().Get("state") != state.Value {
		writeError(w, http.StatusBadRequest, errors.New("invalid state"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, MaxAge: -1, Path: "/"})

	token, err := s.oidcConfig.OAuth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.log.Error().Err(err).Msg("oidc code exchange")
		writeError(w, http.StatusInternalServerError, errors.New("failed to exchange token"))
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("no id_token"))
		return
	}

	idToken, err := s.oidcConfig.Provider.Verifier(&oidc.Config{ClientID: s.oidcConfig.OAuth2Config.ClientID}).Verify(r.Context(), rawIDToken)
	if err != nil {
		s.log.Error().Err(err).Msg("oidc id token verification")
		writeError(w, http.StatusInternalServerError, errors.New("failed to verify token"))
		return
	}

	var claims struct {
		Email string `json:"email"`
		Sub   string `json:"sub"`
		Name  string `json:"name"`
	}
	if err = idToken.Claims(&claims); err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("failed to parse claims"))
		return
	}

	username := claims.Email
	if username == "" {
		username = claims.Sub
	}

	sessionToken, err := s.authSvc.LoginWithUser(r.Context(), username, claims.Name, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.setSessionCookie(w, r, sessionToken)
	http.Redirect(w, r, "/", http.StatusFound)
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
