package adapthttp

import (
	"net/http"
	"time"

	"healthmonitor/internal/app"
	"healthmonitor/internal/domain"

	"github.com/rs/zerolog"
)

// EventStream serves a user's live change notifications over an upgraded
// connection.
type EventStream interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string) error
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	records   *app.RecordService
	goals     *app.GoalService
	dashboard *app.DashboardService
	export    *app.ExportService
	authSvc   *app.AuthService
	webDir    string

	oidcConfig       OIDCConfig
	events           EventStream
	log              zerolog.Logger
	trustForwardAuth bool
	disableAuth      bool
	localUser        *domain.User
	now              func() time.Time
}

// New creates a Server wired to the given application services.
func New(rs *app.RecordService, gs *app.GoalService, ds *app.DashboardService, es *app.ExportService, as *app.AuthService, webDir string) *Server {
	return &Server{
		records:   rs,
		goals:     gs,
		dashboard: ds,
		export:    es,
		authSvc:   as,
		webDir:    webDir,
		log:       zerolog.Nop(),
		now:       time.Now,
	}
}

// WithLogger sets the logger used for request and error logging.
func (s *Server) WithLogger(log zerolog.Logger) *Server {
	s.log = log
	return s
}

// WithOIDC enables single sign-on.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithEvents enables the /api/events websocket.
func (s *Server) WithEvents(stream EventStream) *Server {
	s.events = stream
	return s
}

// WithForwardAuth trusts the Remote-User header set by an authenticating
// reverse proxy. Only enable behind such a proxy.
func (s *Server) WithForwardAuth() *Server {
	s.trustForwardAuth = true
	return s
}

// WithoutAuth skips authentication and attributes every request to user.
func (s *Server) WithoutAuth(user *domain.User) *Server {
	s.disableAuth = true
	s.localUser = user
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	protected := func(h http.HandlerFunc) http.Handler {
		return s.authMiddleware(h)
	}

	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("/config", s.handleConfig)

	api.HandleFunc("/auth/login", s.handleLogin)
	api.HandleFunc("/auth/logout", s.handleLogout)
	api.HandleFunc("/auth/setup", s.handleSetupUser)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)
	api.Handle("/auth/me", protected(s.handleMe))

	api.Handle("/bmi", protected(s.handleBMI))
	api.Handle("/records", protected(s.handleRecords))
	api.Handle("/records/", protected(s.handleRecordByDay))
	api.Handle("/goal", protected(s.handleGoal))
	api.Handle("/dashboard", protected(s.handleDashboard))
	api.Handle("/charts/series", protected(s.handleSeries))
	api.Handle("/export.csv", protected(s.handleExportCSV))
	api.Handle("/events", protected(s.handleEvents))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}
