package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "healthmonitor/internal/adapter/http"
	"healthmonitor/internal/adapter/memory"
	"healthmonitor/internal/adapter/postgres"
	"healthmonitor/internal/adapter/realtime"
	"healthmonitor/internal/adapter/sqlite"
	"healthmonitor/internal/app"
	"healthmonitor/internal/config"
	"healthmonitor/internal/domain"

	"github.com/rs/zerolog"
)

const (
	sessionPurgeInterval = time.Hour
	shutdownTimeout      = 10 * time.Second
)

// stores bundles whichever backend was selected.
type stores struct {
	records  domain.RecordRepository
	goals    domain.GoalRepository
	users    domain.UserRepository
	sessions domain.SessionRepository
	closer   io.Closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openStores(cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &stores{records: db, goals: db, users: db, sessions: postgres.NewSessionRepo(db), closer: db}, nil
	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return &stores{records: db, goals: db, users: db, sessions: sqlite.NewSessionRepo(db), closer: db}, nil
	default:
		db := memory.New()
		return &stores{records: db, goals: db, users: db, sessions: db.NewSessionRepo(), closer: nopCloser{}}, nil
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}

	log, err := config.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("db open")
	}
	defer func() { _ = st.closer.Close() }()
	log.Info().Str("store", cfg.Store).Msg("store ready")

	hub := realtime.NewHub(log)
	defer hub.Close()

	recordSvc := app.NewRecordService(st.records, hub)
	goalSvc := app.NewGoalService(st.goals, hub)
	dashboardSvc := app.NewDashboardService(st.records, st.goals)
	exportSvc := app.NewExportService(st.records)
	authSvc := app.NewAuthService(st.users, st.sessions).WithSessionTTL(cfg.SessionTTL)
	if cfg.JWTSecret != "" {
		authSvc = authSvc.WithJWTSecret(cfg.JWTSecret)
	}

	if cfg.InitialUser != "" {
		err := authSvc.CreateInitialUser(ctx, cfg.InitialUser, cfg.InitialPassword)
		switch {
		case errors.Is(err, app.ErrUsersExist):
		case err != nil:
			log.Fatal().Err(err).Msg("create initial user")
		default:
			log.Info().Str("username", cfg.InitialUser).Msg("initial user created")
		}
	}

	srv := adapthttp.New(recordSvc, goalSvc, dashboardSvc, exportSvc, authSvc, cfg.WebDir).
		WithLogger(log).
		WithEvents(hub)

	if cfg.OIDCEnabled() {
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		if err != nil {
			log.Fatal().Err(err).Msg("oidc")
		}
		srv = srv.WithOIDC(oidcCfg)
	}
	if cfg.TrustForwardAuth {
		srv = srv.WithForwardAuth()
	}
	if cfg.DisableAuth {
		local, err := authSvc.ValidateForwardAuth(ctx, "local", "Local User")
		if err != nil {
			log.Fatal().Err(err).Msg("provision local user")
		}
		log.Warn().Msg("authentication disabled")
		srv = srv.WithoutAuth(local)
	}

	go purgeSessions(ctx, authSvc, log)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func purgeSessions(ctx context.Context, auth *app.AuthService, log zerolog.Logger) {
	t := time.NewTicker(sessionPurgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := auth.PurgeExpiredSessions(ctx); err != nil {
				log.Error().Err(err).Msg("purge expired sessions")
			}
		}
	}
}
