package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "tracked/internal/adapter/http"
	"tracked/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// ServeCmd runs the HTTP server until SIGINT or SIGTERM.
type ServeCmd struct {
	Addr   string `help:"Listen address." default:":8080" env:"ADDR"`
	WebDir string `help:"Directory with the web UI." default:"web" env:"WEB_DIR"`

	MonthCacheTTL  time.Duration `help:"Month view cache TTL; 0 disables the cache." default:"5m" env:"MONTH_CACHE_TTL"`
	MonthCacheSize int           `help:"Maximum number of cached month views." default:"256" env:"MONTH_CACHE_SIZE"`
	TrackerLimit   int           `help:"Maximum active trackers per user; 0 is unlimited." default:"0" env:"TRACKER_LIMIT"`
	SweepInterval  time.Duration `help:"How often expired sessions are purged." default:"1h" env:"SESSION_SWEEP_INTERVAL"`

	TrustForwardAuth bool `name:"trust-forward-auth" help:"Log in the user named by the Remote-User header of a trusted reverse proxy." env:"TRUST_FORWARD_AUTH"`

	OIDCIssuer       string `name:"oidc-issuer" help:"OIDC issuer URL; enables SSO." env:"OIDC_ISSUER"`
	OIDCClientID     string `name:"oidc-client-id" env:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `name:"oidc-client-secret" env:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string `name:"oidc-redirect-url" env:"OIDC_REDIRECT_URL"`
}

func (c *ServeCmd) Run(g *Globals) error {
	logger, err := g.logger()
	if err != nil {
		return err
	}

	st, err := g.openStores(logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := app.NewMonthCache(c.MonthCacheSize, c.MonthCacheTTL)
	trackerSvc := app.NewTrackerService(st.trackers, cache, c.TrackerLimit)
	entrySvc := app.NewEntryService(st.trackers, st.snapshots, st.entries, st.tx, cache)
	gridSvc := app.NewGridService(st.trackers, st.snapshots, st.entries, cache, logger.WithField("component", "grid"))
	authSvc := app.NewAuthService(st.users, st.profiles, st.sessions)

	server := adapthttp.New(trackerSvc, entrySvc, gridSvc, authSvc, c.WebDir, logger.WithField("component", "http"))
	if c.TrustForwardAuth {
		server.WithForwardAuth()
		logger.Warn("trusting Remote-User forward auth header")
	}
	if c.OIDCIssuer != "" {
		cfg, err := c.oidcConfig(ctx)
		if err != nil {
			return err
		}
		server.WithOIDC(cfg)
		logger.WithField("issuer", c.OIDCIssuer).Info("sso enabled")
	}

	go sweepSessions(ctx, authSvc, c.SweepInterval, logger)

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(log.Fields{"addr": c.Addr, "store": g.Store}).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (c *ServeCmd) oidcConfig(ctx context.Context) (adapthttp.OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, c.OIDCIssuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, fmt.Errorf("oidc provider: %w", err)
	}
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     c.OIDCClientID,
			ClientSecret: c.OIDCClientSecret,
			RedirectURL:  c.OIDCRedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func sweepSessions(ctx context.Context, auth *app.AuthService, every time.Duration, logger log.FieldLogger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.SweepExpiredSessions(ctx); err != nil {
				logger.WithError(err).Warn("sweeping expired sessions")
			}
		}
	}
}
