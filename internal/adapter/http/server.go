package adapthttp

import (
	"net/http"

	"tracked/internal/app"
	"tracked/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// OIDCConfig holds the SSO provider settings. SSO routes answer 404 unless
// Enabled is set.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	trackers *app.TrackerService
	entries  *app.EntryService
	grid     *app.GridService
	authSvc  *app.AuthService
	webDir   string
	log      log.FieldLogger

	oidcConfig       OIDCConfig
	trustForwardAuth bool
	disableAuth      bool
	fixedUser        *domain.User
}

// New creates a Server wired to the given application services.
func New(ts *app.TrackerService, es *app.EntryService, gs *app.GridService, as *app.AuthService, webDir string, logger log.FieldLogger) *Server {
	return &Server{
		trackers: ts,
		entries:  es,
		grid:     gs,
		authSvc:  as,
		webDir:   webDir,
		log:      logger,
	}
}

// WithOIDC enables SSO login through the given provider.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithForwardAuth accepts the Remote-User header set by a trusted reverse
// proxy. Only enable it when the proxy strips the header from client requests.
func (s *Server) WithForwardAuth() *Server {
	s.trustForwardAuth = true
	return s
}

// WithoutAuth skips authentication and serves every protected request as user.
func (s *Server) WithoutAuth(user *domain.User) *Server {
	s.disableAuth = true
	s.fixedUser = user
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	protected := http.NewServeMux()
	protected.HandleFunc("/me", s.handleMe)

	protected.HandleFunc("/trackers", s.handleTrackers)
	protected.HandleFunc("/trackers/suggested", s.handleSuggestedTrackers)
	protected.HandleFunc("/trackers/quick-add/{slug}", s.handleQuickAdd)
	protected.HandleFunc("/trackers/{id}", s.handleTracker)
	protected.HandleFunc("/trackers/{id}/{action}", s.handleTrackerAction)

	protected.HandleFunc("/entries", s.handleEntries)
	protected.HandleFunc("/entries/{id}", s.handleEntry)

	protected.HandleFunc("/snapshots", s.handleSnapshots)
	protected.HandleFunc("/snapshots/{date}", s.handleSnapshot)

	protected.HandleFunc("/month/{year}/{month}", s.handleMonth)

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
	api.Handle("/", s.authMiddleware(protected))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}
