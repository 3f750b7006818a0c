package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/server/loginsession"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env         string // Environment (e.g., "DEV", "PROD")
	router      *mux.Router
	routes      []string
	config      config.Config
	provider    auth.IdentityProvider
	codec       auth.TokenCodec
	sessions    loginsession.Registry
	sessionOpts auth.Options
	limiter     *rateLimiter
	nowTime     func() time.Time
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*Server)

// WithNowTime sets the now time function used by the login sessions (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(config config.Config, provider auth.IdentityProvider, codec auth.TokenCodec, sessions loginsession.Registry, opts ...ServerOption) (*Server, error) {
	if sessions == nil {
		return nil, fmt.Errorf("[Server New] session registry is required")
	}

	s := &Server{
		env:      config.GetEnv(),
		router:   mux.NewRouter(),
		config:   config,
		provider: provider,
		codec:    codec,
		sessions: sessions,
		sessionOpts: auth.Options{
			CookieName:     config.GetCookieName(),
			TokenTTL:       config.GetTokenTTL(),
			RedirectURI:    config.GetRedirectURI(),
			Scopes:         config.GetScopes(),
			FlowTTL:        config.GetFlowTTL(),
			SkipStateCheck: config.GetSkipStateCheck(),
		},
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Fail at start-up rather than on the first request
	if _, err := s.newSession(); err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}

	if config.GetEnableRateLimiting() {
		s.limiter = newRateLimiter(config.GetRateLimit(), config.GetRateBurst(), config.GetTrustProxyHeaders())
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRouteFunc registers handler for a "METHOD /path" pattern
func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)

	method, path, found := strings.Cut(pattern, " ")
	if !found {
		s.router.HandleFunc(pattern, handler)
		return
	}
	s.router.HandleFunc(path, handler).Methods(method)
}

func (s *Server) newSession() (*auth.Session, error) {
	return auth.NewSession(s.codec, s.provider, s.sessionOpts, auth.WithNowTime(s.nowTime))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
