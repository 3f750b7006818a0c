package server

import (
	"net/http"

	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/rs/zerolog/log"
)

// LoginHandler sends the browser to the provider's consent page.
// A browser that is already signed in, or holds a valid session token, goes home instead.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bs, err := s.sessionFor(w, r)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "session_unavailable", err.Error())
			return
		}

		rc := newRequestContext(w, r)
		if ok, _ := s.authenticate(w, r, bs, rc); ok {
			redirectSuccess(w, r, RouteHome)
			return
		}

		authURL, err := bs.session.StartLogin()
		if autherrors.Is(err, autherrors.ErrAlreadyAuthenticated) {
			redirectSuccess(w, r, RouteHome)
			return
		}
		if err != nil {
			log.Err(err).Msg("Failed to start login")
			writeError(w, http.StatusBadGateway, "login_unavailable", "could not start login with the identity provider")
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bs, err := s.sessionFor(w, r)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "session_unavailable", err.Error())
			return
		}

		bs.session.Logout(newRequestContext(w, r))
		redirectSuccess(w, r, RouteHome)
	}
}

// MeHandler returns the signed-in identity, or 401
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bs, err := s.sessionFor(w, r)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "session_unavailable", err.Error())
			return
		}

		rc := newRequestContext(w, r)
		ok, err := s.authenticate(w, r, bs, rc)
		if err != nil || !ok {
			writeError(w, http.StatusUnauthorized, "not_authenticated", autherrors.ErrNotAuthenticated.Error())
			return
		}
		status := statusOf(bs.session, rc)
		if !status.Authenticated {
			writeError(w, http.StatusUnauthorized, "not_authenticated", autherrors.ErrNotAuthenticated.Error())
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// HealthResponse reports liveness and the number of live login sessions
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Sessions: s.sessions.Len()})
	}
}
