package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-auth-session/auth"
	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/oauthmodel"
)

// StatusResponse describes the login session of the requesting browser
type StatusResponse struct {
	Authenticated bool                 `json:"authenticated"`
	Status        string               `json:"status"`
	Identity      *oauthmodel.Identity `json:"identity,omitempty"`
	ExpiresAt     *time.Time           `json:"expires_at,omitempty"`
}

// ReconcileHandler runs the authentication check for the page being loaded.
// It serves both the home page and the provider's redirect back with a code.
func (s *Server) ReconcileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bs, err := s.sessionFor(w, r)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "session_unavailable", err.Error())
			return
		}

		rc := newRequestContext(w, r)
		_, err = s.authenticate(w, r, bs, rc)
		if err != nil {
			status, code := callbackErrorStatus(err)
			writeError(w, status, code, err.Error())
			return
		}

		if rc.needsRedirect() {
			redirectSuccess(w, r, rc.cleanURL())
			return
		}

		writeJSON(w, http.StatusOK, statusOf(bs.session, rc))
	}
}

// statusOf reads the token expiry first: an invalid stored token drops the session
// to anonymous before its identity is reported.
func statusOf(session *auth.Session, rc auth.RequestContext) StatusResponse {
	expiresAt, hasExpiry := session.TokenExpiry(rc)

	resp := StatusResponse{Status: session.Status().String()}
	identity, ok := session.Identity()
	if !ok {
		return resp
	}

	resp.Authenticated = true
	resp.Identity = &identity
	if hasExpiry {
		resp.ExpiresAt = &expiresAt
	}
	return resp
}

// callbackErrorStatus maps a failed callback onto an HTTP status and error code
func callbackErrorStatus(err error) (int, string) {
	switch {
	case autherrors.Is(err, autherrors.ErrStateMismatch):
		return http.StatusBadRequest, "invalid_state"
	case autherrors.Is(err, autherrors.ErrProviderDenied):
		return http.StatusForbidden, "access_denied"
	case autherrors.Is(err, autherrors.ErrInvalidGrant):
		return http.StatusUnauthorized, "invalid_grant"
	default:
		return http.StatusBadGateway, "exchange_failed"
	}
}
