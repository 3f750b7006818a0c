package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/rs/zerolog/log"
)

// browserSessionCookie ties a browser to its in-memory login session
const browserSessionCookie = "auth_sid"

func (s *Server) SetBrowserSessionCookie(w http.ResponseWriter, sessionID string, r *http.Request) {
	isSecure := getScheme(r) == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     browserSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// browserSession is a login session and the browser session id it is filed under
type browserSession struct {
	id      string
	session *auth.Session
	issued  bool // id was issued on this request
}

// sessionFor returns the login session of the requesting browser. Only ids this
// server issued and still holds are honoured; anything else gets a fresh id and session.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (browserSession, error) {
	if c, err := r.Cookie(browserSessionCookie); err == nil {
		if session, err := s.sessions.Resume(c.Value); err == nil {
			return browserSession{id: c.Value, session: session}, nil
		}
	}

	sessionID := uuid.NewString()
	session, _, err := s.sessions.GetOrCreate(sessionID, s.newSession)
	if err != nil {
		return browserSession{}, err
	}
	log.Debug().Str("sid", sessionID).Msg("Login session created")
	s.SetBrowserSessionCookie(w, sessionID, r)
	return browserSession{id: sessionID, session: session, issued: true}, nil
}

// authenticate reconciles the login session with the request. A session that becomes
// authenticated on this request moves to a new browser session id.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, bs browserSession, rc *requestContext) (bool, error) {
	wasAuthenticated := bs.session.IsAuthenticated()
	ok, err := bs.session.CheckAuthentication(r.Context(), rc)
	if ok && !wasAuthenticated && !bs.issued {
		s.rotateBrowserSession(w, r, bs.id)
	}
	return ok, err
}

func (s *Server) rotateBrowserSession(w http.ResponseWriter, r *http.Request, oldID string) {
	newID := uuid.NewString()
	if err := s.sessions.Rotate(oldID, newID); err != nil {
		log.Warn().Err(err).Msg("Failed to rotate browser session id")
		return
	}
	s.SetBrowserSessionCookie(w, newID, r)
}

// redirectSuccess sends the browser to path with a GET
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("Failed to write JSON response")
	}
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}
