package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/oauthmodel"
	"github.com/rs/zerolog/log"
)

// Callback parameters appended by the provider when it redirects back
const (
	ParamCode             = "code"
	ParamState            = "state"
	ParamError            = "error"
	ParamErrorDescription = "error_description"
)

// DefaultFlowTTL bounds how long a login redirect stays redeemable
const DefaultFlowTTL = 10 * time.Minute

// requiredScopes are always requested, whatever the deployment adds
var requiredScopes = []string{"openid", "profile", "email"}

// Options configures a Session
type Options struct {
	CookieName  string        // name of the session token in the client store
	TokenTTL    time.Duration // lifetime of a minted session token
	RedirectURI string        // where the provider sends the user back
	Scopes      []string      // provider-specific scopes on top of openid, profile and email
	FlowTTL     time.Duration // how long a pending login may wait for its callback

	// SkipStateCheck accepts callbacks without matching the pending flow state.
	// It exists for compatibility with deployments that cannot carry the state.
	SkipStateCheck bool
}

// Session owns the authentication lifecycle of one client session.
// It is the single source of truth for "is this request authenticated".
type Session struct {
	mu       sync.Mutex
	codec    TokenCodec
	provider IdentityProvider
	opts     Options
	scopes   []string
	state    State
	nowTime  func() time.Time
}

// SessionOption defines a function type to modify the Session instance.
type SessionOption func(*Session)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionOption {
	return func(s *Session) {
		s.nowTime = nowFunc
	}
}

// NewSession creates an anonymous session. Invalid wiring is a configuration error.
func NewSession(codec TokenCodec, provider IdentityProvider, opts Options, options ...SessionOption) (*Session, error) {
	if codec == nil {
		return nil, fmt.Errorf("[NewSession] token codec is required: %w", autherrors.ErrConfig)
	}
	if provider == nil {
		return nil, fmt.Errorf("[NewSession] identity provider is required: %w", autherrors.ErrConfig)
	}
	if strings.TrimSpace(opts.CookieName) == "" {
		return nil, fmt.Errorf("[NewSession] cookie name is required: %w", autherrors.ErrConfig)
	}
	if opts.TokenTTL <= 0 {
		return nil, fmt.Errorf("[NewSession] token ttl must be positive: %w", autherrors.ErrConfig)
	}
	if opts.FlowTTL <= 0 {
		opts.FlowTTL = DefaultFlowTTL
	}

	s := &Session{
		codec:    codec,
		provider: provider,
		opts:     opts,
		scopes:   mergeScopes(opts.Scopes),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Scopes returns the scopes requested at login
func (s *Session) Scopes() []string {
	return slices.Clone(s.scopes)
}

// StartLogin issues a provider redirect URL and waits for its callback
func (s *Session) StartLogin() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected() {
		return "", autherrors.ErrAlreadyAuthenticated
	}
	s.reset()

	flow, err := oauthmodel.NewFlowState(s.opts.RedirectURI, s.nowTime())
	if err != nil {
		return "", fmt.Errorf("[Session StartLogin] %w", err)
	}
	authURL, err := s.provider.AuthCodeURL(flow, s.scopes)
	if err != nil {
		s.state.PendingFlow = nil
		return "", fmt.Errorf("[Session StartLogin] failed to build authorization URL: %w", err)
	}

	s.state.PendingFlow = &flow
	return authURL, nil
}

// CheckAuthentication reconciles the session with the current request.
// It returns true when the request is authenticated. A non-nil error is meant
// for display; the session has already degraded to anonymous when it is set.
func (s *Session) CheckAuthentication(ctx context.Context, rc RequestContext) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected() {
		return true, nil
	}
	if s.state.Connected {
		log.Info().Str("email", s.state.Identity.Email).Msg("Session lifetime ended; revalidating")
		s.reset()
	}

	if payloadIdentity, expiresAt, ok := s.readToken(rc); ok {
		s.state = State{Connected: true, Identity: &payloadIdentity, ExpiresAt: expiresAt}
		clearCallback(rc)
		return true, nil
	}

	if providerErr := rc.CallbackParam(ParamError); providerErr != "" {
		desc := rc.CallbackParam(ParamErrorDescription)
		s.reset()
		clearCallback(rc)
		log.Warn().Str("error", providerErr).Str("description", desc).Msg("Provider denied authorization")
		if desc != "" {
			providerErr += ": " + desc
		}
		return false, fmt.Errorf("%w: %s", autherrors.ErrProviderDenied, providerErr)
	}

	code := rc.CallbackParam(ParamCode)
	if code == "" {
		return false, nil
	}
	return s.completeLogin(ctx, rc, code)
}

// Logout forgets the identity in memory and in the client store
func (s *Session) Logout(rc RequestContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := rc.Delete(s.opts.CookieName); err != nil {
		log.Err(err).Msg("Logout: failed to delete session token")
	}
	s.reset()
	rc.Rerun()
}

// RefreshSessionToken re-mints the session token for the connected identity with a fresh expiry
func (s *Session) RefreshSessionToken(rc RequestContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected() || s.state.Identity == nil {
		return autherrors.ErrNotAuthenticated
	}
	expiresAt, err := s.persistToken(rc, *s.state.Identity)
	if err != nil {
		return err
	}
	s.state.ExpiresAt = expiresAt
	return nil
}

// TokenExpiry returns the expiry of the stored session token when it is valid.
// An invalid token is deleted and the session falls back to anonymous.
func (s *Session) TokenExpiry(rc RequestContext) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := rc.Get(s.opts.CookieName)
	if err != nil || raw == "" {
		return time.Time{}, false
	}
	payload, err := s.codec.Decode(raw)
	if err == nil {
		err = s.codec.Check(payload)
	}
	if err != nil {
		s.discardToken(rc, err)
		s.reset()
		return time.Time{}, false
	}
	return payload.Expiry(), true
}

// Identity returns the authenticated identity
func (s *Session) Identity() (oauthmodel.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected() || s.state.Identity == nil {
		return oauthmodel.Identity{}, false
	}
	return *s.state.Identity, true
}

// Credentials returns the provider credentials obtained at login.
// A session restored from its token has an identity but no credentials.
func (s *Session) Credentials() (*oauthmodel.Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected() || s.state.Credentials == nil {
		return nil, false
	}
	creds := *s.state.Credentials
	creds.Scopes = slices.Clone(creds.Scopes)
	return &creds, true
}

// IsAuthenticated reports whether the session holds a valid identity
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected()
}

// Email of the authenticated user, or "" when anonymous
func (s *Session) Email() string {
	identity, _ := s.Identity()
	return identity.Email
}

// Name of the authenticated user, or "" when anonymous
func (s *Session) Name() string {
	identity, _ := s.Identity()
	return identity.Name
}

// Status returns the current state machine position
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Connected && !s.connected() {
		return StatusAnonymous
	}
	return s.state.Status()
}

// Snapshot returns a copy of the session record
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := State{Connected: s.state.Connected, ExpiresAt: s.state.ExpiresAt}
	if s.state.Identity != nil {
		identity := *s.state.Identity
		snapshot.Identity = &identity
	}
	if s.state.Credentials != nil {
		creds := *s.state.Credentials
		snapshot.Credentials = &creds
	}
	if s.state.PendingFlow != nil {
		flow := *s.state.PendingFlow
		snapshot.PendingFlow = &flow
	}
	return snapshot
}

// completeLogin exchanges code for an identity and persists a new session token
func (s *Session) completeLogin(ctx context.Context, rc RequestContext, code string) (bool, error) {
	flow, err := s.consumeFlow(rc.CallbackParam(ParamState))
	if err != nil {
		s.reset()
		clearCallback(rc)
		log.Warn().Err(err).Msg("Rejected authorization callback")
		return false, fmt.Errorf("%w: %w", autherrors.ErrExchange, err)
	}

	creds, identity, err := s.provider.Exchange(ctx, code, flow)
	if err == nil && !identity.Complete() {
		err = fmt.Errorf("provider returned an incomplete identity: %w", autherrors.ErrMissingField)
	}
	if err != nil {
		s.reset()
		clearCallback(rc)
		log.Err(err).Msg("Authorization code exchange failed")
		return false, fmt.Errorf("%w: %w", autherrors.ErrExchange, err)
	}

	expiresAt, err := s.persistToken(rc, identity)
	if err != nil {
		log.Err(err).Msg("Session token not persisted; session lasts until this client session ends")
	}
	s.state = State{
		Connected:   true,
		Identity:    &identity,
		Credentials: creds,
		ExpiresAt:   expiresAt,
	}

	clearCallback(rc)
	rc.Rerun()
	return true, nil
}

// consumeFlow takes the pending flow, checking it against the returned state
func (s *Session) consumeFlow(returnedState string) (oauthmodel.FlowState, error) {
	pending := s.state.PendingFlow
	s.state.PendingFlow = nil

	if s.opts.SkipStateCheck {
		if pending != nil {
			return *pending, nil
		}
		return oauthmodel.FlowState{RedirectURI: s.opts.RedirectURI}, nil
	}

	if pending == nil {
		return oauthmodel.FlowState{}, fmt.Errorf("no login in progress: %w", autherrors.ErrStateMismatch)
	}
	if subtle.ConstantTimeCompare([]byte(returnedState), []byte(pending.State)) != 1 {
		return oauthmodel.FlowState{}, autherrors.ErrStateMismatch
	}
	if pending.Expired(s.nowTime(), s.opts.FlowTTL) {
		return oauthmodel.FlowState{}, fmt.Errorf("login flow expired: %w", autherrors.ErrStateMismatch)
	}
	return *pending, nil
}

// readToken returns the identity and expiry of a valid stored token. Anything else is deleted.
func (s *Session) readToken(rc RequestContext) (oauthmodel.Identity, time.Time, bool) {
	raw, err := rc.Get(s.opts.CookieName)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read session token; treating as absent")
		return oauthmodel.Identity{}, time.Time{}, false
	}
	if raw == "" {
		return oauthmodel.Identity{}, time.Time{}, false
	}

	payload, err := s.codec.Decode(raw)
	if err == nil {
		err = s.codec.Check(payload)
	}
	if err != nil {
		s.discardToken(rc, err)
		return oauthmodel.Identity{}, time.Time{}, false
	}

	log.Debug().Str("email", payload.Email).Msg("Restored session from token")
	return payload.Identity(), payload.Expiry(), true
}

func (s *Session) discardToken(rc RequestContext, reason error) {
	event := log.Warn()
	if autherrors.Is(reason, autherrors.ErrTokenExpired) {
		event = log.Info()
	}
	kind := autherrors.Kind(reason)
	if kind == nil {
		kind = autherrors.ErrInvalidToken
	}
	event.Err(reason).Str("kind", kind.Error()).Msg("Discarding session token")

	if err := rc.Delete(s.opts.CookieName); err != nil {
		log.Err(err).Msg("Failed to delete session token")
	}
}

// persistToken mints and stores a token for identity. The returned expiry bounds the
// connected session even when the token could not be stored.
func (s *Session) persistToken(rc RequestContext, identity oauthmodel.Identity) (time.Time, error) {
	expiresAt := s.nowTime().Add(s.opts.TokenTTL)
	raw, err := s.codec.Encode(identity, s.opts.TokenTTL)
	if err != nil {
		return expiresAt, fmt.Errorf("[Session persistToken] %w", err)
	}
	if err := rc.Set(s.opts.CookieName, raw, expiresAt); err != nil {
		return expiresAt, fmt.Errorf("[Session persistToken] %w: %w", autherrors.ErrStore, err)
	}
	log.Info().Str("email", identity.Email).Msg("Session token set")
	return expiresAt, nil
}

// connected reports whether the record holds an identity that is still within its lifetime
func (s *Session) connected() bool {
	return s.state.Connected && s.nowTime().Before(s.state.ExpiresAt)
}

// reset returns the record to its initial anonymous value
func (s *Session) reset() {
	s.state = State{}
}

func clearCallback(rc RequestContext) {
	if rc.CallbackParam(ParamCode) != "" || rc.CallbackParam(ParamState) != "" || rc.CallbackParam(ParamError) != "" {
		rc.ClearCallback()
	}
}

func mergeScopes(extra []string) []string {
	scopes := slices.Clone(requiredScopes)
	for _, scope := range extra {
		scope = strings.TrimSpace(scope)
		if scope != "" && !slices.Contains(scopes, scope) {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}
