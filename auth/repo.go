package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-auth-session/oauthmodel"
	"github.com/jrsteele09/go-auth-session/token"
)

// IdentityProvider drives the provider's authorization-code flow
type IdentityProvider interface {
	// AuthCodeURL returns the consent URL for flow, requesting scopes
	AuthCodeURL(flow oauthmodel.FlowState, scopes []string) (string, error)

	// Exchange trades an authorization code for credentials and the user's identity
	Exchange(ctx context.Context, code string, flow oauthmodel.FlowState) (*oauthmodel.Credentials, oauthmodel.Identity, error)
}

// TokenJar is the client-side token store (a cookie jar in practice).
// Anything read from it is untrusted.
type TokenJar interface {
	// Get returns the stored value, or "" when nothing is stored under name
	Get(name string) (string, error)
	Set(name, value string, expiresAt time.Time) error
	Delete(name string) error
}

// RequestContext is the view of the current page/request cycle the session reconciles against
type RequestContext interface {
	TokenJar

	// CallbackParam returns a parameter the provider appended on redirect ("code", "state", "error")
	CallbackParam(name string) string

	// ClearCallback removes the provider's callback parameters so a code is never exchanged twice
	ClearCallback()

	// Rerun asks the caller to restart the page/request cycle
	Rerun()
}

// TokenCodec encodes and checks signed session tokens
type TokenCodec interface {
	Encode(identity oauthmodel.Identity, ttl time.Duration) (string, error)
	Decode(raw string) (*token.Payload, error)
	Check(p *token.Payload) error
}

var _ TokenCodec = (*token.Store)(nil)
