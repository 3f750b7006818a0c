package oauthmodel

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/utils"
	"golang.org/x/oauth2"
)

const flowStateLength = 32

// FlowState correlates a login redirect with its callback
type FlowState struct {
	State       string    // CSRF guard echoed back by the provider
	Verifier    string    // PKCE code verifier
	Nonce       string    // binds the ID token to this flow
	RedirectURI string    // where the provider sends the user back
	CreatedAt   time.Time // when the login redirect was issued
}

// NewFlowState generates a fresh, unguessable flow state
func NewFlowState(redirectURI string, now time.Time) (FlowState, error) {
	state, err := utils.RandomString(flowStateLength)
	if err != nil {
		return FlowState{}, fmt.Errorf("failed to generate state: %w", err)
	}
	nonce, err := utils.RandomString(flowStateLength)
	if err != nil {
		return FlowState{}, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return FlowState{
		State:       state,
		Verifier:    oauth2.GenerateVerifier(),
		Nonce:       nonce,
		RedirectURI: redirectURI,
		CreatedAt:   now,
	}, nil
}

// Expired reports whether the flow is older than ttl. A non-positive ttl never expires.
func (f FlowState) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return !now.Before(f.CreatedAt.Add(ttl))
}
