package authfakes

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/oauthmodel"
)

var _ auth.IdentityProvider = (*FakeProvider)(nil)

// ExchangeCall records one Exchange invocation
type ExchangeCall struct {
	Code string
	Flow oauthmodel.FlowState
}

// FakeProvider is an in-memory IdentityProvider. Codes listed in Identities
// exchange successfully; anything else is rejected.
type FakeProvider struct {
	AuthURL     string
	Identities  map[string]oauthmodel.Identity
	Credentials *oauthmodel.Credentials
	ExchangeErr error
	AuthURLErr  error

	lock          sync.Mutex
	exchangeCalls []ExchangeCall
	authURLCalls  int
	lastScopes    []string
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		AuthURL:    "https://accounts.example.com/o/oauth2/auth",
		Identities: make(map[string]oauthmodel.Identity),
		Credentials: &oauthmodel.Credentials{
			AccessToken:  "fake-access-token",
			RefreshToken: "fake-refresh-token",
			TokenType:    "Bearer",
		},
	}
}

func (p *FakeProvider) AuthCodeURL(flow oauthmodel.FlowState, scopes []string) (string, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.authURLCalls++
	p.lastScopes = append([]string(nil), scopes...)
	if p.AuthURLErr != nil {
		return "", p.AuthURLErr
	}

	q := url.Values{}
	q.Set("state", flow.State)
	q.Set("scope", strings.Join(scopes, " "))
	q.Set("redirect_uri", flow.RedirectURI)
	return p.AuthURL + "?" + q.Encode(), nil
}

func (p *FakeProvider) Exchange(_ context.Context, code string, flow oauthmodel.FlowState) (*oauthmodel.Credentials, oauthmodel.Identity, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.exchangeCalls = append(p.exchangeCalls, ExchangeCall{Code: code, Flow: flow})
	if p.ExchangeErr != nil {
		return nil, oauthmodel.Identity{}, p.ExchangeErr
	}
	identity, ok := p.Identities[code]
	if !ok {
		return nil, oauthmodel.Identity{}, errors.New("invalid_grant: unknown code")
	}
	creds := *p.Credentials
	return &creds, identity, nil
}

// ExchangeCalls returns the recorded Exchange invocations
func (p *FakeProvider) ExchangeCalls() []ExchangeCall {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]ExchangeCall(nil), p.exchangeCalls...)
}

// AuthURLCalls returns how many times AuthCodeURL was called
func (p *FakeProvider) AuthURLCalls() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.authURLCalls
}

// LastScopes returns the scopes of the last AuthCodeURL call
func (p *FakeProvider) LastScopes() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]string(nil), p.lastScopes...)
}
