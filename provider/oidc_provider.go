package provider

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-auth-session/auth"
	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/internal/utils"
	"github.com/jrsteele09/go-auth-session/oauthmodel"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Google endpoints used when a deployment does not name its own
const (
	GoogleIssuer      = "https://accounts.google.com"
	GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	GoogleJWKSURL     = "https://www.googleapis.com/oauth2/v3/certs"
)

// DefaultTimeout bounds a single code exchange including the userinfo call
const DefaultTimeout = 10 * time.Second

var _ auth.IdentityProvider = (*OIDCProvider)(nil)

// Config names the client registration and the provider endpoints
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	JWKSURL      string // empty disables ID token verification
	Issuer       string
	RedirectURI  string
}

// OIDCProvider implements auth.IdentityProvider over an OAuth2 authorization-code
// flow with PKCE, verifying the OIDC ID token when the provider returns one.
type OIDCProvider struct {
	config     Config
	oauth2     oauth2.Config
	oidc       *oidc.Provider
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
	timeout    time.Duration
}

// Option defines a function type to modify the OIDCProvider instance.
type Option func(*OIDCProvider)

// WithHTTPClient sets the client used for every provider round trip
func WithHTTPClient(c *http.Client) Option {
	return func(p *OIDCProvider) {
		p.httpClient = c
	}
}

// WithTimeout bounds each Exchange. A non-positive value removes the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *OIDCProvider) {
		p.timeout = d
	}
}

// WithUserInfoURL overrides the userinfo endpoint
func WithUserInfoURL(u string) Option {
	return func(p *OIDCProvider) {
		p.config.UserInfoURL = u
	}
}

// WithIssuer overrides the expected ID token issuer
func WithIssuer(issuer string) Option {
	return func(p *OIDCProvider) {
		p.config.Issuer = issuer
	}
}

// WithJWKSURL overrides the key set used to verify ID tokens
func WithJWKSURL(u string) Option {
	return func(p *OIDCProvider) {
		p.config.JWKSURL = u
	}
}

// New builds a provider from explicit endpoints; no discovery request is made
func New(ctx context.Context, cfg Config, opts ...Option) (*OIDCProvider, error) {
	p := &OIDCProvider{
		config:     cfg,
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.config.ClientID == "" {
		return nil, fmt.Errorf("[provider New] client id is required: %w", autherrors.ErrConfig)
	}
	if p.config.AuthURL == "" || p.config.TokenURL == "" {
		return nil, fmt.Errorf("[provider New] auth and token URLs are required: %w", autherrors.ErrConfig)
	}

	p.oauth2 = oauth2.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: p.config.ClientSecret,
		RedirectURL:  p.config.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.config.AuthURL,
			TokenURL: p.config.TokenURL,
		},
	}

	// The key set keeps this context for background refreshes, so it must outlive the caller's.
	keyCtx := oidc.ClientContext(context.WithoutCancel(ctx), p.httpClient)
	p.oidc = (&oidc.ProviderConfig{
		IssuerURL:   p.config.Issuer,
		AuthURL:     p.config.AuthURL,
		TokenURL:    p.config.TokenURL,
		UserInfoURL: p.config.UserInfoURL,
		JWKSURL:     p.config.JWKSURL,
	}).NewProvider(keyCtx)

	if p.config.JWKSURL != "" {
		p.verifier = p.oidc.Verifier(&oidc.Config{
			ClientID:        p.config.ClientID,
			SkipIssuerCheck: p.config.Issuer == "",
		})
	}
	return p, nil
}

// AuthCodeURL returns the consent URL for flow. Offline access and consent are
// always requested so the provider issues a refresh token.
func (p *OIDCProvider) AuthCodeURL(flow oauthmodel.FlowState, scopes []string) (string, error) {
	if flow.State == "" {
		return "", fmt.Errorf("[OIDCProvider AuthCodeURL] flow state is required: %w", autherrors.ErrConfig)
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	}
	if flow.Verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(flow.Verifier))
	}
	if flow.Nonce != "" {
		opts = append(opts, oidc.Nonce(flow.Nonce))
	}

	cfg := p.configFor(flow, scopes)
	return cfg.AuthCodeURL(flow.State, opts...), nil
}

// Exchange redeems code at the token endpoint and resolves the user's identity
func (p *OIDCProvider) Exchange(ctx context.Context, code string, flow oauthmodel.FlowState) (*oauthmodel.Credentials, oauthmodel.Identity, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	ctx = oidc.ClientContext(ctx, p.httpClient)

	var opts []oauth2.AuthCodeOption
	if flow.Verifier != "" {
		opts = append(opts, oauth2.VerifierOption(flow.Verifier))
	}

	cfg := p.configFor(flow, nil)
	tok, err := cfg.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, oauthmodel.Identity{}, exchangeError(err)
	}

	creds := credentialsFrom(tok)
	idClaims, err := p.verifyIDToken(ctx, creds.IDToken, flow.Nonce)
	if err != nil {
		return nil, oauthmodel.Identity{}, err
	}

	profile, err := p.profile(ctx, tok, idClaims)
	if err != nil {
		return nil, oauthmodel.Identity{}, err
	}

	identity, err := profile.Identity()
	if err != nil {
		return nil, oauthmodel.Identity{}, fmt.Errorf("[OIDCProvider Exchange] %w", err)
	}
	log.Debug().Str("email", identity.Email).Msg("Provider exchange complete")
	return creds, identity, nil
}

func (p *OIDCProvider) configFor(flow oauthmodel.FlowState, scopes []string) oauth2.Config {
	cfg := p.oauth2
	if flow.RedirectURI != "" {
		cfg.RedirectURL = flow.RedirectURI
	}
	if scopes != nil {
		cfg.Scopes = slices.Clone(scopes)
	}
	return cfg
}

// verifyIDToken checks signature, issuer, audience and nonce of raw.
// It returns nil claims when there is nothing to verify.
func (p *OIDCProvider) verifyIDToken(ctx context.Context, raw, nonce string) (*oauthmodel.Profile, error) {
	if raw == "" || p.verifier == nil {
		return nil, nil
	}

	idToken, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("[OIDCProvider Exchange] id token verification failed: %w", err)
	}
	if nonce != "" && idToken.Nonce != nonce {
		return nil, fmt.Errorf("[OIDCProvider Exchange] id token nonce mismatch: %w", autherrors.ErrStateMismatch)
	}

	var claims oauthmodel.Profile
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("[OIDCProvider Exchange] failed to read id token claims: %w", err)
	}
	claims.Subject = utils.Ptr(idToken.Subject)
	return &claims, nil
}

// profile fetches userinfo, falling back to the verified ID token claims when
// the provider has no userinfo endpoint
func (p *OIDCProvider) profile(ctx context.Context, tok *oauth2.Token, idClaims *oauthmodel.Profile) (oauthmodel.Profile, error) {
	if p.config.UserInfoURL == "" {
		if idClaims == nil {
			return oauthmodel.Profile{}, fmt.Errorf("[OIDCProvider Exchange] no userinfo endpoint and no id token: %w", autherrors.ErrConfig)
		}
		return *idClaims, nil
	}

	info, err := p.oidc.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return oauthmodel.Profile{}, fmt.Errorf("[OIDCProvider Exchange] userinfo request failed: %w", err)
	}

	var profile oauthmodel.Profile
	if err := info.Claims(&profile); err != nil {
		return oauthmodel.Profile{}, fmt.Errorf("[OIDCProvider Exchange] failed to decode userinfo: %w", err)
	}
	if idClaims != nil && idClaims.ProviderID() != profile.ProviderID() {
		return oauthmodel.Profile{}, fmt.Errorf("[OIDCProvider Exchange] userinfo subject does not match id token: %w", autherrors.ErrStateMismatch)
	}
	return profile, nil
}

func credentialsFrom(tok *oauth2.Token) *oauthmodel.Credentials {
	creds := &oauthmodel.Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		Expiry:       tok.Expiry,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		creds.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		creds.Scopes = strings.Fields(scope)
	}
	return creds
}

// exchangeError separates a provider rejection of the grant from transport failures
func exchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if autherrors.As(err, &retrieveErr) {
		return fmt.Errorf("[OIDCProvider Exchange] %w: %w", autherrors.ErrInvalidGrant, err)
	}
	return fmt.Errorf("[OIDCProvider Exchange] token request failed: %w", err)
}
