package provider

import (
	"context"
	"fmt"
	"os"

	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"golang.org/x/oauth2/google"
)

// NewFromCredentialsFile builds a Google provider from a client-secrets JSON file
// as downloaded from the cloud console. redirectURI, when set, overrides the
// first redirect URI registered in the file.
func NewFromCredentialsFile(ctx context.Context, path, redirectURI string, opts ...Option) (*OIDCProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[provider NewFromCredentialsFile] failed to read %s: %w: %w", path, autherrors.ErrConfig, err)
	}

	oauthCfg, err := google.ConfigFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("[provider NewFromCredentialsFile] invalid client secrets: %w: %w", autherrors.ErrConfig, err)
	}
	if redirectURI == "" {
		redirectURI = oauthCfg.RedirectURL
	}

	cfg := Config{
		ClientID:     oauthCfg.ClientID,
		ClientSecret: oauthCfg.ClientSecret,
		AuthURL:      oauthCfg.Endpoint.AuthURL,
		TokenURL:     oauthCfg.Endpoint.TokenURL,
		UserInfoURL:  GoogleUserInfoURL,
		JWKSURL:      GoogleJWKSURL,
		Issuer:       GoogleIssuer,
		RedirectURI:  redirectURI,
	}
	return New(ctx, cfg, opts...)
}
