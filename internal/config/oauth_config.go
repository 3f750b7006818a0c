package config

import (
	"strings"
	"time"
)

type OAuthConfig interface {
	GetCredentialsFile() string
	GetRedirectURI() string
	GetScopes() []string
	GetProviderTimeout() time.Duration
	GetSkipStateCheck() bool
}

type OAuth struct {
	CredentialsFile string        `yaml:"credentials_file" env:"OAUTH_CREDENTIALS_FILE"`
	RedirectURI     string        `yaml:"redirect_uri" env:"OAUTH_REDIRECT_URI"`
	Scopes          []string      `yaml:"scopes" env:"OAUTH_SCOPES" envSeparator:","`
	ProviderTimeout time.Duration `yaml:"provider_timeout" env:"OAUTH_PROVIDER_TIMEOUT"`
	SkipStateCheck  bool          `yaml:"skip_state_check" env:"OAUTH_SKIP_STATE_CHECK"`
}

var _ OAuthConfig = OAuth{}

func defaultOAuth() OAuth {
	return OAuth{
		ProviderTimeout: 10 * time.Second,
	}
}

// GetCredentialsFile returns the path of the provider's client-secrets JSON
func (o OAuth) GetCredentialsFile() string {
	return o.CredentialsFile
}

func (o OAuth) GetRedirectURI() string {
	return o.RedirectURI
}

// GetScopes returns the extra scopes requested on top of openid, profile and email
func (o OAuth) GetScopes() []string {
	scopes := make([]string, 0, len(o.Scopes))
	for _, scope := range o.Scopes {
		if scope = strings.TrimSpace(scope); scope != "" {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}

func (o OAuth) GetProviderTimeout() time.Duration {
	return o.ProviderTimeout
}

func (o OAuth) GetSkipStateCheck() bool {
	return o.SkipStateCheck
}
