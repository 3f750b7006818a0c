package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SessionConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetBaseURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars  `yaml:"server"`
	Cors     `yaml:"cors"`
	OAuth    `yaml:"oauth"`
	Session  `yaml:"session"`
	Security `yaml:"security"`
}

// Default returns the configuration used when neither file nor environment says otherwise
func Default() Config {
	return defaults()
}

func defaults() mainConfig {
	return mainConfig{
		EnvVars:  defaultEnvVars(),
		Cors:     defaultCors(),
		OAuth:    defaultOAuth(),
		Session:  defaultSession(),
		Security: defaultSecurity(),
	}
}

// Load reads the optional YAML file at path, applies environment overrides and validates the result.
// Any failure is a configuration error.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("[config Load] failed to read %s: %w: %w", path, autherrors.ErrConfig, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("[config Load] failed to parse %s: %w: %w", path, autherrors.ErrConfig, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("[config Load] failed to parse environment: %w: %w", autherrors.ErrConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c mainConfig) validate() error {
	missing := make([]string, 0)
	if strings.TrimSpace(c.SigningKey) == "" {
		missing = append(missing, "session.signing_key")
	}
	if strings.TrimSpace(c.CookieName) == "" {
		missing = append(missing, "session.cookie_name")
	}
	if c.CredentialsFile == "" {
		missing = append(missing, "oauth.credentials_file")
	}
	if c.RedirectURI == "" {
		missing = append(missing, "oauth.redirect_uri")
	}
	if len(missing) > 0 {
		return fmt.Errorf("[config Load] missing %s: %w", strings.Join(missing, ", "), autherrors.ErrConfig)
	}

	if c.TokenTTLDays <= 0 {
		return fmt.Errorf("[config Load] session.token_ttl_days must be positive: %w", autherrors.ErrConfig)
	}
	if c.RateLimitEnabled && (c.RateLimit <= 0 || c.RateBurst <= 0) {
		return fmt.Errorf("[config Load] rate limit and burst must be positive when rate limiting is enabled: %w", autherrors.ErrConfig)
	}
	return nil
}
