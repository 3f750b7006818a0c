package config

import "time"

type SessionConfig interface {
	GetCookieName() string
	GetSigningKey() string
	GetTokenTTL() time.Duration
	GetFlowTTL() time.Duration
	GetSessionIdleTimeout() time.Duration
	GetIssuer() string
}

type Session struct {
	CookieName   string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME"`
	SigningKey   string        `yaml:"signing_key" env:"SESSION_SIGNING_KEY"`
	TokenTTLDays int           `yaml:"token_ttl_days" env:"SESSION_TOKEN_TTL_DAYS"`
	FlowTTL      time.Duration `yaml:"flow_ttl" env:"SESSION_FLOW_TTL"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SESSION_IDLE_TIMEOUT"`
	Issuer       string        `yaml:"issuer" env:"SESSION_ISSUER"`
}

var _ SessionConfig = Session{}

func defaultSession() Session {
	return Session{
		CookieName:   "auth_session",
		TokenTTLDays: 30,
		FlowTTL:      10 * time.Minute,
		IdleTimeout:  24 * time.Hour,
		Issuer:       "auth",
	}
}

func (s Session) GetCookieName() string {
	return s.CookieName
}

func (s Session) GetSigningKey() string {
	return s.SigningKey
}

// GetTokenTTL returns the session token lifetime, configured in days
func (s Session) GetTokenTTL() time.Duration {
	return time.Duration(s.TokenTTLDays) * 24 * time.Hour
}

func (s Session) GetFlowTTL() time.Duration {
	return s.FlowTTL
}

// GetSessionIdleTimeout returns how long an unused in-memory session survives
func (s Session) GetSessionIdleTimeout() time.Duration {
	return s.IdleTimeout
}

func (s Session) GetIssuer() string {
	return s.Issuer
}
