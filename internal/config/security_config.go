package config

type SecurityConfig interface {
	GetEnableRateLimiting() bool
	GetRateLimit() float64
	GetRateBurst() int
	GetTrustProxyHeaders() bool
}

type Security struct {
	RateLimitEnabled bool    `yaml:"rate_limit_enabled" env:"RATE_LIMIT_ENABLED"`
	RateLimit        float64 `yaml:"rate_limit" env:"RATE_LIMIT_RPS"`
	RateBurst        int     `yaml:"rate_burst" env:"RATE_LIMIT_BURST"`
	TrustProxy       bool    `yaml:"trust_proxy_headers" env:"TRUST_PROXY_HEADERS"`
}

var _ SecurityConfig = Security{}

func defaultSecurity() Security {
	return Security{
		RateLimitEnabled: true,
		RateLimit:        1,
		RateBurst:        10,
	}
}

func (s Security) GetEnableRateLimiting() bool {
	return s.RateLimitEnabled
}

// GetRateLimit returns the sustained login requests per second allowed per client IP
func (s Security) GetRateLimit() float64 {
	return s.RateLimit
}

func (s Security) GetRateBurst() int {
	return s.RateBurst
}

// GetTrustProxyHeaders reports whether X-Forwarded-For and X-Real-IP name the client.
// Only enable it behind a proxy that overwrites those headers.
func (s Security) GetTrustProxyHeaders() bool {
	return s.TrustProxy
}
