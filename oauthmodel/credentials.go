package oauthmodel

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Credentials holds the provider tokens obtained from the code exchange
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// OAuth2Token converts the credentials back into a token usable with an oauth2 client
func (c *Credentials) OAuth2Token() *oauth2.Token {
	if c == nil {
		return nil
	}
	tok := &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
	if c.IDToken != "" {
		tok = tok.WithExtra(map[string]any{"id_token": c.IDToken})
	}
	return tok
}

// JSON returns the serialised credentials
func (c *Credentials) JSON() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return string(b), nil
}

// ParseCredentials reads credentials serialised with JSON
func ParseCredentials(data string) (*Credentials, error) {
	var c Credentials
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return &c, nil
}
