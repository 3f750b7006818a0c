package oauthmodel

import (
	"fmt"

	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/internal/utils"
)

// Profile is the provider's userinfo response. Every field is optional on the
// wire; Identity validates it before it is trusted.
type Profile struct {
	Subject       *string `json:"sub,omitempty"`
	ID            *string `json:"id,omitempty"` // legacy oauth2/v2 userinfo
	Name          *string `json:"name,omitempty"`
	GivenName     *string `json:"given_name,omitempty"`
	FamilyName    *string `json:"family_name,omitempty"`
	Email         *string `json:"email,omitempty"`
	EmailVerified *bool   `json:"email_verified,omitempty"`
	Picture       *string `json:"picture,omitempty"`
}

// ProviderID returns the stable provider identifier, preferring the OIDC subject
func (p Profile) ProviderID() string {
	if sub := utils.Value(p.Subject); sub != "" {
		return sub
	}
	return utils.Value(p.ID)
}

// Identity promotes the profile to an Identity, failing when a required field is absent
func (p Profile) Identity() (Identity, error) {
	identity := Identity{
		Name:       utils.Value(p.Name),
		Email:      utils.Value(p.Email),
		Picture:    utils.Value(p.Picture),
		ProviderID: p.ProviderID(),
	}
	if identity.Name == "" {
		identity.Name = joinName(utils.Value(p.GivenName), utils.Value(p.FamilyName))
	}

	switch {
	case identity.ProviderID == "":
		return Identity{}, fmt.Errorf("profile subject: %w", autherrors.ErrMissingField)
	case identity.Email == "":
		return Identity{}, fmt.Errorf("profile email: %w", autherrors.ErrMissingField)
	case identity.Name == "":
		return Identity{}, fmt.Errorf("profile name: %w", autherrors.ErrMissingField)
	}
	return identity, nil
}

func joinName(given, family string) string {
	switch {
	case given == "":
		return family
	case family == "":
		return given
	}
	return given + " " + family
}
