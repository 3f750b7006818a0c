package oauthmodel

// Identity is the authenticated user's profile as returned by the identity provider.
// It is immutable once obtained for a session.
type Identity struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Picture    string `json:"picture,omitempty"`
	ProviderID string `json:"oauth_id"`
}

// Complete reports whether the fields required to mint a session token are present
func (i Identity) Complete() bool {
	return i.Name != "" && i.Email != "" && i.ProviderID != ""
}
