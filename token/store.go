package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/oauthmodel"
)

// DefaultIssuer tags every session token minted by this package
const DefaultIssuer = "auth"

// Payload is the claim set carried by a session token.
// Empty identity fields are omitted from the signed token.
type Payload struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	OAuthID string `json:"oauth_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the identity fields of the payload
func (p *Payload) Identity() oauthmodel.Identity {
	return oauthmodel.Identity{
		Name:       p.Name,
		Email:      p.Email,
		Picture:    p.Picture,
		ProviderID: p.OAuthID,
	}
}

// Expiry returns the expires_at claim, or the zero time if absent
func (p *Payload) Expiry() time.Time {
	if p.ExpiresAt == nil {
		return time.Time{}
	}
	return p.ExpiresAt.Time
}

// Issued returns the issued_at claim, or the zero time if absent
func (p *Payload) Issued() time.Time {
	if p.IssuedAt == nil {
		return time.Time{}
	}
	return p.IssuedAt.Time
}

// Store encodes, decodes and validates signed session tokens.
// It holds no state beyond its signer and clock.
type Store struct {
	signer Signer
	issuer string
	now    func() time.Time
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock overrides the time source used for issued_at, expires_at and expiry checks
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithIssuer overrides the issuer tag written into new tokens
func WithIssuer(issuer string) StoreOption {
	return func(s *Store) {
		s.issuer = issuer
	}
}

// NewStore creates a session token store signing with signer
func NewStore(signer Signer, opts ...StoreOption) *Store {
	s := &Store{
		signer: signer,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Encode signs a token for identity that expires ttl from now
func (s *Store) Encode(identity oauthmodel.Identity, ttl time.Duration) (string, error) {
	if err := requireIdentity(identity); err != nil {
		return "", err
	}

	now := s.now()
	payload := &Payload{
		Email:   identity.Email,
		Name:    identity.Name,
		Picture: identity.Picture,
		OAuthID: identity.ProviderID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := s.signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("[token Encode] %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and shape of raw and returns its payload.
// Expiry is not enforced here; see Check and Validate.
func (s *Store) Decode(raw string) (*Payload, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("[token Decode] empty token: %w", autherrors.ErrMalformedToken)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.signer.GetSigningMethod().Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	payload := &Payload{}
	token, err := parser.ParseWithClaims(raw, payload, s.signer.GetVerificationKey)
	if err != nil {
		return nil, fmt.Errorf("[token Decode] %w: %v", classify(err), err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("[token Decode] %w", autherrors.ErrInvalidToken)
	}
	return payload, nil
}

// Check applies the validity rules to a decoded payload:
// email, name, oauth_id and exp must be present and exp must be in the future.
func (s *Store) Check(p *Payload) error {
	if p == nil {
		return autherrors.ErrInvalidToken
	}

	missing := make([]string, 0)
	if p.Email == "" {
		missing = append(missing, "email")
	}
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.OAuthID == "" {
		missing = append(missing, "oauth_id")
	}
	if p.ExpiresAt == nil {
		missing = append(missing, "exp")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(missing, ", "), autherrors.ErrMissingField)
	}

	if !p.ExpiresAt.Time.After(s.now()) {
		return autherrors.ErrTokenExpired
	}
	return nil
}

// Validate reports whether p passes Check
func (s *Store) Validate(p *Payload) bool {
	return s.Check(p) == nil
}

func requireIdentity(identity oauthmodel.Identity) error {
	switch {
	case identity.Email == "":
		return fmt.Errorf("[token Encode] email: %w", autherrors.ErrMissingField)
	case identity.Name == "":
		return fmt.Errorf("[token Encode] name: %w", autherrors.ErrMissingField)
	case identity.ProviderID == "":
		return fmt.Errorf("[token Encode] oauth_id: %w", autherrors.ErrMissingField)
	}
	return nil
}

// classify maps jwt parse errors onto the token error taxonomy
func classify(err error) error {
	switch {
	case autherrors.Is(err, jwt.ErrTokenSignatureInvalid):
		return autherrors.ErrBadSignature
	case autherrors.Is(err, jwt.ErrTokenMalformed):
		return autherrors.ErrMalformedToken
	default:
		return autherrors.ErrInvalidToken
	}
}
