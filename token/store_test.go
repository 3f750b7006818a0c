package token_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/oauthmodel"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "correct-horse-battery-staple"
	testTTL    = 30 * 24 * time.Hour
)

var testIdentity = oauthmodel.Identity{
	Name:       "Jane Doe",
	Email:      "jane@example.com",
	Picture:    "https://example.com/jane.png",
	ProviderID: "10769150350006150715113082367",
}

// clock is a controllable time source
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newStore(t *testing.T, secret string, c *clock) *token.Store {
	t.Helper()
	signer, err := token.NewHMACSigner(secret)
	require.NoError(t, err)
	return token.NewStore(signer, token.WithClock(c.Now))
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	identities := []oauthmodel.Identity{
		testIdentity,
		{Name: "No Picture", Email: "np@example.com", ProviderID: "1"},
		{Name: "Ünïcödé Nämé", Email: "u@example.org", ProviderID: "sub|42", Picture: "x"},
	}
	ttls := []time.Duration{time.Second, time.Hour, testTTL}

	for _, identity := range identities {
		for _, ttl := range ttls {
			t.Run(fmt.Sprintf("%s/%s", identity.Email, ttl), func(t *testing.T) {
				c := newClock()
				store := newStore(t, testSecret, c)
				issuedAt := c.Now()

				raw, err := store.Encode(identity, ttl)
				require.NoError(t, err)

				payload, err := store.Decode(raw)
				require.NoError(t, err)
				require.Equal(t, identity, payload.Identity())
				require.Equal(t, token.DefaultIssuer, payload.Issuer)
				require.Equal(t, issuedAt, payload.Issued().UTC())
				require.Equal(t, issuedAt.Add(ttl), payload.Expiry().UTC())
				require.True(t, store.Validate(payload))

				c.Advance(ttl - time.Second)
				require.True(t, store.Validate(payload), "valid until issued_at + ttl")

				c.Advance(time.Second)
				require.False(t, store.Validate(payload), "invalid at issued_at + ttl")
				require.ErrorIs(t, store.Check(payload), autherrors.ErrTokenExpired)
			})
		}
	}
}

func TestEncodeRejectsIncompleteIdentity(t *testing.T) {
	store := newStore(t, testSecret, newClock())

	tests := []struct {
		name   string
		mutate func(*oauthmodel.Identity)
	}{
		{"missing email", func(i *oauthmodel.Identity) { i.Email = "" }},
		{"missing name", func(i *oauthmodel.Identity) { i.Name = "" }},
		{"missing oauth id", func(i *oauthmodel.Identity) { i.ProviderID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := testIdentity
			tt.mutate(&identity)

			raw, err := store.Encode(identity, testTTL)
			require.ErrorIs(t, err, autherrors.ErrMissingField)
			require.Empty(t, raw)
		})
	}
}

func TestEncodeOmitsEmptyPicture(t *testing.T) {
	store := newStore(t, testSecret, newClock())
	identity := testIdentity
	identity.Picture = ""

	raw, err := store.Encode(identity, testTTL)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(raw, claims)
	require.NoError(t, err)
	require.NotContains(t, claims, "picture")
	require.Contains(t, claims, "oauth_id")
	require.Equal(t, "auth", claims["iss"])
}

func TestDecodeWithDifferentKey(t *testing.T) {
	c := newClock()
	k1 := newStore(t, "key-one", c)
	k2 := newStore(t, "key-two", c)

	raw, err := k1.Encode(testIdentity, testTTL)
	require.NoError(t, err)

	payload, err := k2.Decode(raw)
	require.ErrorIs(t, err, autherrors.ErrBadSignature)
	require.Nil(t, payload)
}

func TestDecodeSameSecretAcrossInstances(t *testing.T) {
	c := newClock()
	raw, err := newStore(t, testSecret, c).Encode(testIdentity, testTTL)
	require.NoError(t, err)

	payload, err := newStore(t, testSecret, c).Decode(raw)
	require.NoError(t, err)
	require.Equal(t, testIdentity.Email, payload.Email)
}

func TestDecodeErrors(t *testing.T) {
	c := newClock()
	store := newStore(t, testSecret, c)
	signer, err := token.NewHMACSigner(testSecret)
	require.NoError(t, err)

	valid, err := store.Encode(testIdentity, testTTL)
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)

	other, err := store.Encode(oauthmodel.Identity{Name: "Mallory", Email: "m@example.com", ProviderID: "666"}, testTTL)
	require.NoError(t, err)
	tampered := parts[0] + "." + strings.Split(other, ".")[1] + "." + parts[2]

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"email": "jane@example.com", "name": "Jane", "oauth_id": "1", "exp": c.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	nonNumericExp, err := signer.Sign(jwt.MapClaims{
		"email": "jane@example.com", "name": "Jane", "oauth_id": "1", "exp": "tomorrow",
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", autherrors.ErrMalformedToken},
		{"whitespace", "   ", autherrors.ErrMalformedToken},
		{"garbage", "not-a-token", autherrors.ErrMalformedToken},
		{"bad base64", "a.b.c", autherrors.ErrMalformedToken},
		{"tampered payload", tampered, autherrors.ErrBadSignature},
		{"truncated signature", parts[0] + "." + parts[1] + "." + parts[2][:10], autherrors.ErrBadSignature},
		{"alg none", unsigned, autherrors.ErrBadSignature},
		{"non numeric exp", nonNumericExp, autherrors.ErrMalformedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := store.Decode(tt.raw)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, payload)
		})
	}
}

func TestDecodeDoesNotEnforceExpiry(t *testing.T) {
	c := newClock()
	store := newStore(t, testSecret, c)

	raw, err := store.Encode(testIdentity, time.Minute)
	require.NoError(t, err)
	c.Advance(time.Hour)

	payload, err := store.Decode(raw)
	require.NoError(t, err, "signature valid but expired must still decode")
	require.ErrorIs(t, store.Check(payload), autherrors.ErrTokenExpired)
	require.False(t, store.Validate(payload))
}

func TestCheckMissingFields(t *testing.T) {
	c := newClock()
	store := newStore(t, testSecret, c)
	signer, err := token.NewHMACSigner(testSecret)
	require.NoError(t, err)

	exp := c.Now().Add(time.Hour).Unix()
	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"no email", jwt.MapClaims{"name": "Jane", "oauth_id": "1", "exp": exp}},
		{"no name", jwt.MapClaims{"email": "j@example.com", "oauth_id": "1", "exp": exp}},
		{"no oauth id", jwt.MapClaims{"email": "j@example.com", "name": "Jane", "exp": exp}},
		{"no exp", jwt.MapClaims{"email": "j@example.com", "name": "Jane", "oauth_id": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := signer.Sign(tt.claims)
			require.NoError(t, err)

			payload, err := store.Decode(raw)
			require.NoError(t, err)
			require.ErrorIs(t, store.Check(payload), autherrors.ErrMissingField)
			require.False(t, store.Validate(payload))
		})
	}

	require.False(t, store.Validate(nil))
}

func TestNewHMACSignerRequiresSecret(t *testing.T) {
	signer, err := token.NewHMACSigner("")
	require.Error(t, err)
	require.Nil(t, signer)
}

func TestWithIssuer(t *testing.T) {
	signer, err := token.NewHMACSigner(testSecret)
	require.NoError(t, err)
	store := token.NewStore(signer, token.WithIssuer("streamlit_auth"))

	raw, err := store.Encode(testIdentity, testTTL)
	require.NoError(t, err)
	payload, err := store.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "streamlit_auth", payload.Issuer)
}
