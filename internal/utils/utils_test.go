package utils_test

import (
	"encoding/base64"
	"testing"

	"github.com/jrsteele09/go-auth-session/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestPointerHelpers(t *testing.T) {
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, "x", utils.Value(utils.Ptr("x")))
	require.Equal(t, 0, utils.Value[int](nil))
}

func TestRandomString(t *testing.T) {
	a, err := utils.RandomString(32)
	require.NoError(t, err)
	b, err := utils.RandomString(32)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	require.Len(t, raw, 32)
}
