package main

import (
	"errors"
	"fmt"
	"testing"

	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestSuperviseRestartsAfterFailure(t *testing.T) {
	calls := 0
	err := supervise(func() error {
		calls++
		if calls < 3 {
			return errors.New("listener died")
		}
		return nil
	}, 0)

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestSuperviseStopsOnConfigError(t *testing.T) {
	calls := 0
	err := supervise(func() error {
		calls++
		return fmt.Errorf("[config Load] missing signing key: %w", autherrors.ErrConfig)
	}, 0)

	require.ErrorIs(t, err, autherrors.ErrConfig)
	require.Equal(t, 1, calls)
}

func TestSuperviseRestartsAfterPanic(t *testing.T) {
	calls := 0
	err := supervise(func() (returnError error) {
		defer func() {
			if r := recover(); r != nil {
				returnError = errors.New("panic recovered")
			}
		}()
		calls++
		if calls == 1 {
			panic("boom")
		}
		return nil
	}, 0)

	require.NoError(t, err)
	require.Equal(t, 2, calls)
}
