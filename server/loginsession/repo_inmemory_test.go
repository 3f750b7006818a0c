package loginsession_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/auth/authfakes"
	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/server/loginsession"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	now      time.Time
	registry *loginsession.InMemoryRegistry
	factory  loginsession.Factory
	created  int
}

func setupTestFixture(t *testing.T, idle time.Duration) *testFixture {
	t.Helper()

	f := &testFixture{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	signer, err := token.NewHMACSigner("registry-test-key")
	require.NoError(t, err)
	store := token.NewStore(signer)
	provider := authfakes.NewFakeProvider()

	f.factory = func() (*auth.Session, error) {
		f.created++
		return auth.NewSession(store, provider, auth.Options{CookieName: "auth_session", TokenTTL: time.Hour})
	}
	f.registry = loginsession.NewInMemoryRegistry(idle, loginsession.WithNowTime(func() time.Time { return f.now }))
	return f
}

func TestGetOrCreate(t *testing.T) {
	f := setupTestFixture(t, time.Hour)

	first, created, err := f.registry.GetOrCreate("browser-1", f.factory)
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := f.registry.GetOrCreate("browser-1", f.factory)
	require.NoError(t, err)
	require.False(t, created)
	require.Same(t, first, again)

	other, created, err := f.registry.GetOrCreate("browser-2", f.factory)
	require.NoError(t, err)
	require.True(t, created)
	require.NotSame(t, first, other)

	require.Equal(t, 2, f.created)
	require.Equal(t, 2, f.registry.Len())
}

func TestGetOrCreateErrors(t *testing.T) {
	f := setupTestFixture(t, time.Hour)

	_, _, err := f.registry.GetOrCreate("", f.factory)
	require.Error(t, err)

	boom := errors.New("factory failed")
	_, _, err = f.registry.GetOrCreate("browser-1", func() (*auth.Session, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	require.Zero(t, f.registry.Len())
}

func TestIdleExpiry(t *testing.T) {
	f := setupTestFixture(t, time.Hour)

	first, _, err := f.registry.GetOrCreate("browser-1", f.factory)
	require.NoError(t, err)

	// Use keeps the session alive
	f.now = f.now.Add(50 * time.Minute)
	_, created, err := f.registry.GetOrCreate("browser-1", f.factory)
	require.NoError(t, err)
	require.False(t, created)

	f.now = f.now.Add(59 * time.Minute)
	got, err := f.registry.Get("browser-1")
	require.NoError(t, err)
	require.Same(t, first, got)

	f.now = f.now.Add(time.Minute)
	_, err = f.registry.Get("browser-1")
	require.ErrorIs(t, err, autherrors.ErrNotFound)

	replaced, created, err := f.registry.GetOrCreate("browser-1", f.factory)
	require.NoError(t, err)
	require.True(t, created)
	require.NotSame(t, first, replaced)
}

func TestPrune(t *testing.T) {
	f := setupTestFixture(t, time.Hour)

	_, _, err := f.registry.GetOrCreate("old", f.factory)
	require.NoError(t, err)
	f.now = f.now.Add(30 * time.Minute)
	_, _, err = f.registry.GetOrCreate("new", f.factory)
	require.NoError(t, err)

	require.Equal(t, 1, f.registry.Prune(f.now.Add(45*time.Minute)))
	require.Equal(t, 1, f.registry.Len())
	_, err = f.registry.Get("new")
	require.NoError(t, err)
}

func TestNoIdleLimit(t *testing.T) {
	f := setupTestFixture(t, 0)

	_, _, err := f.registry.GetOrCreate("browser-1", f.factory)
	require.NoError(t, err)
	require.Zero(t, f.registry.Prune(f.now.Add(365*24*time.Hour)))
	require.Equal(t, 1, f.registry.Len())
}

func TestDelete(t *testing.T) {
	f := setupTestFixture(t, time.Hour)

	_, _, err := f.registry.GetOrCreate("browser-1", f.factory)
	require.NoError(t, err)

	f.registry.Delete("browser-1")
	f.registry.Delete("unknown")
	_, err = f.registry.Get("browser-1")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
}

func TestResume(t *testing.T) {
	f := setupTestFixture(t, time.Hour)

	_, err := f.registry.Resume("never-issued")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
	require.Zero(t, f.registry.Len(), "resume never creates")

	first, _, err := f.registry.GetOrCreate("browser-1", f.factory)
	require.NoError(t, err)

	// Resuming keeps the session alive past the original idle deadline
	f.now = f.now.Add(50 * time.Minute)
	got, err := f.registry.Resume("browser-1")
	require.NoError(t, err)
	require.Same(t, first, got)

	f.now = f.now.Add(50 * time.Minute)
	_, err = f.registry.Resume("browser-1")
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	_, err = f.registry.Resume("browser-1")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
}

func TestRotate(t *testing.T) {
	f := setupTestFixture(t, time.Hour)

	first, _, err := f.registry.GetOrCreate("browser-1", f.factory)
	require.NoError(t, err)
	_, _, err = f.registry.GetOrCreate("browser-2", f.factory)
	require.NoError(t, err)

	require.NoError(t, f.registry.Rotate("browser-1", "browser-1b"))
	_, err = f.registry.Get("browser-1")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
	got, err := f.registry.Get("browser-1b")
	require.NoError(t, err)
	require.Same(t, first, got)
	require.Equal(t, 2, f.registry.Len())

	require.ErrorIs(t, f.registry.Rotate("browser-1", "browser-1c"), autherrors.ErrNotFound)
	require.Error(t, f.registry.Rotate("browser-1b", "browser-2"))
	require.Error(t, f.registry.Rotate("browser-1b", ""))

	f.now = f.now.Add(time.Hour)
	require.ErrorIs(t, f.registry.Rotate("browser-1b", "browser-1d"), autherrors.ErrNotFound)
}

func TestRunJanitor(t *testing.T) {
	registry := loginsession.NewInMemoryRegistry(time.Millisecond)
	factory := func() (*auth.Session, error) {
		signer, err := token.NewHMACSigner("janitor-key")
		if err != nil {
			return nil, err
		}
		return auth.NewSession(token.NewStore(signer), authfakes.NewFakeProvider(), auth.Options{CookieName: "c", TokenTTL: time.Hour})
	}
	_, _, err := registry.GetOrCreate("browser-1", factory)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		registry.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return registry.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
