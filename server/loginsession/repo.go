package loginsession

import (
	"context"
	"time"

	"github.com/jrsteele09/go-auth-session/auth"
)

// Factory creates the session for a browser seen for the first time
type Factory func() (*auth.Session, error)

// Registry maps browser session ids to their login sessions.
// Entries are transient: the signed session token restores identity after they are lost.
type Registry interface {
	GetOrCreate(id string, factory Factory) (session *auth.Session, created bool, err error)
	Get(id string) (*auth.Session, error)
	Resume(id string) (*auth.Session, error)
	Rotate(oldID, newID string) error
	Delete(id string)
	Prune(now time.Time) int
	Len() int
	RunJanitor(ctx context.Context, interval time.Duration)
}
