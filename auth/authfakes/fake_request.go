package authfakes

import (
	"maps"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-session/auth"
)

var _ auth.RequestContext = (*FakeRequest)(nil)

// StoredToken is a value held by the fake client store
type StoredToken struct {
	Value     string
	ExpiresAt time.Time
}

// FakeRequest is an in-memory RequestContext: a cookie jar, a query string and a rerun flag.
// The jar survives across requests when reused with NextRequest.
type FakeRequest struct {
	GetErr    error
	SetErr    error
	DeleteErr error

	lock    sync.Mutex
	jar     map[string]StoredToken
	params  map[string]string
	cleared bool
	reruns  int
	deletes int
	sets    int
}

func NewFakeRequest(params map[string]string) *FakeRequest {
	if params == nil {
		params = make(map[string]string)
	}
	return &FakeRequest{
		jar:    make(map[string]StoredToken),
		params: maps.Clone(params),
	}
}

// NextRequest starts a new request from the same client: same jar, new query.
func (r *FakeRequest) NextRequest(params map[string]string) *FakeRequest {
	r.lock.Lock()
	defer r.lock.Unlock()

	next := NewFakeRequest(params)
	next.jar = maps.Clone(r.jar)
	return next
}

func (r *FakeRequest) Get(name string) (string, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.GetErr != nil {
		return "", r.GetErr
	}
	return r.jar[name].Value, nil
}

func (r *FakeRequest) Set(name, value string, expiresAt time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.sets++
	if r.SetErr != nil {
		return r.SetErr
	}
	r.jar[name] = StoredToken{Value: value, ExpiresAt: expiresAt}
	return nil
}

func (r *FakeRequest) Delete(name string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.deletes++
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	delete(r.jar, name)
	return nil
}

func (r *FakeRequest) CallbackParam(name string) string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.params[name]
}

func (r *FakeRequest) ClearCallback() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.params = make(map[string]string)
	r.cleared = true
}

func (r *FakeRequest) Rerun() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.reruns++
}

// Stored returns the jar entry for name
func (r *FakeRequest) Stored(name string) (StoredToken, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	tok, ok := r.jar[name]
	return tok, ok
}

// Put places a raw value in the jar, as a browser replaying a cookie would
func (r *FakeRequest) Put(name, value string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.jar[name] = StoredToken{Value: value}
}

func (r *FakeRequest) Cleared() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.cleared
}

func (r *FakeRequest) Reruns() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.reruns
}

func (r *FakeRequest) Deletes() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.deletes
}

func (r *FakeRequest) Sets() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.sets
}
