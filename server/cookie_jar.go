package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/jrsteele09/go-auth-session/auth"
)

var _ auth.TokenJar = (*cookieJar)(nil)

// cookieJar is the browser's cookie store seen through one request/response pair.
// Writes made during the request are visible to later reads of the same request.
type cookieJar struct {
	w       http.ResponseWriter
	r       *http.Request
	secure  bool
	written map[string]string // "" marks a deleted cookie
}

func newCookieJar(w http.ResponseWriter, r *http.Request) *cookieJar {
	return &cookieJar{
		w:       w,
		r:       r,
		secure:  getScheme(r) == "https",
		written: make(map[string]string),
	}
}

func (j *cookieJar) Get(name string) (string, error) {
	if value, ok := j.written[name]; ok {
		return value, nil
	}
	c, err := j.r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

func (j *cookieJar) Set(name, value string, expiresAt time.Time) error {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if err := c.Valid(); err != nil {
		return err
	}
	http.SetCookie(j.w, c)
	j.written[name] = value
	return nil
}

func (j *cookieJar) Delete(name string) error {
	http.SetCookie(j.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
	j.written[name] = ""
	return nil
}
