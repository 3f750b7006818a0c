package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-auth-session/auth"
)

var _ auth.RequestContext = (*requestContext)(nil)

// callbackParams are stripped from the URL once the callback is handled
var callbackParams = []string{
	auth.ParamCode,
	auth.ParamState,
	auth.ParamError,
	auth.ParamErrorDescription,
	"scope",
	"authuser",
	"prompt",
	"hd",
	"iss",
}

// requestContext adapts one HTTP request to the session's page/request cycle.
// Clearing the callback or asking for a rerun turns into a redirect to the clean URL.
type requestContext struct {
	*cookieJar
	params  url.Values
	cleared bool
	rerun   bool
}

func newRequestContext(w http.ResponseWriter, r *http.Request) *requestContext {
	return &requestContext{
		cookieJar: newCookieJar(w, r),
		params:    r.URL.Query(),
	}
}

func (rc *requestContext) CallbackParam(name string) string {
	return rc.params.Get(name)
}

func (rc *requestContext) ClearCallback() {
	for _, name := range callbackParams {
		rc.params.Del(name)
	}
	rc.cleared = true
}

func (rc *requestContext) Rerun() {
	rc.rerun = true
}

// needsRedirect reports whether the browser must reload a clean URL
func (rc *requestContext) needsRedirect() bool {
	return rc.cleared || rc.rerun
}

// cleanURL returns where to send the browser after the callback was consumed.
// The callback route has nothing to show, so it lands on the home page.
func (rc *requestContext) cleanURL() string {
	path := rc.r.URL.Path
	if path == RouteCallback {
		path = RouteHome
	}
	if query := rc.params.Encode(); query != "" {
		return path + "?" + query
	}
	return path
}
