package server

// Route path constants
const (
	RouteHome     = "/"
	RouteLogin    = "/login"
	RouteLogout   = "/logout"
	RouteCallback = "/auth/callback"
	RouteMe       = "/me"
	RouteHealth   = "/healthz"
)
