package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// Reconcile the login session with the request (the provider redirects to either)
	s.RegisterRouteFunc("GET "+RouteHome, ChainMiddleware(s.ReconcileHandler(), s.AuthMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteCallback, ChainMiddleware(s.ReconcileHandler(), s.AuthMiddleware(s.RateLimitMiddleware)...))

	// LOGIN
	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.AuthMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.AuthMiddleware()...))

	// API routes
	s.RegisterRouteFunc("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.NoStoreMiddleware)...))
	s.RegisterRouteFunc("OPTIONS "+RouteMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware()...))
}
