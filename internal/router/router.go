package router // route registration for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/boardgameshare/server/internal/handler"
	"github.com/boardgameshare/server/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication at all.
// Currently just the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the authentication endpoints. Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout runs outside the JWT middleware so a client holding only
	// a refresh token can still end its session.
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic wires the anonymous browse endpoints, fronted by the
// response cache when one is configured. cache may be nil.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/browse")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/games", p.BrowseGames)
	g.GET("/events", p.BrowseEvents)
}
