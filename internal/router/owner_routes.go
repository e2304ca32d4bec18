package router

import (
	"github.com/labstack/echo/v4"

	"github.com/boardgameshare/server/internal/handler"
	"github.com/boardgameshare/server/internal/middleware"
	"github.com/boardgameshare/server/internal/model"
)

// RegisterOwner registers the GAME_OWNER-scoped endpoints under /v1.
// Owners manage their game listings, decide incoming borrow requests
// and confirm returns.
func RegisterOwner(e *echo.Echo, g *handler.GameHandler, br *handler.BorrowRequestHandler, l *handler.LendingHandler, jwtSecret string) {
	grp := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleGameOwner),
	)

	// ---- Games ----
	grp.POST("/games", g.Create)
	grp.GET("/my-games", g.Mine)
	grp.PUT("/games/:id", g.Update)
	grp.PATCH("/games/:id", g.Update)
	grp.DELETE("/games/:id", g.Delete)

	// ---- Borrow request decisions ----
	grp.GET("/incoming-requests", br.Incoming)
	grp.POST("/borrow-requests/:id/approve", br.Approve)
	grp.POST("/borrow-requests/:id/decline", br.Decline)

	// ---- Loan closing ----
	grp.POST("/lending-records/:id/close", l.Close)
}
