package router

import (
	"github.com/labstack/echo/v4"

	"github.com/boardgameshare/server/internal/handler"
	"github.com/boardgameshare/server/internal/middleware"
	"github.com/boardgameshare/server/internal/model"
)

// RegisterMember registers the endpoints available to every
// authenticated account under /v1: filing borrow requests, driving
// the borrower side of a loan, hosting events and registering for
// them. Game owners hold these rights too.
func RegisterMember(e *echo.Echo, br *handler.BorrowRequestHandler, l *handler.LendingHandler, ev *handler.EventHandler, g *handler.GameHandler, jwtSecret string) {
	grp := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleGameOwner),
	)

	// ---- Games (read) ----
	grp.GET("/games/:id", g.Get)

	// ---- Borrow requests ----
	grp.POST("/borrow-requests", br.Create)
	grp.GET("/my-requests", br.Mine)
	grp.GET("/borrow-requests/:id", br.Get)
	grp.DELETE("/borrow-requests/:id", br.Delete)

	// ---- Lending records ----
	grp.GET("/lending-records", l.List)
	grp.GET("/lending-records/overdue", l.Overdue)
	grp.GET("/lending-records/:id", l.Get)
	grp.POST("/lending-records/:id/return", l.MarkReturned)
	grp.POST("/lending-records/:id/dispute", l.Dispute)

	// ---- Events ----
	grp.POST("/events", ev.Create)
	grp.GET("/events", ev.List)
	grp.GET("/events/:id", ev.Get)
	grp.PUT("/events/:id", ev.Update)
	grp.PATCH("/events/:id", ev.Update)
	grp.DELETE("/events/:id", ev.Delete)
	grp.GET("/events/:id/registrations", ev.Registrations)

	// ---- Registrations ----
	grp.POST("/events/:id/register", ev.Register)
	grp.DELETE("/registrations/:registration_id", ev.Unregister)
	grp.GET("/my-registrations", ev.MyRegistrations)
}
