package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/boardgameshare/server/internal/model"
	"github.com/boardgameshare/server/internal/repository"
	"github.com/boardgameshare/server/internal/service"
)

// PublicHandler serves the anonymous browse surface: available games
// and upcoming events. These routes sit behind the response cache.
type PublicHandler struct {
	Games  *repository.GameRepo
	Events *service.EventService
}

func NewPublicHandler(g *repository.GameRepo, e *service.EventService) *PublicHandler {
	return &PublicHandler{Games: g, Events: e}
}

// BrowseGames lists lendable games, with optional substring match on
// the name via ?q=.
func (h *PublicHandler) BrowseGames(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	games, err := h.Games.ListAvailable(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list games failed"})
	}
	if q := strings.ToLower(strings.TrimSpace(c.QueryParam("q"))); q != "" {
		filtered := make([]model.Game, 0, len(games))
		for _, g := range games {
			if strings.Contains(strings.ToLower(g.Name), q) {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}
	return c.JSON(http.StatusOK, games)
}

// BrowseEvents lists events with their registration counts.
func (h *PublicHandler) BrowseEvents(c echo.Context) error {
	details, err := h.Events.List(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]eventView, 0, len(details))
	for _, d := range details {
		out = append(out, eventView{Event: d.Event, Registered: d.Registered})
	}
	return c.JSON(http.StatusOK, out)
}
