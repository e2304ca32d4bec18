package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/boardgameshare/server/internal/model"
	"github.com/boardgameshare/server/internal/repository"
)

// GameHandler exposes the owner-facing CRUD surface for game listings.
type GameHandler struct {
	Games *repository.GameRepo
}

func NewGameHandler(g *repository.GameRepo) *GameHandler {
	return &GameHandler{Games: g}
}

type gameReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MinPlayers  uint32 `json:"min_players"`
	MaxPlayers  uint32 `json:"max_players"`
	Available   *bool  `json:"available"`
}

func (r *gameReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name required"
	}
	if r.MinPlayers < 1 {
		return "min_players must be at least 1"
	}
	if r.MaxPlayers < r.MinPlayers {
		return "max_players below min_players"
	}
	return ""
}

// Create adds a new game to the principal's shelf.
func (h *GameHandler) Create(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var req gameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	g := model.Game{
		OwnerAccountID: p.ID,
		Name:           req.Name,
		Description:    req.Description,
		MinPlayers:     req.MinPlayers,
		MaxPlayers:     req.MaxPlayers,
		Available:      available,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Games.Create(ctx, &g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create game failed"})
	}
	return c.JSON(http.StatusCreated, g)
}

// Mine lists the principal's games.
func (h *GameHandler) Mine(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	games, err := h.Games.ListByOwner(ctx, p.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list games failed"})
	}
	return c.JSON(http.StatusOK, games)
}

// Get returns one game.
func (h *GameHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	g, err := h.Games.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load game failed"})
	}
	return c.JSON(http.StatusOK, g)
}

// Update rewrites a game's listing fields. Ownership is enforced in
// the repository.
func (h *GameHandler) Update(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req gameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	g := model.Game{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		MinPlayers:  req.MinPlayers,
		MaxPlayers:  req.MaxPlayers,
		Available:   available,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	switch err := h.Games.Update(ctx, &g, p.ID); {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your game"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update game failed"})
	}
	g.OwnerAccountID = p.ID
	return c.JSON(http.StatusOK, g)
}

// Delete removes a game from the shelf. Games with open loans stay.
func (h *GameHandler) Delete(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	switch err := h.Games.Delete(ctx, id, p.ID); {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your game"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "game has open loans"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete game failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
