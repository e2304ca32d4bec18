package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/boardgameshare/server/internal/service"
)

// BorrowRequestHandler exposes the borrow-request lifecycle: members
// file and withdraw requests, owners review and decide them.
type BorrowRequestHandler struct {
	Requests *service.BorrowRequestService
}

func NewBorrowRequestHandler(s *service.BorrowRequestService) *BorrowRequestHandler {
	return &BorrowRequestHandler{Requests: s}
}

type borrowRequestReq struct {
	GameID    uint64 `json:"game_id"`
	StartDate string `json:"start_date"` // YYYY-MM-DD or RFC3339
	EndDate   string `json:"end_date"`
}

// parseDate accepts date-only or full timestamp input; dates resolve
// to midnight UTC.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// Create files a new PENDING request for a game.
func (h *BorrowRequestHandler) Create(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var req borrowRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	start, okS := parseDate(req.StartDate)
	end, okE := parseDate(req.EndDate)
	if req.GameID == 0 || !okS || !okE {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "game_id, start_date and end_date required"})
	}

	br, err := h.Requests.Create(c.Request().Context(), p.ID, req.GameID, start, end)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, br)
}

// Mine lists the principal's own requests.
func (h *BorrowRequestHandler) Mine(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.Requests.FindByRequester(c.Request().Context(), p.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns a single request.
func (h *BorrowRequestHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	br, err := h.Requests.FindByID(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, br)
}

// Delete withdraws a still-pending request.
func (h *BorrowRequestHandler) Delete(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Requests.Delete(c.Request().Context(), id, p); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Incoming lists requests targeting games the principal owns, with an
// optional ?status= filter.
func (h *BorrowRequestHandler) Incoming(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	ctx := c.Request().Context()
	if status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); status != "" {
		out, err := h.Requests.FindByStatus(ctx, status)
		if err != nil {
			return writeServiceError(c, err)
		}
		// Keep only requests aimed at the principal's games.
		mine, err := h.Requests.FindForOwner(ctx, p.ID)
		if err != nil {
			return writeServiceError(c, err)
		}
		ids := make(map[uint64]bool, len(mine))
		for _, br := range mine {
			ids[br.ID] = true
		}
		filtered := out[:0]
		for _, br := range out {
			if ids[br.ID] {
				filtered = append(filtered, br)
			}
		}
		return c.JSON(http.StatusOK, filtered)
	}
	out, err := h.Requests.FindForOwner(ctx, p.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Approve accepts a pending request and opens the loan.
func (h *BorrowRequestHandler) Approve(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rec, err := h.Requests.Approve(c.Request().Context(), id, p)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// Decline rejects a pending request.
func (h *BorrowRequestHandler) Decline(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	br, err := h.Requests.Decline(c.Request().Context(), id, p)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, br)
}
