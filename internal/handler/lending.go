package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/boardgameshare/server/internal/model"
	"github.com/boardgameshare/server/internal/repository"
	"github.com/boardgameshare/server/internal/service"
)

// LendingHandler exposes the loan lifecycle and the filtered history
// listing.
type LendingHandler struct {
	Lending *service.LendingService
}

func NewLendingHandler(s *service.LendingService) *LendingHandler {
	return &LendingHandler{Lending: s}
}

// lendingView augments the stored record with the status clients
// should display, so an overdue ACTIVE loan reads as OVERDUE without
// that ever being written anywhere.
type lendingView struct {
	model.LendingRecord
	EffectiveStatus string `json:"effective_status"`
}

func (h *LendingHandler) view(rec model.LendingRecord) lendingView {
	return lendingView{LendingRecord: rec, EffectiveStatus: rec.EffectiveStatus(time.Now().UTC())}
}

func (h *LendingHandler) views(recs []model.LendingRecord) []lendingView {
	now := time.Now().UTC()
	out := make([]lendingView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, lendingView{LendingRecord: rec, EffectiveStatus: rec.EffectiveStatus(now)})
	}
	return out
}

// Get returns a single loan.
func (h *LendingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rec, err := h.Lending.Get(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, h.view(rec))
}

// List returns a filtered, paginated page of loans. Query parameters:
// status, owner_id, borrower_id, from, to, page, page_size. All
// filters compose with AND; status accepts the derived OVERDUE.
func (h *LendingHandler) List(c echo.Context) error {
	if _, ok := principal(c); !ok {
		return unauthorized(c)
	}
	var f repository.LendingFilter
	f.Status = strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	if v := c.QueryParam("owner_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			f.OwnerID = n
		}
	}
	if v := c.QueryParam("borrower_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			f.BorrowerID = n
		}
	}
	if t, ok := parseDate(c.QueryParam("from")); ok {
		f.FromDate = &t
	}
	if t, ok := parseDate(c.QueryParam("to")); ok {
		f.ToDate = &t
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))

	result, err := h.Lending.List(c.Request().Context(), f, page, size)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":       h.views(result.Items),
		"total_items": result.TotalItems,
		"total_pages": result.TotalPages,
		"page":        result.Page,
		"page_size":   result.PageSize,
	})
}

// Overdue lists every loan overdue as of now.
func (h *LendingHandler) Overdue(c echo.Context) error {
	if _, ok := principal(c); !ok {
		return unauthorized(c)
	}
	out, err := h.Lending.Overdue(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, h.views(out))
}

// MarkReturned is the borrower's half of the return handshake.
func (h *LendingHandler) MarkReturned(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rec, err := h.Lending.MarkReturned(c.Request().Context(), id, p)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, h.view(rec))
}

// Dispute flags the loan as contested by either party.
func (h *LendingHandler) Dispute(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rec, err := h.Lending.Dispute(c.Request().Context(), id, p)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, h.view(rec))
}

type closeReq struct {
	Damaged     bool   `json:"damaged"`
	DamageNotes string `json:"damage_notes"`
}

// Close is the owner's confirmation that the game came back.
func (h *LendingHandler) Close(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req closeReq
	_ = c.Bind(&req) // empty body means an undamaged return
	rec, err := h.Lending.Close(c.Request().Context(), id, p, req.Damaged, strings.TrimSpace(req.DamageNotes))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, h.view(rec))
}
