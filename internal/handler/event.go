package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/boardgameshare/server/internal/model"
	"github.com/boardgameshare/server/internal/service"
)

// EventHandler exposes community events and their registrations.
type EventHandler struct {
	Events *service.EventService
}

func NewEventHandler(s *service.EventService) *EventHandler {
	return &EventHandler{Events: s}
}

type eventReq struct {
	FeaturedGameID  uint64 `json:"featured_game_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	StartsAt        string `json:"starts_at"` // RFC3339
	MaxParticipants uint32 `json:"max_participants"`
}

func (r eventReq) toModel() (model.Event, bool) {
	starts, ok := parseDate(r.StartsAt)
	if !ok {
		return model.Event{}, false
	}
	return model.Event{
		FeaturedGameID:  r.FeaturedGameID,
		Title:           strings.TrimSpace(r.Title),
		Description:     r.Description,
		Location:        strings.TrimSpace(r.Location),
		StartsAt:        starts,
		MaxParticipants: r.MaxParticipants,
	}, true
}

type eventView struct {
	model.Event
	Registered uint32 `json:"registered"`
}

// Create opens a new event hosted by the principal.
func (h *EventHandler) Create(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	e, okT := req.toModel()
	if !okT {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at required"})
	}
	created, err := h.Events.Create(c.Request().Context(), p, e)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Get returns an event with its registration count.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.Events.Get(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, eventView{Event: detail.Event, Registered: detail.Registered})
}

// List returns all events with their registration counts.
func (h *EventHandler) List(c echo.Context) error {
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

// Update rewrites an event; host only.
func (h *EventHandler) Update(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	e, okT := req.toModel()
	if !okT {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at required"})
	}
	e.ID = id
	updated, err := h.Events.Update(c.Request().Context(), p, e)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes an event; host only.
func (h *EventHandler) Delete(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Events.Delete(c.Request().Context(), p, id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Register signs the principal up for an event.
func (h *EventHandler) Register(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	reg, err := h.Events.Register(c.Request().Context(), p, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, reg)
}

// Unregister cancels one of the principal's registrations.
func (h *EventHandler) Unregister(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c, "registration_id")
	if err != nil {
		return err
	}
	if err := h.Events.Unregister(c.Request().Context(), p, id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Registrations lists an event's attendee registrations; host only.
func (h *EventHandler) Registrations(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	out, err := h.Events.Registrations(c.Request().Context(), p, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// MyRegistrations lists the principal's own registrations.
func (h *EventHandler) MyRegistrations(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.Events.MyRegistrations(c.Request().Context(), p)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
