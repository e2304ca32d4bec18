package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/boardgameshare/server/internal/model"
	"github.com/boardgameshare/server/internal/queue"
	"github.com/boardgameshare/server/internal/repository"
)

// EventService manages events and their registrations. The capacity
// invariant — registered count never exceeds max participants — is
// enforced by the store's conditional insert, so concurrent signups
// cannot overbook; the engine's job is validation, authorization and
// error shaping.
type EventService struct {
	events    EventStore
	regs      RegistrationStore
	catalog   Catalog
	clock     Clock
	publisher Publisher // optional; best-effort notifications
}

// NewEventService wires an EventService. publisher may be nil to
// disable notifications.
func NewEventService(events EventStore, regs RegistrationStore, catalog Catalog, clock Clock, publisher Publisher) *EventService {
	if events == nil || regs == nil || catalog == nil || clock == nil {
		panic("nil dependency passed to NewEventService")
	}
	return &EventService{events: events, regs: regs, catalog: catalog, clock: clock, publisher: publisher}
}

// EventDetail pairs an event with its derived participant count.
type EventDetail struct {
	Event      model.Event
	Registered uint32
}

// Create validates and stores a new event hosted by the principal.
func (s *EventService) Create(ctx context.Context, principal model.Account, e model.Event) (model.Event, error) {
	if err := s.validateEvent(e); err != nil {
		return model.Event{}, err
	}
	if _, err := s.catalog.ResolveGame(ctx, e.FeaturedGameID); err != nil {
		if se := storeErr(err); se == ErrNotFound {
			return model.Event{}, fmt.Errorf("%w: unknown featured game", ErrValidation)
		} else {
			return model.Event{}, se
		}
	}
	e.HostID = principal.ID
	if err := s.events.Create(ctx, &e); err != nil {
		return model.Event{}, storeErr(err)
	}
	return e, nil
}

// Get returns an event along with its current registration count.
func (s *EventService) Get(ctx context.Context, id uint64) (EventDetail, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return EventDetail{}, storeErr(err)
	}
	n, err := s.regs.CountByEvent(ctx, id)
	if err != nil {
		return EventDetail{}, storeErr(err)
	}
	return EventDetail{Event: e, Registered: n}, nil
}

// List returns all events with their registration counts.
func (s *EventService) List(ctx context.Context) ([]EventDetail, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	out := make([]EventDetail, 0, len(events))
	for _, e := range events {
		n, err := s.regs.CountByEvent(ctx, e.ID)
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, EventDetail{Event: e, Registered: n})
	}
	return out, nil
}

// Update rewrites an event's fields. Only the host may update, and
// max participants may not drop below the number of accounts already
// registered — the store re-checks that bound transactionally and a
// violation is reported as ErrValidation, matching the shape of the
// other capacity input checks.
func (s *EventService) Update(ctx context.Context, principal model.Account, e model.Event) (model.Event, error) {
	existing, err := s.events.GetByID(ctx, e.ID)
	if err != nil {
		return model.Event{}, storeErr(err)
	}
	if !CanTransition(principal, Target{OwnerID: existing.HostID}, ActionUpdateEvent) {
		return model.Event{}, fmt.Errorf("%w: only the host may update the event", ErrForbidden)
	}
	if err := s.validateEvent(e); err != nil {
		return model.Event{}, err
	}
	e.HostID = existing.HostID
	if err := s.events.Update(ctx, &e); err != nil {
		if se := storeErr(err); se == ErrConflict {
			return model.Event{}, fmt.Errorf("%w: max participants below current registrations", ErrValidation)
		} else {
			return model.Event{}, se
		}
	}
	return e, nil
}

// Delete removes an event. Only the host may delete.
func (s *EventService) Delete(ctx context.Context, principal model.Account, id uint64) error {
	existing, err := s.events.GetByID(ctx, id)
	if err != nil {
		return storeErr(err)
	}
	if !CanTransition(principal, Target{OwnerID: existing.HostID}, ActionDeleteEvent) {
		return fmt.Errorf("%w: only the host may delete the event", ErrForbidden)
	}
	return storeErr(s.events.Delete(ctx, id))
}

// Register signs the principal up for an event. The store's
// conditional insert rejects the attempt when the event is at
// capacity or the principal already holds a registration; both
// surface as ErrConflict with distinct messages and the registered
// count is never incremented past the bound.
func (s *EventService) Register(ctx context.Context, principal model.Account, eventID uint64) (model.Registration, error) {
	reg := model.Registration{
		EventID:      eventID,
		AttendeeID:   principal.ID,
		RegisteredAt: s.clock.Now(),
	}
	if err := s.regs.Create(ctx, &reg); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateRegistration):
			return model.Registration{}, fmt.Errorf("%w: already registered for this event", ErrConflict)
		case errors.Is(err, repository.ErrEventFull):
			return model.Registration{}, fmt.Errorf("%w: event is at capacity", ErrConflict)
		default:
			return model.Registration{}, storeErr(err)
		}
	}
	s.notify(ctx, queue.EventRegisteredKey, queue.EventRegisteredEvent{
		RegistrationID: reg.ID,
		EventID:        eventID,
		AttendeeID:     principal.ID,
		RegisteredAt:   reg.RegisteredAt.Format(time.RFC3339),
	})
	return reg, nil
}

// Unregister removes a registration. Only the attendee who created it
// may delete it.
func (s *EventService) Unregister(ctx context.Context, principal model.Account, registrationID uint64) error {
	reg, err := s.regs.GetByID(ctx, registrationID)
	if err != nil {
		return storeErr(err)
	}
	if !CanTransition(principal, Target{PartyID: reg.AttendeeID}, ActionDeleteRegistration) {
		return fmt.Errorf("%w: only the attendee may unregister", ErrForbidden)
	}
	return storeErr(s.regs.Delete(ctx, registrationID))
}

// Registrations returns the registrations for an event, visible to
// its host.
func (s *EventService) Registrations(ctx context.Context, principal model.Account, eventID uint64) ([]model.Registration, error) {
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, storeErr(err)
	}
	if e.HostID != principal.ID {
		return nil, fmt.Errorf("%w: only the host may list registrations", ErrForbidden)
	}
	out, err := s.regs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// MyRegistrations returns the principal's registrations.
func (s *EventService) MyRegistrations(ctx context.Context, principal model.Account) ([]model.Registration, error) {
	out, err := s.regs.ListByAttendee(ctx, principal.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *EventService) validateEvent(e model.Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if e.StartsAt.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrValidation)
	}
	if e.MaxParticipants < 1 {
		return fmt.Errorf("%w: max participants must be at least 1", ErrValidation)
	}
	return nil
}

func (s *EventService) notify(ctx context.Context, key string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		log.Printf("event: publish %s failed: %v", key, err)
	}
}
