package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardgameshare/server/internal/model"
	"github.com/boardgameshare/server/internal/queue"
)

type eventFixture struct {
	store *memStore
	svc   *EventService
	pub   *capturePublisher
	host  model.Account
	game  model.Game
}

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()
	store := newMemStore()
	host := store.addAccount(model.Account{Email: "host@example.com", Role: model.RoleGameOwner})
	game := store.addGame(model.Game{OwnerAccountID: host.ID, Name: "Catan", Available: true})
	clock := &FixedClock{T: date(2025, time.March, 1)}
	pub := &capturePublisher{}
	svc := NewEventService(memEventStore{store}, memRegistrationStore{store}, store, clock, pub)
	return &eventFixture{store: store, svc: svc, pub: pub, host: host, game: game}
}

func (fx *eventFixture) event(t *testing.T, max uint32) model.Event {
	t.Helper()
	e, err := fx.svc.Create(context.Background(), fx.host, model.Event{
		FeaturedGameID:  fx.game.ID,
		Title:           "Tuesday game night",
		Location:        "Community hall",
		StartsAt:        date(2025, time.March, 20),
		MaxParticipants: max,
	})
	require.NoError(t, err)
	return e
}

func TestEventCreateValidation(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, fx.host, model.Event{
		FeaturedGameID:  fx.game.ID,
		Title:           "  ",
		StartsAt:        date(2025, time.March, 20),
		MaxParticipants: 4,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = fx.svc.Create(ctx, fx.host, model.Event{
		FeaturedGameID:  fx.game.ID,
		Title:           "Game night",
		MaxParticipants: 4,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = fx.svc.Create(ctx, fx.host, model.Event{
		FeaturedGameID:  fx.game.ID,
		Title:           "Game night",
		StartsAt:        date(2025, time.March, 20),
		MaxParticipants: 0,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = fx.svc.Create(ctx, fx.host, model.Event{
		FeaturedGameID:  999,
		Title:           "Game night",
		StartsAt:        date(2025, time.March, 20),
		MaxParticipants: 4,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEventCreateSetsHost(t *testing.T) {
	fx := newEventFixture(t)
	e := fx.event(t, 4)
	assert.Equal(t, fx.host.ID, e.HostID)
	assert.NotZero(t, e.ID)

	detail, err := fx.svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), detail.Registered)
}

func TestEventRegisterCapacity(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()
	e := fx.event(t, 1)

	alice := fx.store.addAccount(model.Account{Email: "alice@example.com", Role: model.RoleUser})
	bob := fx.store.addAccount(model.Account{Email: "bob@example.com", Role: model.RoleUser})

	reg, err := fx.svc.Register(ctx, alice, e.ID)
	require.NoError(t, err)
	assert.NotZero(t, reg.ID)
	assert.Equal(t, []string{queue.EventRegisteredKey}, fx.pub.keys)

	// The event is full; the second signup conflicts and the count
	// stays at the bound.
	_, err = fx.svc.Register(ctx, bob, e.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorContains(t, err, "capacity")

	detail, err := fx.svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), detail.Registered)

	// Freeing the slot lets the waiting account in.
	require.NoError(t, fx.svc.Unregister(ctx, alice, reg.ID))
	_, err = fx.svc.Register(ctx, bob, e.ID)
	require.NoError(t, err)
}

func TestEventRegisterDuplicate(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()
	e := fx.event(t, 4)
	alice := fx.store.addAccount(model.Account{Email: "alice@example.com", Role: model.RoleUser})

	_, err := fx.svc.Register(ctx, alice, e.ID)
	require.NoError(t, err)
	_, err = fx.svc.Register(ctx, alice, e.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorContains(t, err, "already registered")
}

func TestEventRegisterUnknownEvent(t *testing.T) {
	fx := newEventFixture(t)
	alice := fx.store.addAccount(model.Account{Email: "alice@example.com", Role: model.RoleUser})
	_, err := fx.svc.Register(context.Background(), alice, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventUnregisterForbidden(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()
	e := fx.event(t, 4)
	alice := fx.store.addAccount(model.Account{Email: "alice@example.com", Role: model.RoleUser})
	bob := fx.store.addAccount(model.Account{Email: "bob@example.com", Role: model.RoleUser})

	reg, err := fx.svc.Register(ctx, alice, e.ID)
	require.NoError(t, err)

	err = fx.svc.Unregister(ctx, bob, reg.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	err = fx.svc.Unregister(ctx, fx.host, reg.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEventUpdate(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()
	e := fx.event(t, 4)
	alice := fx.store.addAccount(model.Account{Email: "alice@example.com", Role: model.RoleUser})
	bob := fx.store.addAccount(model.Account{Email: "bob@example.com", Role: model.RoleUser})
	_, err := fx.svc.Register(ctx, alice, e.ID)
	require.NoError(t, err)
	_, err = fx.svc.Register(ctx, bob, e.ID)
	require.NoError(t, err)

	// Only the host may update.
	e.Title = "Hijacked"
	_, err = fx.svc.Update(ctx, alice, e)
	assert.ErrorIs(t, err, ErrForbidden)

	// Shrinking below the current registration count is rejected.
	e.Title = "Tuesday game night"
	e.MaxParticipants = 1
	_, err = fx.svc.Update(ctx, fx.host, e)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "below current registrations")

	// Shrinking to exactly the current count is allowed.
	e.MaxParticipants = 2
	updated, err := fx.svc.Update(ctx, fx.host, e)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), updated.MaxParticipants)
}

func TestEventDelete(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()
	e := fx.event(t, 4)
	alice := fx.store.addAccount(model.Account{Email: "alice@example.com", Role: model.RoleUser})

	err := fx.svc.Delete(ctx, alice, e.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, fx.svc.Delete(ctx, fx.host, e.ID))
	_, err = fx.svc.Get(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventRegistrationListings(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()
	e := fx.event(t, 4)
	alice := fx.store.addAccount(model.Account{Email: "alice@example.com", Role: model.RoleUser})
	_, err := fx.svc.Register(ctx, alice, e.ID)
	require.NoError(t, err)

	// Only the host sees the attendee list.
	_, err = fx.svc.Registrations(ctx, alice, e.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	regs, err := fx.svc.Registrations(ctx, fx.host, e.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, alice.ID, regs[0].AttendeeID)

	mine, err := fx.svc.MyRegistrations(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestEventListCounts(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()
	first := fx.event(t, 4)
	fx.event(t, 8)
	alice := fx.store.addAccount(model.Account{Email: "alice@example.com", Role: model.RoleUser})
	_, err := fx.svc.Register(ctx, alice, first.ID)
	require.NoError(t, err)

	list, err := fx.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint32(1), list[0].Registered)
	assert.Equal(t, uint32(0), list[1].Registered)
}
