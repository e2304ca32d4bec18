package service

import (
	"context"
	"time"

	"github.com/boardgameshare/server/internal/model"
	"github.com/boardgameshare/server/internal/repository"
)

// The engines talk to their collaborators through the interfaces
// below. The SQL repositories satisfy them in production; tests plug
// in in-memory fakes and a fixed clock. Implementations report
// failures with the repository sentinels, which storeErr translates
// into engine error kinds.

// AccountDirectory resolves account identity and role.
type AccountDirectory interface {
	ResolveAccount(ctx context.Context, id uint64) (model.Account, error)
}

// Catalog resolves games and their owners.
type Catalog interface {
	ResolveGame(ctx context.Context, id uint64) (model.Game, error)
}

// BorrowRequestStore persists borrow requests. Decline,
// ApproveAndCreateRecord and DeleteIfPending are conditional writes
// that only succeed while the request is still PENDING.
type BorrowRequestStore interface {
	Create(ctx context.Context, br *model.BorrowRequest) error
	GetByID(ctx context.Context, id uint64) (model.BorrowRequest, error)
	ListByRequester(ctx context.Context, requesterID uint64) ([]model.BorrowRequest, error)
	ListByStatus(ctx context.Context, status string) ([]model.BorrowRequest, error)
	ListForOwner(ctx context.Context, ownerID uint64) ([]model.BorrowRequest, error)
	Decline(ctx context.Context, id uint64) error
	ApproveAndCreateRecord(ctx context.Context, id uint64, rec *model.LendingRecord) error
	DeleteIfPending(ctx context.Context, id uint64) error
}

// LendingRecordStore persists lending records. TransitionStatus and
// Close are conditional writes restricted to the states named in
// `from`; a write that matches nothing surfaces ErrConflict.
type LendingRecordStore interface {
	GetByID(ctx context.Context, id uint64) (model.LendingRecord, error)
	GetByBorrowRequest(ctx context.Context, requestID uint64) (model.LendingRecord, error)
	TransitionStatus(ctx context.Context, id uint64, from []string, to string) error
	Close(ctx context.Context, id uint64, from []string, damaged bool, notes string, closedAt time.Time) error
	List(ctx context.Context, f repository.LendingFilter, page, size int) ([]model.LendingRecord, int, error)
	ListOverdue(ctx context.Context, now time.Time) ([]model.LendingRecord, error)
}

// EventStore persists events. Update re-checks the registration count
// transactionally and reports a too-small capacity as ErrConflict.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id uint64) error
}

// RegistrationStore persists registrations. Create is a single
// conditional insert that enforces both the capacity bound and the
// one-registration-per-attendee rule, reporting ErrEventFull or
// ErrDuplicateRegistration when it declines to insert.
type RegistrationStore interface {
	Create(ctx context.Context, reg *model.Registration) error
	GetByID(ctx context.Context, id uint64) (model.Registration, error)
	Delete(ctx context.Context, id uint64) error
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Registration, error)
	ListByAttendee(ctx context.Context, attendeeID uint64) ([]model.Registration, error)
	CountByEvent(ctx context.Context, eventID uint64) (uint32, error)
}

// Publisher emits best-effort notification messages. Engines log and
// ignore publish failures; a committed transition never rolls back
// because a notification could not be sent.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}
