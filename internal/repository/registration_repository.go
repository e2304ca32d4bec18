package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/boardgameshare/server/internal/model"
)

// RegistrationRepo provides data access to the registrations table.
// Creating a registration is a single conditional INSERT that only
// fires while the event still has room and the attendee is not yet
// registered, so capacity can never be overrun by concurrent signups.
// A UNIQUE key on (event_id, attendee_id) backs the uniqueness rule
// at the schema level as well.
type RegistrationRepo struct{ DB *sql.DB }

// NewRegistrationRepo returns a new RegistrationRepo bound to the given database.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{DB: db} }

const registrationColumns = "id, event_id, attendee_id, registered_at"

func scanRegistration(row interface{ Scan(...any) error }) (model.Registration, error) {
	var reg model.Registration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.AttendeeID, &reg.RegisteredAt)
	return reg, err
}

// Create inserts a registration provided the event exists, has spare
// capacity and the attendee is not already registered. The INSERT ...
// SELECT form makes the capacity check and the insert one atomic
// statement. When nothing is inserted, a follow-up read decides which
// sentinel to return: ErrNotFound, ErrDuplicateRegistration or
// ErrEventFull.
func (r *RegistrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO registrations (event_id, attendee_id, registered_at)
		 SELECT e.id, ?, ?
		 FROM events e
		 WHERE e.id = ?
		   AND (SELECT COUNT(*) FROM registrations x WHERE x.event_id = e.id) < e.max_participants
		   AND NOT EXISTS (SELECT 1 FROM registrations d WHERE d.event_id = e.id AND d.attendee_id = ?)`,
		reg.AttendeeID, reg.RegisteredAt, reg.EventID, reg.AttendeeID)
	if err != nil {
		// Two racing inserts can both pass the NOT EXISTS check; the
		// UNIQUE key catches the loser (MySQL error 1062).
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicateRegistration
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		reg.ID = uint64(id)
		return nil
	}
	// Nothing inserted: figure out why.
	var max, count uint32
	err = r.DB.QueryRowContext(ctx,
		"SELECT e.max_participants, (SELECT COUNT(*) FROM registrations x WHERE x.event_id = e.id) FROM events e WHERE e.id=?",
		reg.EventID).Scan(&max, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	var dup int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registrations WHERE event_id=? AND attendee_id=?",
		reg.EventID, reg.AttendeeID).Scan(&dup); err != nil {
		return err
	}
	if dup > 0 {
		return ErrDuplicateRegistration
	}
	return ErrEventFull
}

// GetByID fetches a registration by id. Returns ErrNotFound when absent.
func (r *RegistrationRepo) GetByID(ctx context.Context, id uint64) (model.Registration, error) {
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM registrations WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Registration{}, ErrNotFound
	}
	return reg, err
}

// Delete removes a registration by id. Returns ErrNotFound when the
// row is already gone.
func (r *RegistrationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM registrations WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByEvent returns all registrations for an event, oldest first.
func (r *RegistrationRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Registration, error) {
	return r.list(ctx, "SELECT "+registrationColumns+" FROM registrations WHERE event_id=? ORDER BY registered_at", eventID)
}

// ListByAttendee returns all registrations held by an account.
func (r *RegistrationRepo) ListByAttendee(ctx context.Context, attendeeID uint64) ([]model.Registration, error) {
	return r.list(ctx, "SELECT "+registrationColumns+" FROM registrations WHERE attendee_id=? ORDER BY registered_at DESC", attendeeID)
}

// CountByEvent returns the current number of registrations for an
// event. The count is always derived from rows, never cached.
func (r *RegistrationRepo) CountByEvent(ctx context.Context, eventID uint64) (uint32, error) {
	var n uint32
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registrations WHERE event_id=?", eventID).Scan(&n)
	return n, err
}

func (r *RegistrationRepo) list(ctx context.Context, query string, args ...any) ([]model.Registration, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	regs := make([]model.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
