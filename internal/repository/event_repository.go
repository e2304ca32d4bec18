package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/boardgameshare/server/internal/model"
)

// EventRepo provides CRUD operations for the events table. Capacity
// changes are guarded by re-checking the registration count inside a
// transaction so that max_participants can never drop below the
// number of people already registered.
type EventRepo struct{ DB *sql.DB }

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

const eventColumns = "id, host_id, featured_game_id, title, description, location, starts_at, max_participants, created_at, updated_at"

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.HostID, &e.FeaturedGameID, &e.Title, &e.Description,
		&e.Location, &e.StartsAt, &e.MaxParticipants, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// Create inserts an event and populates the generated ID.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO events (host_id, featured_game_id, title, description, location, starts_at, max_participants) VALUES (?,?,?,?,?,?,?)",
		e.HostID, e.FeaturedGameID, e.Title, e.Description, e.Location, e.StartsAt, e.MaxParticipants)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByID fetches an event by id. Returns ErrNotFound when absent.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	e, err := scanEvent(r.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	return e, err
}

// List returns all upcoming events ordered by start time.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events ORDER BY starts_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update rewrites an event's fields inside a transaction that
// re-checks the registration count immediately before commit. A
// max_participants value below the current registrant count returns
// ErrConflict so the invariant registeredCount <= maxParticipants
// survives concurrent registrations.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var registered uint32
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registrations WHERE event_id=? FOR UPDATE", e.ID).Scan(&registered)
	if err != nil {
		return err
	}
	if e.MaxParticipants < registered {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE events SET title=?, description=?, location=?, starts_at=?, max_participants=?, featured_game_id=? WHERE id=?",
		e.Title, e.Description, e.Location, e.StartsAt, e.MaxParticipants, e.FeaturedGameID, e.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	_ = n // zero is fine: the row may be identical
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes an event and, via FK cascade, its registrations.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM events WHERE id=?", id)
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
