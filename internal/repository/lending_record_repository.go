package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/boardgameshare/server/internal/model"
)

// LendingRecordRepo provides data access to the lending_records
// table. Records are never deleted; every status transition is a
// conditional update restricted to the set of states the transition
// is legal from, so concurrent writers cannot both succeed.
type LendingRecordRepo struct{ DB *sql.DB }

// NewLendingRecordRepo returns a new LendingRecordRepo bound to the given database.
func NewLendingRecordRepo(db *sql.DB) *LendingRecordRepo { return &LendingRecordRepo{DB: db} }

const lendingColumns = "id, borrow_request_id, borrower_id, owner_id, game_id, start_date, end_date, status, damaged, damage_notes, closed_at, created_at, updated_at"

func scanLendingRecord(row interface{ Scan(...any) error }) (model.LendingRecord, error) {
	var (
		l        model.LendingRecord
		notes    sql.NullString
		closedAt sql.NullTime
	)
	err := row.Scan(&l.ID, &l.BorrowRequestID, &l.BorrowerID, &l.OwnerID, &l.GameID,
		&l.StartDate, &l.EndDate, &l.Status, &l.Damaged, &notes, &closedAt,
		&l.CreatedAt, &l.UpdatedAt)
	if notes.Valid {
		l.DamageNotes = notes.String
	}
	if closedAt.Valid {
		t := closedAt.Time
		l.ClosedAt = &t
	}
	return l, err
}

// GetByID fetches a record by id. Returns ErrNotFound when absent.
func (r *LendingRecordRepo) GetByID(ctx context.Context, id uint64) (model.LendingRecord, error) {
	l, err := scanLendingRecord(r.DB.QueryRowContext(ctx,
		"SELECT "+lendingColumns+" FROM lending_records WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.LendingRecord{}, ErrNotFound
	}
	return l, err
}

// TransitionStatus moves a record into `to` provided its current
// status is one of `from`. Zero matched rows is resolved to
// ErrNotFound when the record is missing, ErrConflict otherwise.
func (r *LendingRecordRepo) TransitionStatus(ctx context.Context, id uint64, from []string, to string) error {
	args := make([]any, 0, len(from)+2)
	args = append(args, to, id)
	placeholders := make([]string, len(from))
	for i, s := range from {
		placeholders[i] = "?"
		args = append(args, s)
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE lending_records SET status=? WHERE id=? AND status IN ("+strings.Join(placeholders, ",")+")",
		args...)
	if err != nil {
		return err
	}
	return r.casOutcome(ctx, res, id)
}

// Close finalizes a record: status becomes CLOSED, the damage
// assessment and close timestamp are written in the same conditional
// update. Like TransitionStatus, the write only matches while the
// record is still in one of the `from` states, so a second close
// attempt observes ErrConflict.
func (r *LendingRecordRepo) Close(ctx context.Context, id uint64, from []string, damaged bool, notes string, closedAt time.Time) error {
	args := make([]any, 0, len(from)+4)
	args = append(args, damaged, notes, closedAt, id)
	placeholders := make([]string, len(from))
	for i, s := range from {
		placeholders[i] = "?"
		args = append(args, s)
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE lending_records SET status='CLOSED', damaged=?, damage_notes=?, closed_at=? WHERE id=? AND status IN ("+strings.Join(placeholders, ",")+")",
		args...)
	if err != nil {
		return err
	}
	return r.casOutcome(ctx, res, id)
}

// LendingFilter narrows a List call. Zero values mean "no constraint";
// all provided filters are AND-ed together. The date range is
// inclusive and matches records whose loan period overlaps it.
type LendingFilter struct {
	Status     string
	OwnerID    uint64
	BorrowerID uint64
	FromDate   *time.Time
	ToDate     *time.Time
}

// List returns records matching the filter, newest first, limited to
// the requested page, along with the total number of matching rows.
func (r *LendingRecordRepo) List(ctx context.Context, f LendingFilter, page, size int) ([]model.LendingRecord, int, error) {
	where := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, f.Status)
	}
	if f.OwnerID != 0 {
		where = append(where, "owner_id=?")
		args = append(args, f.OwnerID)
	}
	if f.BorrowerID != 0 {
		where = append(where, "borrower_id=?")
		args = append(args, f.BorrowerID)
	}
	if f.FromDate != nil {
		where = append(where, "end_date>=?")
		args = append(args, *f.FromDate)
	}
	if f.ToDate != nil {
		where = append(where, "start_date<=?")
		args = append(args, *f.ToDate)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM lending_records"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size
	listArgs := append(append([]any{}, args...), size, offset)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+lendingColumns+" FROM lending_records"+clause+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	records := make([]model.LendingRecord, 0)
	for rows.Next() {
		l, err := scanLendingRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, l)
	}
	return records, total, rows.Err()
}

// ListOverdue returns all records that are overdue at the given
// instant. Overdue is recomputed from the stored end dates on every
// call rather than read from a cached flag, so the answer tracks
// whatever reference time the caller supplies.
func (r *LendingRecordRepo) ListOverdue(ctx context.Context, now time.Time) ([]model.LendingRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+lendingColumns+" FROM lending_records WHERE status=? AND end_date<? ORDER BY end_date",
		model.LendingActive, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make([]model.LendingRecord, 0)
	for rows.Next() {
		l, err := scanLendingRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, l)
	}
	return records, rows.Err()
}

// GetByBorrowRequest returns the record created from the given borrow
// request, if any. At most one exists because approval and record
// creation share one transaction.
func (r *LendingRecordRepo) GetByBorrowRequest(ctx context.Context, requestID uint64) (model.LendingRecord, error) {
	l, err := scanLendingRecord(r.DB.QueryRowContext(ctx,
		"SELECT "+lendingColumns+" FROM lending_records WHERE borrow_request_id=? LIMIT 1", requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.LendingRecord{}, ErrNotFound
	}
	return l, err
}

func (r *LendingRecordRepo) casOutcome(ctx context.Context, res sql.Result, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var status string
	err = r.DB.QueryRowContext(ctx, "SELECT status FROM lending_records WHERE id=?", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}
