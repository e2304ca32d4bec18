package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/boardgameshare/server/internal/model"
)

// BorrowRequestRepo provides data access to the borrow_requests table.
// Status transitions are implemented as conditional updates so that
// two concurrent decisions on the same request cannot both succeed:
// the UPDATE only matches while the row is still PENDING, and a zero
// RowsAffected count is reported as ErrConflict.
type BorrowRequestRepo struct{ DB *sql.DB }

// NewBorrowRequestRepo returns a new BorrowRequestRepo bound to the given database.
func NewBorrowRequestRepo(db *sql.DB) *BorrowRequestRepo { return &BorrowRequestRepo{DB: db} }

const borrowRequestColumns = "id, requester_id, game_id, start_date, end_date, status, requested_at, updated_at"

func scanBorrowRequest(row interface{ Scan(...any) error }) (model.BorrowRequest, error) {
	var br model.BorrowRequest
	err := row.Scan(&br.ID, &br.RequesterID, &br.GameID, &br.StartDate, &br.EndDate,
		&br.Status, &br.RequestedAt, &br.UpdatedAt)
	return br, err
}

// Create inserts a new PENDING request and populates the generated ID
// and requested_at timestamp on the provided record.
func (r *BorrowRequestRepo) Create(ctx context.Context, br *model.BorrowRequest) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO borrow_requests (requester_id, game_id, start_date, end_date, status, requested_at) VALUES (?,?,?,?,?,?)",
		br.RequesterID, br.GameID, br.StartDate, br.EndDate, br.Status, br.RequestedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	br.ID = uint64(id)
	return nil
}

// GetByID fetches a request by id. Returns ErrNotFound when absent.
func (r *BorrowRequestRepo) GetByID(ctx context.Context, id uint64) (model.BorrowRequest, error) {
	br, err := scanBorrowRequest(r.DB.QueryRowContext(ctx,
		"SELECT "+borrowRequestColumns+" FROM borrow_requests WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.BorrowRequest{}, ErrNotFound
	}
	return br, err
}

// ListByRequester returns all requests created by the given account,
// newest first.
func (r *BorrowRequestRepo) ListByRequester(ctx context.Context, requesterID uint64) ([]model.BorrowRequest, error) {
	return r.list(ctx, "SELECT "+borrowRequestColumns+" FROM borrow_requests WHERE requester_id=? ORDER BY requested_at DESC", requesterID)
}

// ListByStatus returns all requests in the given status, newest first.
func (r *BorrowRequestRepo) ListByStatus(ctx context.Context, status string) ([]model.BorrowRequest, error) {
	return r.list(ctx, "SELECT "+borrowRequestColumns+" FROM borrow_requests WHERE status=? ORDER BY requested_at DESC", status)
}

// ListForOwner returns all requests targeting games owned by the
// given account, newest first. Owners use this to review what is
// waiting for a decision.
func (r *BorrowRequestRepo) ListForOwner(ctx context.Context, ownerID uint64) ([]model.BorrowRequest, error) {
	return r.list(ctx,
		`SELECT br.id, br.requester_id, br.game_id, br.start_date, br.end_date, br.status, br.requested_at, br.updated_at
		 FROM borrow_requests br
		 JOIN games g ON g.id = br.game_id
		 WHERE g.owner_account_id = ?
		 ORDER BY br.requested_at DESC`, ownerID)
}

func (r *BorrowRequestRepo) list(ctx context.Context, query string, args ...any) ([]model.BorrowRequest, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BorrowRequest, 0)
	for rows.Next() {
		br, err := scanBorrowRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

// Decline moves a request from PENDING to DECLINED. The transition is
// a compare-and-set on the status column: when the request is no
// longer PENDING the update matches nothing and ErrConflict is
// returned; a missing row is reported as ErrNotFound.
func (r *BorrowRequestRepo) Decline(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE borrow_requests SET status=? WHERE id=? AND status=?",
		model.BorrowRequestDeclined, id, model.BorrowRequestPending)
	if err != nil {
		return err
	}
	return r.casOutcome(ctx, res, id)
}

// ApproveAndCreateRecord moves a request from PENDING to APPROVED and
// inserts the lending record born from it, all inside one
// transaction. The compare-and-set on the status column guarantees
// the request is consumed exactly once: a concurrent approval loses
// the race, matches zero rows and observes ErrConflict. The generated
// record ID is populated on rec.
func (r *BorrowRequestRepo) ApproveAndCreateRecord(ctx context.Context, id uint64, rec *model.LendingRecord) error {
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
	res, err := tx.ExecContext(ctx,
		"UPDATE borrow_requests SET status=? WHERE id=? AND status=?",
		model.BorrowRequestApproved, id, model.BorrowRequestPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a vanished row from a lost race.
		var status string
		err := tx.QueryRowContext(ctx, "SELECT status FROM borrow_requests WHERE id=?", id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrConflict
	}
	ins, err := tx.ExecContext(ctx,
		"INSERT INTO lending_records (borrow_request_id, borrower_id, owner_id, game_id, start_date, end_date, status) VALUES (?,?,?,?,?,?,?)",
		rec.BorrowRequestID, rec.BorrowerID, rec.OwnerID, rec.GameID, rec.StartDate, rec.EndDate, rec.Status)
	if err != nil {
		return err
	}
	recID, err := ins.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(recID)
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DeleteIfPending removes a request while it is still PENDING.
// Decided requests are immutable; attempting to delete one returns
// ErrConflict.
func (r *BorrowRequestRepo) DeleteIfPending(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM borrow_requests WHERE id=? AND status=?",
		id, model.BorrowRequestPending)
	if err != nil {
		return err
	}
	return r.casOutcome(ctx, res, id)
}

// casOutcome interprets the result of a conditional write: zero
// affected rows means either the row is gone (ErrNotFound) or it was
// not in the expected state (ErrConflict).
func (r *BorrowRequestRepo) casOutcome(ctx context.Context, res sql.Result, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var status string
	err = r.DB.QueryRowContext(ctx, "SELECT status FROM borrow_requests WHERE id=?", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}
