package model

import "time"

// Lending record statuses stored in lending_records.status.
//
// ACTIVE         – the loan is running; the borrower has the game.
// RETURN_PENDING – the borrower marked the game as returned and the
//                  owner has not yet confirmed.
// DISPUTED       – one of the parties contests the return or the
//                  condition of the game.
// CLOSED         – the owner confirmed the return; terminal.
//
// OVERDUE is deliberately not a stored status. A record reads as
// overdue whenever it is still ACTIVE and its end date lies before
// the current time; see LendingRecord.IsOverdue.
const (
	LendingActive        = "ACTIVE"
	LendingReturnPending = "RETURN_PENDING"
	LendingDisputed      = "DISPUTED"
	LendingClosed        = "CLOSED"
)

// LendingStatusOverdue is the derived status label reported to
// clients for ACTIVE records whose end date has passed. It never
// appears in the database.
const LendingStatusOverdue = "OVERDUE"

// LendingRecord tracks an active loan from hand-over to confirmed
// return, as stored in the `lending_records` table. A record is
// created exactly once from an approved borrow request and is never
// deleted; closing is the terminal state.
//
// Fields:
//  ID              – primary key identifier.
//  BorrowRequestID – originating borrow request (read-only reference).
//  BorrowerID      – account that borrowed the game.
//  OwnerID         – account that owns the lent game.
//  GameID          – game on loan.
//  StartDate       – first day of the loan.
//  EndDate         – last day of the loan (>= StartDate).
//  Status          – stored state (ACTIVE, RETURN_PENDING, DISPUTED, CLOSED).
//  Damaged         – whether the game came back damaged; set at close only.
//  DamageNotes     – owner's notes on the damage; set at close only.
//  ClosedAt        – when the owner confirmed the return (null until closed).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type LendingRecord struct {
	ID              uint64     `json:"id"`                // lending_records.id
	BorrowRequestID uint64     `json:"borrow_request_id"` // lending_records.borrow_request_id
	BorrowerID      uint64     `json:"borrower_id"`       // lending_records.borrower_id
	OwnerID         uint64     `json:"owner_id"`          // lending_records.owner_id
	GameID          uint64     `json:"game_id"`           // lending_records.game_id
	StartDate       time.Time  `json:"start_date"`        // lending_records.start_date
	EndDate         time.Time  `json:"end_date"`          // lending_records.end_date
	Status          string     `json:"status"`            // lending_records.status
	Damaged         bool       `json:"damaged"`           // lending_records.damaged
	DamageNotes     string     `json:"damage_notes"`      // lending_records.damage_notes
	ClosedAt        *time.Time `json:"closed_at"`         // lending_records.closed_at (nullable)
	CreatedAt       time.Time  `json:"created_at"`        // lending_records.created_at
	UpdatedAt       time.Time  `json:"updated_at"`        // lending_records.updated_at
}

// IsOverdue reports whether the record is overdue at the given
// instant. The classification is a pure function of the stored status
// and end date; no flag is persisted, so it stays correct however the
// reference time is chosen.
func (l LendingRecord) IsOverdue(now time.Time) bool {
	return l.Status == LendingActive && l.EndDate.Before(now)
}

// EffectiveStatus returns the status label clients should see at the
// given instant: the stored status, except that overdue ACTIVE
// records read as OVERDUE.
func (l LendingRecord) EffectiveStatus(now time.Time) string {
	if l.IsOverdue(now) {
		return LendingStatusOverdue
	}
	return l.Status
}
