package model

import "time"

// Borrow request statuses stored in borrow_requests.status. A request
// starts PENDING and moves exactly once to APPROVED or DECLINED; both
// are terminal. There is no path back to PENDING.
const (
	BorrowRequestPending  = "PENDING"
	BorrowRequestApproved = "APPROVED"
	BorrowRequestDeclined = "DECLINED"
)

// BorrowRequest records a member's proposal to borrow a game for a
// date range, as stored in the `borrow_requests` table. The game's
// owner decides the outcome; the requester may withdraw the request
// while it is still PENDING.
//
// Fields:
//  ID          – primary key identifier.
//  RequesterID – account asking to borrow the game.
//  GameID      – game being requested.
//  StartDate   – first day of the proposed loan.
//  EndDate     – last day of the proposed loan (>= StartDate).
//  Status      – state of the request (PENDING, APPROVED, DECLINED).
//  RequestedAt – when the request was created.
//  UpdatedAt   – last update timestamp.
type BorrowRequest struct {
	ID          uint64    `json:"id"`           // borrow_requests.id
	RequesterID uint64    `json:"requester_id"` // borrow_requests.requester_id
	GameID      uint64    `json:"game_id"`      // borrow_requests.game_id
	StartDate   time.Time `json:"start_date"`   // borrow_requests.start_date
	EndDate     time.Time `json:"end_date"`     // borrow_requests.end_date
	Status      string    `json:"status"`       // borrow_requests.status
	RequestedAt time.Time `json:"requested_at"` // borrow_requests.requested_at
	UpdatedAt   time.Time `json:"updated_at"`   // borrow_requests.updated_at
}
