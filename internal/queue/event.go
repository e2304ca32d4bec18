// Package queue defines message payloads exchanged over the message
// broker, a publisher for emitting them and the background consumer
// that turns them into notification log lines. All notifications are
// best-effort: a failed publish never fails the operation that
// triggered it.
package queue

// Routing keys double as durable queue names on the default exchange.
const (
	LoanApprovedKey    = "loan.approved"
	LoanClosedKey      = "loan.closed"
	EventRegisteredKey = "event.registered"
)

// LoanApprovedEvent is published when a borrow request is approved
// and a lending record opens. It carries enough information for
// downstream consumers to notify both parties without querying the
// primary database.
type LoanApprovedEvent struct {
	LendingRecordID uint64 `json:"lending_record_id"`
	BorrowRequestID uint64 `json:"borrow_request_id"`
	BorrowerID      uint64 `json:"borrower_id"`
	OwnerID         uint64 `json:"owner_id"`
	GameID          uint64 `json:"game_id"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
}

// LoanClosedEvent is published when an owner confirms a return and
// the lending record closes.
type LoanClosedEvent struct {
	LendingRecordID uint64 `json:"lending_record_id"`
	BorrowerID      uint64 `json:"borrower_id"`
	OwnerID         uint64 `json:"owner_id"`
	GameID          uint64 `json:"game_id"`
	Damaged         bool   `json:"damaged"`
	ClosedAt        string `json:"closed_at"`
}

// EventRegisteredEvent is published when an account registers for an
// event.
type EventRegisteredEvent struct {
	RegistrationID uint64 `json:"registration_id"`
	EventID        uint64 `json:"event_id"`
	AttendeeID     uint64 `json:"attendee_id"`
	RegisteredAt   string `json:"registered_at"`
}
