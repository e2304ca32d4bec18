package service

import "github.com/boardgameshare/server/internal/model"

// Action names a status-changing operation subject to authorization.
type Action string

const (
	ActionApproveRequest     Action = "borrow_request.approve"
	ActionDeclineRequest     Action = "borrow_request.decline"
	ActionDeleteRequest      Action = "borrow_request.delete"
	ActionMarkReturned       Action = "lending.mark_returned"
	ActionDisputeReturn      Action = "lending.dispute"
	ActionCloseRecord        Action = "lending.close"
	ActionUpdateEvent        Action = "event.update"
	ActionDeleteEvent        Action = "event.delete"
	ActionDeleteRegistration Action = "registration.delete"
)

// Target is the ownership view of the resource an action touches.
// OwnerID is the account that owns the resource (game owner, event
// host); PartyID is the account on the other side of it (requester,
// borrower, attendee). Either may be zero when the action has no such
// side.
type Target struct {
	OwnerID uint64
	PartyID uint64
}

// CanTransition decides whether the principal may perform the action
// on the target. It is a pure function of the principal's identity
// and role flag and the target's ownership; all three engines consult
// it instead of comparing IDs inline.
//
// The rules:
//   - approve/decline a borrow request and close a loan belong to the
//     game's owner alone, and only game-owner accounts qualify;
//   - deleting a pending request, deleting a registration and marking
//     a game returned belong to the account that created them;
//   - a dispute may be raised by either party to the loan;
//   - updating or deleting an event belongs to its host.
func CanTransition(principal model.Account, target Target, action Action) bool {
	switch action {
	case ActionApproveRequest, ActionDeclineRequest, ActionCloseRecord:
		return principal.IsGameOwner() && principal.ID == target.OwnerID
	case ActionUpdateEvent, ActionDeleteEvent:
		return principal.ID == target.OwnerID
	case ActionDeleteRequest, ActionDeleteRegistration, ActionMarkReturned:
		return principal.ID == target.PartyID
	case ActionDisputeReturn:
		return principal.ID == target.OwnerID || principal.ID == target.PartyID
	}
	return false
}
