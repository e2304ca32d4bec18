package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/boardgameshare/server/internal/model"
	"github.com/boardgameshare/server/internal/queue"
)

// BorrowRequestService governs the life of a borrow request: a member
// proposes a date range for a game, the game's owner approves or
// declines, and an approved request is consumed exactly once to open
// a lending record. Approval and record creation share a single
// conditional store operation, so two concurrent approvals cannot
// both succeed.
type BorrowRequestService struct {
	requests  BorrowRequestStore
	catalog   Catalog
	directory AccountDirectory
	clock     Clock
	publisher Publisher // optional; best-effort notifications
}

// NewBorrowRequestService wires a BorrowRequestService. publisher may
// be nil to disable notifications.
func NewBorrowRequestService(requests BorrowRequestStore, catalog Catalog, directory AccountDirectory, clock Clock, publisher Publisher) *BorrowRequestService {
	if requests == nil || catalog == nil || directory == nil || clock == nil {
		panic("nil dependency passed to NewBorrowRequestService")
	}
	return &BorrowRequestService{
		requests:  requests,
		catalog:   catalog,
		directory: directory,
		clock:     clock,
		publisher: publisher,
	}
}

// Create validates and stores a new PENDING borrow request. The date
// range must be well-formed and both the requester and the game must
// resolve; otherwise the request is rejected with ErrValidation.
func (s *BorrowRequestService) Create(ctx context.Context, requesterID, gameID uint64, startDate, endDate time.Time) (model.BorrowRequest, error) {
	if startDate.IsZero() || endDate.IsZero() {
		return model.BorrowRequest{}, fmt.Errorf("%w: start and end dates are required", ErrValidation)
	}
	if endDate.Before(startDate) {
		return model.BorrowRequest{}, fmt.Errorf("%w: end date before start date", ErrValidation)
	}
	if _, err := s.directory.ResolveAccount(ctx, requesterID); err != nil {
		if e := storeErr(err); e == ErrNotFound {
			return model.BorrowRequest{}, fmt.Errorf("%w: unknown requester", ErrValidation)
		} else {
			return model.BorrowRequest{}, e
		}
	}
	game, err := s.catalog.ResolveGame(ctx, gameID)
	if err != nil {
		if e := storeErr(err); e == ErrNotFound {
			return model.BorrowRequest{}, fmt.Errorf("%w: unknown game", ErrValidation)
		} else {
			return model.BorrowRequest{}, e
		}
	}
	if game.OwnerAccountID == requesterID {
		return model.BorrowRequest{}, fmt.Errorf("%w: cannot borrow your own game", ErrValidation)
	}
	br := model.BorrowRequest{
		RequesterID: requesterID,
		GameID:      gameID,
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      model.BorrowRequestPending,
		RequestedAt: s.clock.Now(),
	}
	if err := s.requests.Create(ctx, &br); err != nil {
		return model.BorrowRequest{}, storeErr(err)
	}
	return br, nil
}

// Approve transitions a PENDING request to APPROVED and opens the
// lending record born from it. Only the game's owner may approve; a
// request that is no longer PENDING yields ErrConflict. The store
// performs the status flip and the record insert in one transaction,
// so the request is consumed at most once.
func (s *BorrowRequestService) Approve(ctx context.Context, id uint64, principal model.Account) (model.LendingRecord, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return model.LendingRecord{}, storeErr(err)
	}
	game, err := s.catalog.ResolveGame(ctx, req.GameID)
	if err != nil {
		return model.LendingRecord{}, storeErr(err)
	}
	if !CanTransition(principal, Target{OwnerID: game.OwnerAccountID, PartyID: req.RequesterID}, ActionApproveRequest) {
		return model.LendingRecord{}, fmt.Errorf("%w: only the game owner may approve", ErrForbidden)
	}
	rec := model.LendingRecord{
		BorrowRequestID: req.ID,
		BorrowerID:      req.RequesterID,
		OwnerID:         game.OwnerAccountID,
		GameID:          req.GameID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Status:          model.LendingActive,
	}
	if err := s.requests.ApproveAndCreateRecord(ctx, id, &rec); err != nil {
		if e := storeErr(err); e == ErrConflict {
			return model.LendingRecord{}, fmt.Errorf("%w: request is not pending", ErrConflict)
		} else {
			return model.LendingRecord{}, e
		}
	}
	s.notify(ctx, queue.LoanApprovedKey, queue.LoanApprovedEvent{
		LendingRecordID: rec.ID,
		BorrowRequestID: req.ID,
		BorrowerID:      req.RequesterID,
		OwnerID:         game.OwnerAccountID,
		GameID:          req.GameID,
		StartDate:       req.StartDate.Format(time.RFC3339),
		EndDate:         req.EndDate.Format(time.RFC3339),
	})
	return rec, nil
}

// Decline transitions a PENDING request to DECLINED. Authorization
// mirrors Approve; no lending record is created.
func (s *BorrowRequestService) Decline(ctx context.Context, id uint64, principal model.Account) (model.BorrowRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return model.BorrowRequest{}, storeErr(err)
	}
	game, err := s.catalog.ResolveGame(ctx, req.GameID)
	if err != nil {
		return model.BorrowRequest{}, storeErr(err)
	}
	if !CanTransition(principal, Target{OwnerID: game.OwnerAccountID, PartyID: req.RequesterID}, ActionDeclineRequest) {
		return model.BorrowRequest{}, fmt.Errorf("%w: only the game owner may decline", ErrForbidden)
	}
	if err := s.requests.Decline(ctx, id); err != nil {
		if e := storeErr(err); e == ErrConflict {
			return model.BorrowRequest{}, fmt.Errorf("%w: request is not pending", ErrConflict)
		} else {
			return model.BorrowRequest{}, e
		}
	}
	req.Status = model.BorrowRequestDeclined
	return req, nil
}

// Delete withdraws a request. Only the original requester may delete,
// and only while the request is still PENDING.
func (s *BorrowRequestService) Delete(ctx context.Context, id uint64, principal model.Account) error {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return storeErr(err)
	}
	if !CanTransition(principal, Target{PartyID: req.RequesterID}, ActionDeleteRequest) {
		return fmt.Errorf("%w: only the requester may withdraw", ErrForbidden)
	}
	if err := s.requests.DeleteIfPending(ctx, id); err != nil {
		if e := storeErr(err); e == ErrConflict {
			return fmt.Errorf("%w: request already decided", ErrConflict)
		} else {
			return e
		}
	}
	return nil
}

// FindByID returns a single request.
func (s *BorrowRequestService) FindByID(ctx context.Context, id uint64) (model.BorrowRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return model.BorrowRequest{}, storeErr(err)
	}
	return req, nil
}

// FindByRequester returns all requests created by an account.
func (s *BorrowRequestService) FindByRequester(ctx context.Context, requesterID uint64) ([]model.BorrowRequest, error) {
	out, err := s.requests.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// FindByStatus returns all requests in the given status.
func (s *BorrowRequestService) FindByStatus(ctx context.Context, status string) ([]model.BorrowRequest, error) {
	switch status {
	case model.BorrowRequestPending, model.BorrowRequestApproved, model.BorrowRequestDeclined:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	out, err := s.requests.ListByStatus(ctx, status)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// FindForOwner returns all requests targeting games the account owns.
func (s *BorrowRequestService) FindForOwner(ctx context.Context, ownerID uint64) ([]model.BorrowRequest, error) {
	out, err := s.requests.ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// notify publishes best-effort. A failed publish is logged and
// dropped; the committed transition stands.
func (s *BorrowRequestService) notify(ctx context.Context, key string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		log.Printf("borrow-request: publish %s failed: %v", key, err)
	}
}
