package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/boardgameshare/server/internal/model"
	"github.com/boardgameshare/server/internal/queue"
	"github.com/boardgameshare/server/internal/repository"
)

// LendingService tracks a loan from hand-over to confirmed return.
// Stored states are ACTIVE, RETURN_PENDING, DISPUTED and CLOSED;
// OVERDUE is computed on read from the end date and the injected
// clock. Every transition is a conditional store write, so two racing
// callers resolve to exactly one winner and one ErrConflict.
type LendingService struct {
	records   LendingRecordStore
	clock     Clock
	publisher Publisher // optional; best-effort notifications
}

// NewLendingService wires a LendingService. publisher may be nil to
// disable notifications.
func NewLendingService(records LendingRecordStore, clock Clock, publisher Publisher) *LendingService {
	if records == nil || clock == nil {
		panic("nil dependency passed to NewLendingService")
	}
	return &LendingService{records: records, clock: clock, publisher: publisher}
}

// Page is one page of filtered lending records plus the bookkeeping
// callers need to iterate: total matching items, total pages, and the
// page/size actually used.
type Page struct {
	Items      []model.LendingRecord
	TotalItems int
	TotalPages int
	Page       int
	PageSize   int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Get returns a single record.
func (s *LendingService) Get(ctx context.Context, id uint64) (model.LendingRecord, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return model.LendingRecord{}, storeErr(err)
	}
	return rec, nil
}

// MarkReturned lets the borrower declare the game handed back,
// moving the record from ACTIVE to RETURN_PENDING to await the
// owner's confirmation.
func (s *LendingService) MarkReturned(ctx context.Context, id uint64, principal model.Account) (model.LendingRecord, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return model.LendingRecord{}, storeErr(err)
	}
	if !CanTransition(principal, Target{OwnerID: rec.OwnerID, PartyID: rec.BorrowerID}, ActionMarkReturned) {
		return model.LendingRecord{}, fmt.Errorf("%w: only the borrower may mark the game returned", ErrForbidden)
	}
	err = s.records.TransitionStatus(ctx, id, []string{model.LendingActive}, model.LendingReturnPending)
	if err != nil {
		if e := storeErr(err); e == ErrConflict {
			return model.LendingRecord{}, s.transitionConflict(ctx, id)
		} else {
			return model.LendingRecord{}, e
		}
	}
	rec.Status = model.LendingReturnPending
	return rec, nil
}

// Dispute lets either party contest a return, moving the record from
// ACTIVE or RETURN_PENDING to DISPUTED. A closed record cannot be
// disputed.
func (s *LendingService) Dispute(ctx context.Context, id uint64, principal model.Account) (model.LendingRecord, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return model.LendingRecord{}, storeErr(err)
	}
	if !CanTransition(principal, Target{OwnerID: rec.OwnerID, PartyID: rec.BorrowerID}, ActionDisputeReturn) {
		return model.LendingRecord{}, fmt.Errorf("%w: only the owner or borrower may dispute", ErrForbidden)
	}
	err = s.records.TransitionStatus(ctx, id,
		[]string{model.LendingActive, model.LendingReturnPending}, model.LendingDisputed)
	if err != nil {
		if e := storeErr(err); e == ErrConflict {
			return model.LendingRecord{}, s.transitionConflict(ctx, id)
		} else {
			return model.LendingRecord{}, e
		}
	}
	rec.Status = model.LendingDisputed
	return rec, nil
}

// Close finalizes the loan: the owner confirms the return, optionally
// recording damage, and the record becomes CLOSED with the close
// timestamp taken from the clock. CLOSED is terminal; a second close
// attempt fails with ErrConflict rather than silently succeeding, so
// double confirmations surface to the caller.
func (s *LendingService) Close(ctx context.Context, id uint64, principal model.Account, damaged bool, damageNotes string) (model.LendingRecord, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return model.LendingRecord{}, storeErr(err)
	}
	if !CanTransition(principal, Target{OwnerID: rec.OwnerID, PartyID: rec.BorrowerID}, ActionCloseRecord) {
		return model.LendingRecord{}, fmt.Errorf("%w: only the owner may close the loan", ErrForbidden)
	}
	closedAt := s.clock.Now()
	err = s.records.Close(ctx, id,
		[]string{model.LendingActive, model.LendingReturnPending, model.LendingDisputed},
		damaged, damageNotes, closedAt)
	if err != nil {
		if e := storeErr(err); e == ErrConflict {
			// The from-set covers every non-terminal state, so a
			// conflict here can only mean CLOSED.
			return model.LendingRecord{}, fmt.Errorf("%w: already closed", ErrConflict)
		} else {
			return model.LendingRecord{}, e
		}
	}
	rec.Status = model.LendingClosed
	rec.Damaged = damaged
	rec.DamageNotes = damageNotes
	rec.ClosedAt = &closedAt
	s.notify(ctx, queue.LoanClosedKey, queue.LoanClosedEvent{
		LendingRecordID: rec.ID,
		BorrowerID:      rec.BorrowerID,
		OwnerID:         rec.OwnerID,
		GameID:          rec.GameID,
		Damaged:         damaged,
		ClosedAt:        closedAt.Format(time.RFC3339),
	})
	return rec, nil
}

// Overdue enumerates all records overdue right now. The set is
// recomputed from stored end dates against the clock on every call;
// no overdue flag is persisted anywhere.
func (s *LendingService) Overdue(ctx context.Context) ([]model.LendingRecord, error) {
	out, err := s.records.ListOverdue(ctx, s.clock.Now())
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// List returns a page of records matching the filter. All provided
// filter fields are AND-ed. The derived OVERDUE status is accepted as
// a status filter and resolved against the clock.
func (s *LendingService) List(ctx context.Context, f repository.LendingFilter, page, size int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	switch f.Status {
	case "", model.LendingActive, model.LendingReturnPending, model.LendingDisputed, model.LendingClosed:
	case model.LendingStatusOverdue:
		return s.listOverduePage(ctx, f, page, size)
	default:
		return Page{}, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	items, total, err := s.records.List(ctx, f, page, size)
	if err != nil {
		return Page{}, storeErr(err)
	}
	return newPage(items, total, page, size), nil
}

// listOverduePage answers a filter on the derived OVERDUE status. The
// store cannot index a status that is never written, so the overdue
// set is fetched as of now and the remaining filters plus pagination
// are applied to it.
func (s *LendingService) listOverduePage(ctx context.Context, f repository.LendingFilter, page, size int) (Page, error) {
	all, err := s.records.ListOverdue(ctx, s.clock.Now())
	if err != nil {
		return Page{}, storeErr(err)
	}
	matched := make([]model.LendingRecord, 0, len(all))
	for _, rec := range all {
		if f.OwnerID != 0 && rec.OwnerID != f.OwnerID {
			continue
		}
		if f.BorrowerID != 0 && rec.BorrowerID != f.BorrowerID {
			continue
		}
		if f.FromDate != nil && rec.EndDate.Before(*f.FromDate) {
			continue
		}
		if f.ToDate != nil && rec.StartDate.After(*f.ToDate) {
			continue
		}
		matched = append(matched, rec)
	}
	total := len(matched)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return newPage(matched[start:end], total, page, size), nil
}

func newPage(items []model.LendingRecord, total, page, size int) Page {
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	return Page{Items: items, TotalItems: total, TotalPages: pages, Page: page, PageSize: size}
}

// transitionConflict rereads the record to report which state blocked
// the transition.
func (s *LendingService) transitionConflict(ctx context.Context, id uint64) error {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return storeErr(err)
	}
	switch rec.Status {
	case model.LendingClosed:
		return fmt.Errorf("%w: already closed", ErrConflict)
	case model.LendingDisputed:
		return fmt.Errorf("%w: already disputed", ErrConflict)
	default:
		return fmt.Errorf("%w: record is %s", ErrConflict, rec.Status)
	}
}

func (s *LendingService) notify(ctx context.Context, key string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		log.Printf("lending: publish %s failed: %v", key, err)
	}
}
