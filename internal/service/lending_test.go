package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardgameshare/server/internal/model"
	"github.com/boardgameshare/server/internal/queue"
	"github.com/boardgameshare/server/internal/repository"
)

type lendingFixture struct {
	store    *memStore
	svc      *LendingService
	pub      *capturePublisher
	clock    *FixedClock
	owner    model.Account
	borrower model.Account
}

func newLendingFixture(t *testing.T) *lendingFixture {
	t.Helper()
	store := newMemStore()
	owner := store.addAccount(model.Account{Email: "owner@example.com", Role: model.RoleGameOwner})
	borrower := store.addAccount(model.Account{Email: "borrower@example.com", Role: model.RoleUser})
	clock := &FixedClock{T: date(2025, time.March, 1)}
	pub := &capturePublisher{}
	svc := NewLendingService(memLendingStore{store}, clock, pub)
	return &lendingFixture{store: store, svc: svc, pub: pub, clock: clock, owner: owner, borrower: borrower}
}

func (fx *lendingFixture) record(status string, start, end time.Time) model.LendingRecord {
	return fx.store.addRecord(model.LendingRecord{
		BorrowerID: fx.borrower.ID,
		OwnerID:    fx.owner.ID,
		GameID:     77,
		StartDate:  start,
		EndDate:    end,
		Status:     status,
	})
}

func TestLendingMarkReturned(t *testing.T) {
	fx := newLendingFixture(t)
	ctx := context.Background()
	rec := fx.record(model.LendingActive, date(2025, time.February, 20), date(2025, time.March, 5))

	// Only the borrower may mark the game returned.
	_, err := fx.svc.MarkReturned(ctx, rec.ID, fx.owner)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := fx.svc.MarkReturned(ctx, rec.ID, fx.borrower)
	require.NoError(t, err)
	assert.Equal(t, model.LendingReturnPending, got.Status)

	// A second attempt hits RETURN_PENDING and conflicts.
	_, err = fx.svc.MarkReturned(ctx, rec.ID, fx.borrower)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLendingDispute(t *testing.T) {
	fx := newLendingFixture(t)
	ctx := context.Background()

	active := fx.record(model.LendingActive, date(2025, time.February, 20), date(2025, time.March, 5))
	pending := fx.record(model.LendingReturnPending, date(2025, time.February, 20), date(2025, time.March, 5))

	stranger := fx.store.addAccount(model.Account{Email: "third@example.com", Role: model.RoleUser})
	_, err := fx.svc.Dispute(ctx, active.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	// Either party may dispute, from ACTIVE or RETURN_PENDING.
	got, err := fx.svc.Dispute(ctx, active.ID, fx.owner)
	require.NoError(t, err)
	assert.Equal(t, model.LendingDisputed, got.Status)

	got, err = fx.svc.Dispute(ctx, pending.ID, fx.borrower)
	require.NoError(t, err)
	assert.Equal(t, model.LendingDisputed, got.Status)

	// A disputed record cannot be disputed again.
	_, err = fx.svc.Dispute(ctx, active.ID, fx.borrower)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorContains(t, err, "already disputed")
}

func TestLendingClose(t *testing.T) {
	fx := newLendingFixture(t)
	ctx := context.Background()
	rec := fx.record(model.LendingReturnPending, date(2025, time.February, 20), date(2025, time.March, 5))

	_, err := fx.svc.Close(ctx, rec.ID, fx.borrower, false, "")
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := fx.svc.Close(ctx, rec.ID, fx.owner, true, "torn box corner")
	require.NoError(t, err)
	assert.Equal(t, model.LendingClosed, got.Status)
	assert.True(t, got.Damaged)
	assert.Equal(t, "torn box corner", got.DamageNotes)
	require.NotNil(t, got.ClosedAt)
	assert.Equal(t, fx.clock.T, *got.ClosedAt)
	assert.Equal(t, []string{queue.LoanClosedKey}, fx.pub.keys)

	// CLOSED is terminal: a repeated close and every other transition
	// conflict, and the stored record keeps its first close.
	_, err = fx.svc.Close(ctx, rec.ID, fx.owner, false, "")
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorContains(t, err, "already closed")

	_, err = fx.svc.MarkReturned(ctx, rec.ID, fx.borrower)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = fx.svc.Dispute(ctx, rec.ID, fx.owner)
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := fx.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.Damaged)
	assert.Equal(t, "torn box corner", stored.DamageNotes)
	assert.Len(t, fx.pub.keys, 1)
}

func TestLendingCloseFromDisputed(t *testing.T) {
	fx := newLendingFixture(t)
	ctx := context.Background()
	rec := fx.record(model.LendingDisputed, date(2025, time.February, 20), date(2025, time.March, 5))

	got, err := fx.svc.Close(ctx, rec.ID, fx.owner, false, "")
	require.NoError(t, err)
	assert.Equal(t, model.LendingClosed, got.Status)
	assert.False(t, got.Damaged)
}

func TestLendingOverdueIsDerived(t *testing.T) {
	fx := newLendingFixture(t)
	ctx := context.Background()

	due := fx.record(model.LendingActive, date(2025, time.February, 1), date(2025, time.February, 20))
	notDue := fx.record(model.LendingActive, date(2025, time.February, 25), date(2025, time.March, 10))
	closedLate := fx.record(model.LendingClosed, date(2025, time.January, 1), date(2025, time.January, 10))

	overdue, err := fx.svc.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, due.ID, overdue[0].ID)
	// The stored status never changes; OVERDUE exists only on read.
	assert.Equal(t, model.LendingActive, overdue[0].Status)
	assert.True(t, overdue[0].IsOverdue(fx.clock.T))

	stored, err := fx.svc.Get(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LendingActive, stored.Status)

	// A closed record past its end date is not overdue.
	stored, err = fx.svc.Get(ctx, closedLate.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsOverdue(fx.clock.T))

	// Moving the clock past the second record's end date flips it
	// overdue with no writes in between.
	fx.clock.T = date(2025, time.March, 11)
	overdue, err = fx.svc.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, due.ID, overdue[0].ID)
	assert.Equal(t, notDue.ID, overdue[1].ID)
}

func TestLendingEffectiveStatus(t *testing.T) {
	now := date(2025, time.March, 1)
	rec := model.LendingRecord{Status: model.LendingActive, EndDate: date(2025, time.February, 20)}
	assert.Equal(t, model.LendingStatusOverdue, rec.EffectiveStatus(now))
	rec.EndDate = date(2025, time.March, 20)
	assert.Equal(t, model.LendingActive, rec.EffectiveStatus(now))
	rec.Status = model.LendingDisputed
	rec.EndDate = date(2025, time.February, 20)
	assert.Equal(t, model.LendingDisputed, rec.EffectiveStatus(now))
}

func TestLendingListFiltersAndPagination(t *testing.T) {
	fx := newLendingFixture(t)
	ctx := context.Background()

	secondBorrower := fx.store.addAccount(model.Account{Email: "b2@example.com", Role: model.RoleUser})
	for i := 0; i < 5; i++ {
		fx.record(model.LendingActive, date(2025, time.February, 1+i), date(2025, time.February, 10+i))
	}
	fx.store.addRecord(model.LendingRecord{
		BorrowerID: secondBorrower.ID,
		OwnerID:    fx.owner.ID,
		GameID:     78,
		StartDate:  date(2025, time.April, 1),
		EndDate:    date(2025, time.April, 10),
		Status:     model.LendingClosed,
	})

	// Status filter.
	page, err := fx.svc.List(ctx, repository.LendingFilter{Status: model.LendingClosed}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)

	// Unknown status is rejected.
	_, err = fx.svc.List(ctx, repository.LendingFilter{Status: "LOST"}, 1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	// Borrower filter composes with status.
	page, err = fx.svc.List(ctx, repository.LendingFilter{
		Status:     model.LendingActive,
		BorrowerID: fx.borrower.ID,
	}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalItems)

	// Date range uses overlap semantics.
	from := date(2025, time.April, 1)
	page, err = fx.svc.List(ctx, repository.LendingFilter{FromDate: &from}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)

	// Pagination: page 2 of size 2 over the 5 active records.
	page, err = fx.svc.List(ctx, repository.LendingFilter{Status: model.LendingActive}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 2)

	// A page past the end is empty but keeps the totals.
	page, err = fx.svc.List(ctx, repository.LendingFilter{Status: model.LendingActive}, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 5, page.TotalItems)

	// Out-of-range inputs fall back to defaults.
	page, err = fx.svc.List(ctx, repository.LendingFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultPageSize, page.PageSize)
}

func TestLendingListOverdueStatus(t *testing.T) {
	fx := newLendingFixture(t)
	ctx := context.Background()

	fx.record(model.LendingActive, date(2025, time.February, 1), date(2025, time.February, 20))
	fx.record(model.LendingActive, date(2025, time.February, 1), date(2025, time.February, 25))
	fx.record(model.LendingActive, date(2025, time.February, 25), date(2025, time.March, 10))

	page, err := fx.svc.List(ctx, repository.LendingFilter{Status: model.LendingStatusOverdue}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 1)

	// The borrower filter applies on top of the derived status.
	page, err = fx.svc.List(ctx, repository.LendingFilter{
		Status:     model.LendingStatusOverdue,
		BorrowerID: 999,
	}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.TotalItems)
}

func TestLendingGetNotFound(t *testing.T) {
	fx := newLendingFixture(t)
	_, err := fx.svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}
