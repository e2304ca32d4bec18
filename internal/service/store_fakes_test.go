package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/boardgameshare/server/internal/model"
	"github.com/boardgameshare/server/internal/repository"
)

// memStore is an in-memory implementation of every store interface
// the engines consume. It mirrors the conditional-write semantics of
// the SQL repositories under a mutex: a transition only succeeds
// while the row is in the expected state, and the loser of a race
// observes repository.ErrConflict.
type memStore struct {
	mu       sync.Mutex
	accounts map[uint64]model.Account
	games    map[uint64]model.Game
	requests map[uint64]model.BorrowRequest
	records  map[uint64]model.LendingRecord
	events   map[uint64]model.Event
	regs     map[uint64]model.Registration
	nextID   uint64
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[uint64]model.Account{},
		games:    map[uint64]model.Game{},
		requests: map[uint64]model.BorrowRequest{},
		records:  map[uint64]model.LendingRecord{},
		events:   map[uint64]model.Event{},
		regs:     map[uint64]model.Registration{},
	}
}

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addAccount(a model.Account) model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.id()
	}
	m.accounts[a.ID] = a
	return a
}

func (m *memStore) addGame(g model.Game) model.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == 0 {
		g.ID = m.id()
	}
	m.games[g.ID] = g
	return g
}

func (m *memStore) addEvent(e model.Event) model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == 0 {
		e.ID = m.id()
	}
	m.events[e.ID] = e
	return e
}

func (m *memStore) addRecord(l model.LendingRecord) model.LendingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == 0 {
		l.ID = m.id()
	}
	m.records[l.ID] = l
	return l
}

// --- AccountDirectory / Catalog ---

func (m *memStore) ResolveAccount(_ context.Context, id uint64) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *memStore) ResolveGame(_ context.Context, id uint64) (model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return model.Game{}, repository.ErrNotFound
	}
	return g, nil
}

// --- BorrowRequestStore ---

func (m *memStore) Create(_ context.Context, br *model.BorrowRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	br.ID = m.id()
	m.requests[br.ID] = *br
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uint64) (model.BorrowRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	br, ok := m.requests[id]
	if !ok {
		return model.BorrowRequest{}, repository.ErrNotFound
	}
	return br, nil
}

func (m *memStore) ListByRequester(_ context.Context, requesterID uint64) ([]model.BorrowRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.BorrowRequest{}
	for _, br := range m.requests {
		if br.RequesterID == requesterID {
			out = append(out, br)
		}
	}
	sortRequests(out)
	return out, nil
}

func (m *memStore) ListByStatus(_ context.Context, status string) ([]model.BorrowRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.BorrowRequest{}
	for _, br := range m.requests {
		if br.Status == status {
			out = append(out, br)
		}
	}
	sortRequests(out)
	return out, nil
}

func (m *memStore) ListForOwner(_ context.Context, ownerID uint64) ([]model.BorrowRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.BorrowRequest{}
	for _, br := range m.requests {
		if g, ok := m.games[br.GameID]; ok && g.OwnerAccountID == ownerID {
			out = append(out, br)
		}
	}
	sortRequests(out)
	return out, nil
}

func sortRequests(out []model.BorrowRequest) {
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
}

func (m *memStore) Decline(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	br, ok := m.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if br.Status != model.BorrowRequestPending {
		return repository.ErrConflict
	}
	br.Status = model.BorrowRequestDeclined
	m.requests[id] = br
	return nil
}

func (m *memStore) ApproveAndCreateRecord(_ context.Context, id uint64, rec *model.LendingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	br, ok := m.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if br.Status != model.BorrowRequestPending {
		return repository.ErrConflict
	}
	br.Status = model.BorrowRequestApproved
	m.requests[id] = br
	rec.ID = m.id()
	m.records[rec.ID] = *rec
	return nil
}

func (m *memStore) DeleteIfPending(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	br, ok := m.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if br.Status != model.BorrowRequestPending {
		return repository.ErrConflict
	}
	delete(m.requests, id)
	return nil
}

// --- LendingRecordStore (wrapped to avoid method-name clashes) ---

type memLendingStore struct{ *memStore }

func (m memLendingStore) GetByID(_ context.Context, id uint64) (model.LendingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.records[id]
	if !ok {
		return model.LendingRecord{}, repository.ErrNotFound
	}
	return l, nil
}

func (m memLendingStore) GetByBorrowRequest(_ context.Context, requestID uint64) (model.LendingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.records {
		if l.BorrowRequestID == requestID {
			return l, nil
		}
	}
	return model.LendingRecord{}, repository.ErrNotFound
}

func (m memLendingStore) TransitionStatus(_ context.Context, id uint64, from []string, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !statusIn(l.Status, from) {
		return repository.ErrConflict
	}
	l.Status = to
	m.records[id] = l
	return nil
}

func (m memLendingStore) Close(_ context.Context, id uint64, from []string, damaged bool, notes string, closedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !statusIn(l.Status, from) {
		return repository.ErrConflict
	}
	l.Status = model.LendingClosed
	l.Damaged = damaged
	l.DamageNotes = notes
	l.ClosedAt = &closedAt
	m.records[id] = l
	return nil
}

func (m memLendingStore) List(_ context.Context, f repository.LendingFilter, page, size int) ([]model.LendingRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := []model.LendingRecord{}
	for _, l := range m.records {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.OwnerID != 0 && l.OwnerID != f.OwnerID {
			continue
		}
		if f.BorrowerID != 0 && l.BorrowerID != f.BorrowerID {
			continue
		}
		if f.FromDate != nil && l.EndDate.Before(*f.FromDate) {
			continue
		}
		if f.ToDate != nil && l.StartDate.After(*f.ToDate) {
			continue
		}
		matched = append(matched, l)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m memLendingStore) ListOverdue(_ context.Context, now time.Time) ([]model.LendingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.LendingRecord{}
	for _, l := range m.records {
		if l.Status == model.LendingActive && l.EndDate.Before(now) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func statusIn(status string, set []string) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

// --- EventStore ---

type memEventStore struct{ *memStore }

func (m memEventStore) Create(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.id()
	m.events[e.ID] = *e
	return nil
}

func (m memEventStore) GetByID(_ context.Context, id uint64) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return model.Event{}, repository.ErrNotFound
	}
	return e, nil
}

func (m memEventStore) List(_ context.Context) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Event{}
	for _, e := range m.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memEventStore) Update(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return repository.ErrNotFound
	}
	if e.MaxParticipants < m.countRegsLocked(e.ID) {
		return repository.ErrConflict
	}
	m.events[e.ID] = *e
	return nil
}

func (m memEventStore) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.events, id)
	for rid, reg := range m.regs {
		if reg.EventID == id {
			delete(m.regs, rid)
		}
	}
	return nil
}

func (m *memStore) countRegsLocked(eventID uint64) uint32 {
	var n uint32
	for _, reg := range m.regs {
		if reg.EventID == eventID {
			n++
		}
	}
	return n
}

// --- RegistrationStore ---

type memRegistrationStore struct{ *memStore }

func (m memRegistrationStore) Create(_ context.Context, reg *model.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[reg.EventID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, existing := range m.regs {
		if existing.EventID == reg.EventID && existing.AttendeeID == reg.AttendeeID {
			return repository.ErrDuplicateRegistration
		}
	}
	if m.countRegsLocked(reg.EventID) >= e.MaxParticipants {
		return repository.ErrEventFull
	}
	reg.ID = m.id()
	m.regs[reg.ID] = *reg
	return nil
}

func (m memRegistrationStore) GetByID(_ context.Context, id uint64) (model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.regs[id]
	if !ok {
		return model.Registration{}, repository.ErrNotFound
	}
	return reg, nil
}

func (m memRegistrationStore) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.regs, id)
	return nil
}

func (m memRegistrationStore) ListByEvent(_ context.Context, eventID uint64) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Registration{}
	for _, reg := range m.regs {
		if reg.EventID == eventID {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memRegistrationStore) ListByAttendee(_ context.Context, attendeeID uint64) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Registration{}
	for _, reg := range m.regs {
		if reg.AttendeeID == attendeeID {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memRegistrationStore) CountByEvent(_ context.Context, eventID uint64) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countRegsLocked(eventID), nil
}

// capturePublisher records published payloads for assertions.
type capturePublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *capturePublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}
