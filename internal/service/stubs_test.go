package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/queue"
	"github.com/iliyamo/ticketflow/internal/repository"
)

type stubUserStore struct {
	mu      sync.Mutex
	users   map[uint64]*model.User
	nextID  uint64
	nextArt uint64
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[uint64]*model.User)}
}

func cloneUser(u *model.User) model.User {
	c := *u
	return c
}

func (s *stubUserStore) Create(_ context.Context, u *model.User, artist *model.Artist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.ErrDuplicateEmail
		}
	}
	s.nextID++
	u.ID = s.nextID
	if artist != nil {
		s.nextArt++
		artist.ID = s.nextArt
		id := artist.ID
		u.ArtistID = &id
	}
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *stubUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (s *stubUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *stubUserStore) List(context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (s *stubUserStore) Update(_ context.Context, id uint64, p repository.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.ErrNotFound
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Role != nil {
		r := *p.Role
		u.Role = &r
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	return nil
}

func (s *stubUserStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *stubUserStore) IncrementFailedAttempts(_ context.Context, id uint64) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return 0, model.ErrNotFound
	}
	u.FailedAttempts++
	return u.FailedAttempts, nil
}

func (s *stubUserStore) RecordLogin(_ context.Context, id uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.ErrNotFound
	}
	u.FailedAttempts = 0
	u.LastLoginAt = &at
	return nil
}

func (s *stubUserStore) ResetFailedAttempts(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.ErrNotFound
	}
	u.FailedAttempts = 0
	return nil
}

func (s *stubUserStore) get(id uint64) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.users[id])
}

// stubTicketStore mirrors the conditional updates of the MySQL store under
// one mutex: the cap check and quota check either both pass or nothing
// changes.
type stubTicketStore struct {
	mu       sync.Mutex
	types    map[uint64]*model.TicketType
	holdings map[[2]uint64]uint32
	tickets  []model.Ticket
}

func newStubTicketStore(types ...model.TicketType) *stubTicketStore {
	s := &stubTicketStore{types: make(map[uint64]*model.TicketType), holdings: make(map[[2]uint64]uint32)}
	for i := range types {
		t := types[i]
		s.types[t.ID] = &t
	}
	return s
}

func (s *stubTicketStore) Get(_ context.Context, id uint64) (model.TicketType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.types[id]
	if !ok {
		return model.TicketType{}, model.ErrNotFound
	}
	return *t, nil
}

func (s *stubTicketStore) Reserve(_ context.Context, r repository.Reservation) (model.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.types[r.TicketTypeID]
	if !ok || !t.IsActive {
		return model.Allocation{}, model.ErrNotFound
	}
	key := [2]uint64{r.TicketTypeID, r.UserID}
	if t.MaxPerUser != nil && s.holdings[key]+r.Quantity > *t.MaxPerUser {
		return model.Allocation{}, model.ErrPerUserCapExceeded
	}
	if t.Quota != nil && t.Sold+r.Quantity > *t.Quota {
		return model.Allocation{}, model.ErrQuotaExceeded
	}
	s.holdings[key] += r.Quantity
	t.Sold += r.Quantity
	codes := make([]string, r.Quantity)
	for i := range codes {
		codes[i] = uuid.NewString()
		s.tickets = append(s.tickets, model.Ticket{Code: codes[i], TicketTypeID: t.ID, UserID: r.UserID, PriceCents: t.PriceCents})
	}
	return model.Allocation{
		TicketTypeID: t.ID,
		UserID:       r.UserID,
		Quantity:     r.Quantity,
		TotalCents:   t.PriceCents * int64(r.Quantity),
		Currency:     t.Currency,
		Codes:        codes,
	}, nil
}

func (s *stubTicketStore) Update(_ context.Context, id uint64, p repository.TicketTypePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.types[id]
	if !ok {
		return model.ErrNotFound
	}
	if t.Sold > 0 && (p.PriceCents != nil || p.Quota != nil) {
		return model.ErrConflict
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.PriceCents != nil {
		t.PriceCents = *p.PriceCents
	}
	if p.Quota != nil {
		q := *p.Quota
		t.Quota = &q
	}
	return nil
}

func (s *stubTicketStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.types[id]
	if !ok {
		return model.ErrNotFound
	}
	if t.Sold > 0 {
		return model.ErrConflict
	}
	delete(s.types, id)
	return nil
}

func (s *stubTicketStore) TicketsByUser(_ context.Context, userID uint64) ([]model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Ticket
	for _, t := range s.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

type stubEventStore struct {
	mu     sync.Mutex
	events map[uint64]*model.Event
	nextID uint64
}

func newStubEventStore(evs ...model.Event) *stubEventStore {
	s := &stubEventStore{events: make(map[uint64]*model.Event)}
	for i := range evs {
		ev := evs[i]
		s.events[ev.ID] = &ev
		if ev.ID > s.nextID {
			s.nextID = ev.ID
		}
	}
	return s
}

func (s *stubEventStore) List(_ context.Context, f repository.EventFilter) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Event
	for _, ev := range s.events {
		if f.Status != "" && ev.Status != f.Status {
			continue
		}
		if f.ArtistID != 0 && !ev.OwnedBy(f.ArtistID) {
			continue
		}
		out = append(out, *ev)
	}
	return out, nil
}

func (s *stubEventStore) Get(_ context.Context, id uint64) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return model.Event{}, model.ErrNotFound
	}
	return *ev, nil
}

func (s *stubEventStore) ArtistIDs(_ context.Context, id uint64) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return append([]uint64{}, ev.ArtistIDs...), nil
}

func (s *stubEventStore) Create(_ context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ev.ID = s.nextID
	c := *ev
	s.events[ev.ID] = &c
	return nil
}

func (s *stubEventStore) Update(_ context.Context, id uint64, p repository.EventPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return model.ErrNotFound
	}
	if p.Name != nil {
		ev.Name = *p.Name
	}
	if p.Status != nil {
		ev.Status = *p.Status
	}
	if p.StartsAt != nil {
		ev.StartsAt = *p.StartsAt
	}
	if p.EndsAt != nil {
		ev.EndsAt = *p.EndsAt
	}
	if p.TicketTypes != nil {
		for i := range ev.TicketTypes {
			ev.TicketTypes[i].IsActive = false
		}
		ev.TicketTypes = append(ev.TicketTypes, *p.TicketTypes...)
	}
	return nil
}

func (s *stubEventStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return model.ErrNotFound
	}
	for _, t := range ev.TicketTypes {
		if t.Sold > 0 {
			return model.ErrConflict
		}
	}
	delete(s.events, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func u32(v uint32) *uint32 { return &v }
