package service

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
)

type fakeTicketRepo struct {
	mu          sync.Mutex
	nextID      int64
	tickets     map[int64]*domain.Ticket
	codes       map[string]bool
	assignments []domain.Assignment
	writes      int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[int64]*domain.Ticket{}, codes: map[string]bool{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.codes[t.Code] {
		return repository.ErrDuplicate
	}
	r.nextID++
	t.ID = r.nextID
	r.codes[t.Code] = true
	stored := *t
	r.tickets[t.ID] = &stored
	r.writes++
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTicketRepo) GetByCode(_ context.Context, code string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.Code == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// all returns tickets newest first, like the Postgres queries.
func (r *fakeTicketRepo) all(keep func(*domain.Ticket) bool) []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Ticket{}
	for _, t := range r.tickets {
		if keep(t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *fakeTicketRepo) ListByCreator(_ context.Context, userID int64) ([]domain.Ticket, error) {
	return r.all(func(t *domain.Ticket) bool { return t.CreatedBy == userID }), nil
}

func (r *fakeTicketRepo) ListByStatuses(_ context.Context, statuses []domain.TicketStatus) ([]domain.Ticket, error) {
	return r.all(func(t *domain.Ticket) bool {
		for _, s := range statuses {
			if t.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	return r.all(func(t *domain.Ticket) bool {
		if f.CreatedBy != nil && t.CreatedBy != *f.CreatedBy {
			return false
		}
		if f.SearchTerm != nil && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(*f.SearchTerm)) {
			return false
		}
		return true
	}), nil
}

func (r *fakeTicketRepo) ListOverdue(_ context.Context, now time.Time) ([]domain.Ticket, error) {
	return r.all(func(t *domain.Ticket) bool { return t.Overdue(now) }), nil
}

// statusRow returns the ticket when it is still in status from, mirroring the
// conditional UPDATE in Postgres.
func (r *fakeTicketRepo) statusRow(id int64, from domain.TicketStatus) (*domain.Ticket, error) {
	t, ok := r.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if t.Status != from {
		return nil, repository.ErrStatusChanged
	}
	return t, nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id int64, from, to domain.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.statusRow(id, from)
	if err != nil {
		return err
	}
	t.Status = to
	r.writes++
	return nil
}

func (r *fakeTicketRepo) Resolve(_ context.Context, id int64, from domain.TicketStatus, resolution string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.statusRow(id, from)
	if err != nil {
		return err
	}
	t.Status = domain.TicketStatusResolved
	t.Resolution = &resolution
	t.ResolvedAt = &at
	r.writes++
	return nil
}

// Assign checks and inserts in separate critical sections, so only the
// caller's own serialization keeps the audit trail free of duplicates.
func (r *fakeTicketRepo) Assign(_ context.Context, ticketID, userID int64, at time.Time) (bool, error) {
	r.mu.Lock()
	t, ok := r.tickets[ticketID]
	if !ok {
		r.mu.Unlock()
		return false, repository.ErrNotFound
	}
	uid := userID
	t.AssigneeID = &uid
	status := t.Status
	exists := false
	for _, a := range r.assignments {
		if a.TicketID == ticketID && a.UserID == userID {
			exists = true
			break
		}
	}
	r.mu.Unlock()

	if exists {
		return false, nil
	}
	runtime.Gosched()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments = append(r.assignments, domain.Assignment{
		ID:         int64(len(r.assignments) + 1),
		TicketID:   ticketID,
		UserID:     userID,
		AssignedAt: at,
		Status:     status,
	})
	return true, nil
}

func (r *fakeTicketRepo) ListAssignments(_ context.Context, ticketID int64) ([]domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Assignment{}
	for _, a := range r.assignments {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) Stats(_ context.Context, now time.Time) (repository.TicketStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s repository.TicketStats
	for _, t := range r.tickets {
		s.Total++
		switch t.Status {
		case domain.TicketStatusOpen:
			s.Open++
		case domain.TicketStatusInProgress:
			s.InProgress++
		case domain.TicketStatusResolved:
			s.Resolved++
		case domain.TicketStatusClosed:
			s.Closed++
		}
		if t.Overdue(now) {
			s.Overdue++
		}
	}
	return s, nil
}

func (r *fakeTicketRepo) countAssignments(ticketID, userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.assignments {
		if a.TicketID == ticketID && a.UserID == userID {
			n++
		}
	}
	return n
}

type fakeAttachmentRepo struct {
	mu    sync.Mutex
	items []domain.Attachment
}

func (r *fakeAttachmentRepo) Create(_ context.Context, a *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = int64(len(r.items) + 1)
	r.items = append(r.items, *a)
	return nil
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Attachment{}
	for _, a := range r.items {
		if a.TicketID == ticketID {
			a.Data = nil
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttachmentRepo) Get(_ context.Context, ticketID, attachmentID int64) (*domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.TicketID == ticketID && a.ID == attachmentID {
			cp := a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeResearchRepo struct {
	mu   sync.Mutex
	rows []domain.ResearchResult
}

func (r *fakeResearchRepo) CreateBatch(_ context.Context, rows []domain.ResearchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range rows {
		rows[i].ID = int64(len(r.rows) + 1)
		r.rows = append(r.rows, rows[i])
	}
	return nil
}

func (r *fakeResearchRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.ResearchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ResearchResult{}
	for _, row := range r.rows {
		if row.TicketID == ticketID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users []domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = int64(len(r.users) + 1)
	u.CreatedAt = time.Now()
	r.users = append(r.users, *u)
	return nil
}

func (r *fakeUserRepo) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) List(context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.User{}, r.users...), nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id int64, role domain.UserRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			r.users[i].Role = role
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeUserRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

type fakeCalendarRepo struct {
	events []domain.CalendarEvent
}

func (r *fakeCalendarRepo) Create(_ context.Context, e *domain.CalendarEvent) error {
	e.ID = int64(len(r.events) + 1)
	r.events = append(r.events, *e)
	return nil
}

func (r *fakeCalendarRepo) ListBetween(_ context.Context, from, to time.Time) ([]domain.CalendarEvent, error) {
	out := []domain.CalendarEvent{}
	for _, e := range r.events {
		if !e.EventAt.Before(from) && e.EventAt.Before(to) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EventAt.Before(out[j].EventAt) })
	return out, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) ofType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type extractionCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *extractionCounter) RecordExtraction(format, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[format+":"+status]++
}
