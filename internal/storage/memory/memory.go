// Package memory is an in-process storage.Repository. It enforces the same
// uniqueness and cascade rules as the PostgreSQL schema and is used by API
// tests that do not need a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/gather/internal/domain/events"
	"github.com/Togather-Foundation/gather/internal/domain/users"
	"github.com/google/uuid"
)

type Store struct {
	mu            sync.Mutex
	users         map[string]*users.User
	events        map[string]*events.Event
	registrations []events.Registration
	now           func() time.Time
	pingErr       error
}

func New() *Store {
	return &Store{
		users:  map[string]*users.User{},
		events: map[string]*events.Event{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetPingError makes Ping fail with err (nil restores it).
func (s *Store) SetPingError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
}

func (s *Store) Users() users.Repository                      { return userRepo{s} }
func (s *Store) Events() events.Repository                    { return eventRepo{s} }
func (s *Store) Registrations() events.RegistrationRepository { return registrationRepo{s} }

func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pingErr
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, params users.CreateParams) (*users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == params.Username {
			return nil, users.ErrUsernameTaken
		}
		if strings.EqualFold(u.Email, params.Email) {
			return nil, users.ErrEmailTaken
		}
	}
	u := &users.User{
		ID:           uuid.NewString(),
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    r.s.now(),
	}
	r.s.users[u.ID] = u
	copied := *u
	return &copied, nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	return r.find(func(u *users.User) bool { return u.ID == id })
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*users.User, error) {
	return r.find(func(u *users.User) bool { return u.Username == username })
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	return r.find(func(u *users.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r userRepo) find(match func(*users.User) bool) (*users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, users.ErrNotFound
}

type eventRepo struct{ s *Store }

func (r eventRepo) List(_ context.Context, filters events.Filters) ([]events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]events.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		if matches(*e, filters) {
			out = append(out, r.s.withOrganizer(*e))
		}
	}

	ordering := filters.Ordering
	if len(ordering) == 0 {
		ordering = events.DefaultOrdering
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, o := range ordering {
			a, b := sortValue(out[i], o.Key), sortValue(out[j], o.Key)
			if a.Equal(b) {
				continue
			}
			if o.Desc {
				return a.After(b)
			}
			return a.Before(b)
		}
		return out[i].ULID < out[j].ULID
	})
	return out, nil
}

func matches(e events.Event, f events.Filters) bool {
	if f.Location != "" && e.Location != f.Location {
		return false
	}
	if f.DateFrom != nil && e.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && e.Date.After(*f.DateTo) {
		return false
	}
	haystack := strings.ToLower(e.Title + "\n" + e.Description + "\n" + e.Location)
	for _, term := range f.SearchTerms {
		if !strings.Contains(haystack, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

func sortValue(e events.Event, key events.SortKey) time.Time {
	if key == events.SortCreatedAt {
		return e.CreatedAt
	}
	return e.Date
}

func (s *Store) withOrganizer(e events.Event) events.Event {
	if u, ok := s.users[e.OrganizerID]; ok {
		e.OrganizerUsername = u.Username
	}
	return e
}

func (r eventRepo) GetByULID(_ context.Context, ulid string) (*events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[ulid]
	if !ok {
		return nil, events.ErrNotFound
	}
	out := r.s.withOrganizer(*e)
	return &out, nil
}

func (r eventRepo) Create(_ context.Context, params events.EventCreateParams) (*events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[params.OrganizerID]; !ok {
		return nil, users.ErrNotFound
	}
	now := r.s.now()
	e := &events.Event{
		ID:          uuid.NewString(),
		ULID:        params.ULID,
		Title:       params.Title,
		Description: params.Description,
		Date:        params.Date.UTC(),
		Location:    params.Location,
		OrganizerID: params.OrganizerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.events[e.ULID] = e
	out := r.s.withOrganizer(*e)
	return &out, nil
}

func (r eventRepo) Update(_ context.Context, ulid string, params events.EventUpdateParams) (*events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[ulid]
	if !ok {
		return nil, events.ErrNotFound
	}
	e.Title = params.Title
	e.Description = params.Description
	e.Date = params.Date.UTC()
	e.Location = params.Location
	e.UpdatedAt = r.s.now()
	out := r.s.withOrganizer(*e)
	return &out, nil
}

// Delete removes the event and, like ON DELETE CASCADE, its registrations.
func (r eventRepo) Delete(_ context.Context, ulid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[ulid]
	if !ok {
		return events.ErrNotFound
	}
	delete(r.s.events, ulid)
	kept := r.s.registrations[:0]
	for _, reg := range r.s.registrations {
		if reg.EventID != e.ID {
			kept = append(kept, reg)
		}
	}
	r.s.registrations = kept
	return nil
}

type registrationRepo struct{ s *Store }

func (r registrationRepo) Create(_ context.Context, eventID, userID string) (*events.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.eventExists(eventID) {
		return nil, events.ErrNotFound
	}
	for _, reg := range r.s.registrations {
		if reg.EventID == eventID && reg.UserID == userID {
			return nil, events.ErrAlreadyRegistered
		}
	}
	reg := events.Registration{
		ID:           uuid.NewString(),
		EventID:      eventID,
		UserID:       userID,
		RegisteredAt: r.s.now(),
	}
	r.s.registrations = append(r.s.registrations, reg)
	return &reg, nil
}

func (r registrationRepo) Delete(_ context.Context, eventID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, reg := range r.s.registrations {
		if reg.EventID == eventID && reg.UserID == userID {
			r.s.registrations = append(r.s.registrations[:i], r.s.registrations[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListParticipants returns registrations in insertion order, which is also
// registration time order.
func (r registrationRepo) ListParticipants(_ context.Context, eventID string) ([]events.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []events.Participant{}
	for _, reg := range r.s.registrations {
		if reg.EventID != eventID {
			continue
		}
		p := events.Participant{UserID: reg.UserID, RegisteredAt: reg.RegisteredAt}
		if u, ok := r.s.users[reg.UserID]; ok {
			p.Username = u.Username
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) eventExists(id string) bool {
	for _, e := range s.events {
		if e.ID == id {
			return true
		}
	}
	return false
}
