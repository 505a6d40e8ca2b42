package events

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("event not found")
	ErrForbidden = errors.New("caller is not the event organizer")

	ErrOrganizerRegistration = errors.New("organizer cannot register for own event")
	ErrPastEvent             = errors.New("cannot register for past event")
	ErrAlreadyRegistered     = errors.New("already registered for event")
	ErrNotRegistered         = errors.New("not registered for event")
)

// Actor is the authenticated caller, passed explicitly into every operation.
type Actor struct {
	UserID   string
	Username string
}

type Event struct {
	ID                string
	ULID              string
	Title             string
	Description       string
	Date              time.Time
	Location          string
	OrganizerID       string
	OrganizerUsername string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsOrganizer reports whether actor created the event.
func (e *Event) IsOrganizer(actor Actor) bool {
	return e != nil && actor.UserID != "" && e.OrganizerID == actor.UserID
}

type EventCreateParams struct {
	ULID        string
	Title       string
	Description string
	Date        time.Time
	Location    string
	OrganizerID string
}

type EventUpdateParams struct {
	Title       string
	Description string
	Date        time.Time
	Location    string
}

type Registration struct {
	ID           string
	EventID      string
	UserID       string
	RegisteredAt time.Time
}

type Participant struct {
	UserID       string
	Username     string
	RegisteredAt time.Time
}

// SortKey is a column events can be ordered by.
type SortKey string

const (
	SortDate      SortKey = "date"
	SortCreatedAt SortKey = "created_at"
)

type Order struct {
	Key  SortKey
	Desc bool
}

// DefaultOrdering lists the most recent event date first.
var DefaultOrdering = []Order{{Key: SortDate, Desc: true}}

type Filters struct {
	Location    string
	DateFrom    *time.Time
	DateTo      *time.Time
	SearchTerms []string
	Ordering    []Order
}

type Repository interface {
	List(ctx context.Context, filters Filters) ([]Event, error)
	GetByULID(ctx context.Context, ulid string) (*Event, error)
	Create(ctx context.Context, params EventCreateParams) (*Event, error)
	Update(ctx context.Context, ulid string, params EventUpdateParams) (*Event, error)
	Delete(ctx context.Context, ulid string) error
}

// RegistrationRepository stores the user/event participation ledger. Create must
// return ErrAlreadyRegistered when the (user, event) unique index rejects the insert.
type RegistrationRepository interface {
	Create(ctx context.Context, eventID, userID string) (*Registration, error)
	Delete(ctx context.Context, eventID, userID string) (bool, error)
	ListParticipants(ctx context.Context, eventID string) ([]Participant, error)
}
