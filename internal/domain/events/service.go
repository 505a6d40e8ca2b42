package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Togather-Foundation/gather/internal/domain/ids"
	"github.com/Togather-Foundation/gather/internal/validation"
	"github.com/rs/zerolog"
)

// ErrUnauthenticated is returned when an operation is invoked without a caller.
var ErrUnauthenticated = errors.New("authentication required")

// Service implements the event catalog and the registration ledger on top of
// the two repositories. The caller identity is always passed in explicitly.
type Service struct {
	repo          Repository
	registrations RegistrationRepository
	now           func() time.Time
	logger        zerolog.Logger
}

type Option func(*Service)

// WithClock replaces time.Now, used to decide whether an event is in the past.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger.With().Str("component", "events").Logger()
	}
}

func NewService(repo Repository, registrations RegistrationRepository, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		registrations: registrations,
		now:           time.Now,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EventInput is the full set of writable event fields.
type EventInput struct {
	Title       string    `json:"title" validate:"required,max=200,nonul"`
	Description string    `json:"description" validate:"required,nonul"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"required,max=255,nonul"`
}

// EventPatch carries a partial update; nil fields are left unchanged.
type EventPatch struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
}

// Patch converts a full input into a patch that overwrites every field.
func (in EventInput) Patch() EventPatch {
	return EventPatch{
		Title:       &in.Title,
		Description: &in.Description,
		Date:        &in.Date,
		Location:    &in.Location,
	}
}

// normalize trims surrounding whitespace. Text is otherwise stored as given;
// escaping belongs to whatever renders it.
func (in EventInput) normalize() EventInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	if !in.Date.IsZero() {
		in.Date = in.Date.UTC()
	}
	return in
}

func (s *Service) List(ctx context.Context, actor Actor, filters Filters) ([]Event, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if len(filters.Ordering) == 0 {
		filters.Ordering = DefaultOrdering
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (*Event, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.lookup(ctx, id)
}

// Create stores a new event with the caller as its organizer.
func (s *Service) Create(ctx context.Context, actor Actor, input EventInput) (*Event, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	input = input.normalize()
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	publicID, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}

	event, err := s.repo.Create(ctx, EventCreateParams{
		ULID:        publicID,
		Title:       input.Title,
		Description: input.Description,
		Date:        input.Date,
		Location:    input.Location,
		OrganizerID: actor.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	if event.OrganizerUsername == "" {
		event.OrganizerUsername = actor.Username
	}

	s.logger.Info().Str("event_id", event.ULID).Str("organizer_id", actor.UserID).Msg("event created")
	return event, nil
}

// Update applies patch to an event owned by the caller. Organizer, id and
// timestamps are never taken from the input.
func (s *Service) Update(ctx context.Context, actor Actor, id string, patch EventPatch) (*Event, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	current, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsOrganizer(actor) {
		return nil, ErrForbidden
	}

	merged := EventInput{
		Title:       current.Title,
		Description: current.Description,
		Date:        current.Date,
		Location:    current.Location,
	}
	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Date != nil {
		merged.Date = *patch.Date
	}
	if patch.Location != nil {
		merged.Location = *patch.Location
	}

	merged = merged.normalize()
	if err := validation.Struct(merged); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, current.ULID, EventUpdateParams{
		Title:       merged.Title,
		Description: merged.Description,
		Date:        merged.Date,
		Location:    merged.Location,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.logger.Info().Str("event_id", updated.ULID).Str("organizer_id", actor.UserID).Msg("event updated")
	return updated, nil
}

// Delete removes an event owned by the caller together with its registrations.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	current, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	if !current.IsOrganizer(actor) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, current.ULID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}

	s.logger.Info().Str("event_id", current.ULID).Str("organizer_id", actor.UserID).Msg("event deleted")
	return nil
}

func (s *Service) lookup(ctx context.Context, id string) (*Event, error) {
	id = ids.NormalizeULID(id)
	if !ids.IsULID(id) {
		return nil, ErrNotFound
	}
	event, err := s.repo.GetByULID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func requireActor(actor Actor) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return ErrUnauthenticated
	}
	return nil
}
