package events

import (
	"context"
	"errors"
	"fmt"
)

// Register records the caller as a participant. Checks run in a fixed order:
// organizer, past date, then the unique (user, event) constraint.
func (s *Service) Register(ctx context.Context, actor Actor, id string) (*Registration, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	event, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.IsOrganizer(actor) {
		return nil, ErrOrganizerRegistration
	}
	if event.Date.Before(s.now()) {
		return nil, ErrPastEvent
	}

	registration, err := s.registrations.Create(ctx, event.ID, actor.UserID)
	if err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("create registration: %w", err)
	}

	s.logger.Info().Str("event_id", event.ULID).Str("user_id", actor.UserID).Msg("registered for event")
	return registration, nil
}

// Unregister removes the caller's registration. Past events and organizers are
// not special-cased: there is simply nothing to delete for an organizer.
func (s *Service) Unregister(ctx context.Context, actor Actor, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	event, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.registrations.Delete(ctx, event.ID, actor.UserID)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if !deleted {
		return ErrNotRegistered
	}

	s.logger.Info().Str("event_id", event.ULID).Str("user_id", actor.UserID).Msg("unregistered from event")
	return nil
}

// Participants lists registrations in the order they were made. Only the
// organizer may see them.
func (s *Service) Participants(ctx context.Context, actor Actor, id string) ([]Participant, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	event, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.IsOrganizer(actor) {
		return nil, ErrForbidden
	}

	participants, err := s.registrations.ListParticipants(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return participants, nil
}
