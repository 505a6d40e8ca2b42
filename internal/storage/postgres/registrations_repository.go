package postgres

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/gather/internal/domain/events"
)

var _ events.RegistrationRepository = (*RegistrationRepository)(nil)

type RegistrationRepository struct {
	db queryer
}

// Create inserts a registration. Concurrent duplicates are serialized by the
// event_registrations_user_event_key index; the loser gets ErrAlreadyRegistered.
func (r *RegistrationRepository) Create(ctx context.Context, eventID, userID string) (*events.Registration, error) {
	var reg events.Registration
	err := r.db.QueryRow(ctx, `
INSERT INTO event_registrations (event_id, user_id)
VALUES ($1, $2)
RETURNING id, event_id, user_id, registered_at`,
		eventID, userID,
	).Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.RegisteredAt)
	if err != nil {
		code, constraint := pgErrorCode(err)
		switch {
		case code == codeUniqueViolation && constraint == constraintRegistrationOnce:
			return nil, events.ErrAlreadyRegistered
		case code == codeForeignKeyViolation && constraint == constraintRegistrationEvent:
			// Event deleted between lookup and insert.
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) Delete(ctx context.Context, eventID, userID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM event_registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("delete registration: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RegistrationRepository) ListParticipants(ctx context.Context, eventID string) ([]events.Participant, error) {
	rows, err := r.db.Query(ctx, `
SELECT r.user_id, u.username, r.registered_at
  FROM event_registrations r
  JOIN users u ON u.id = r.user_id
 WHERE r.event_id = $1
 ORDER BY r.registered_at ASC, r.id ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	participants := []events.Participant{}
	for rows.Next() {
		var p events.Participant
		if err := rows.Scan(&p.UserID, &p.Username, &p.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return participants, nil
}
