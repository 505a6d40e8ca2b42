package storage

import (
	"context"

	"github.com/Togather-Foundation/gather/internal/domain/events"
	"github.com/Togather-Foundation/gather/internal/domain/users"
)

// Repository groups data access by domain.
type Repository interface {
	Users() users.Repository
	Events() events.Repository
	Registrations() events.RegistrationRepository

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
