package postgres

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/gather/internal/domain/events"
	"github.com/Togather-Foundation/gather/internal/domain/users"
	"github.com/Togather-Foundation/gather/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ storage.Repository = (*Repository)(nil)

// queryer is satisfied by both *pgxpool.Pool and pgx.Tx.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository implements storage.Repository with a PostgreSQL backend.
type Repository struct {
	pool *pgxpool.Pool

	users         *UserRepository
	events        *EventRepository
	registrations *RegistrationRepository
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{
		pool:          pool,
		users:         &UserRepository{db: pool},
		events:        &EventRepository{db: pool},
		registrations: &RegistrationRepository{db: pool},
	}, nil
}

func (r *Repository) Users() users.Repository { return r.users }

func (r *Repository) Events() events.Repository { return r.events }

func (r *Repository) Registrations() events.RegistrationRepository { return r.registrations }

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
