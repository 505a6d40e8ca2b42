package postgres

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Togather-Foundation/gather/internal/domain/events"
	"github.com/Togather-Foundation/gather/internal/domain/ids"
	"github.com/Togather-Foundation/gather/internal/domain/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	pool, _ := setupPostgres(t)
	repo, err := NewRepository(pool)
	require.NoError(t, err)
	return repo
}

func createEvent(t *testing.T, ctx context.Context, repo *Repository, organizer *users.User, title, location string, date time.Time) *events.Event {
	t.Helper()
	publicID, err := ids.NewULID()
	require.NoError(t, err)
	event, err := repo.Events().Create(ctx, events.EventCreateParams{
		ULID:        publicID,
		Title:       title,
		Description: title + " description",
		Date:        date,
		Location:    location,
		OrganizerID: organizer.ID,
	})
	require.NoError(t, err)
	return event
}

func TestNewRepositoryRejectsNilPool(t *testing.T) {
	_, err := NewRepository(nil)
	require.Error(t, err)
}

func TestUserRepositoryUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	alice := insertUser(t, ctx, repo, "alice")

	got, err := repo.Users().GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	got, err = repo.Users().GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	_, err = repo.Users().Create(ctx, users.CreateParams{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	require.ErrorIs(t, err, users.ErrUsernameTaken)

	_, err = repo.Users().Create(ctx, users.CreateParams{Username: "alice2", Email: "Alice@Example.com", PasswordHash: "x"})
	require.ErrorIs(t, err, users.ErrEmailTaken)

	_, err = repo.Users().GetByID(ctx, "not-a-uuid")
	require.ErrorIs(t, err, users.ErrNotFound)
	_, err = repo.Users().GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, users.ErrNotFound)
}

func TestEventRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	alice := insertUser(t, ctx, repo, "alice")

	date := time.Date(2030, 3, 1, 18, 0, 0, 0, time.UTC)
	created := createEvent(t, ctx, repo, alice, "Go meetup", "Berlin", date)
	require.Equal(t, "alice", created.OrganizerUsername)
	require.True(t, date.Equal(created.Date))
	require.False(t, created.CreatedAt.IsZero())

	got, err := repo.Events().GetByULID(ctx, created.ULID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	updated, err := repo.Events().Update(ctx, created.ULID, events.EventUpdateParams{
		Title: "Go meetup #2", Description: "new", Date: date.Add(time.Hour), Location: "Hamburg",
	})
	require.NoError(t, err)
	require.Equal(t, "Go meetup #2", updated.Title)
	require.Equal(t, "Hamburg", updated.Location)
	require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	require.NoError(t, repo.Events().Delete(ctx, created.ULID))
	_, err = repo.Events().GetByULID(ctx, created.ULID)
	require.ErrorIs(t, err, events.ErrNotFound)
	require.ErrorIs(t, repo.Events().Delete(ctx, created.ULID), events.ErrNotFound)

	_, err = repo.Events().Update(ctx, created.ULID, events.EventUpdateParams{Title: "x", Description: "x", Date: date, Location: "x"})
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestEventRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	alice := insertUser(t, ctx, repo, "alice")

	jan := time.Date(2030, 1, 15, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2030, 2, 15, 10, 0, 0, 0, time.UTC)
	mar := time.Date(2030, 3, 15, 10, 0, 0, 0, time.UTC)
	createEvent(t, ctx, repo, alice, "Go meetup", "Berlin", jan)
	createEvent(t, ctx, repo, alice, "Rust meetup", "Berlin", feb)
	createEvent(t, ctx, repo, alice, "100% Go workshop", "Hamburg", mar)

	all, err := repo.Events().List(ctx, events.Filters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "100% Go workshop", all[0].Title, "default ordering is -date")

	byLocation, err := repo.Events().List(ctx, events.Filters{Location: "Berlin", Ordering: []events.Order{{Key: events.SortDate}}})
	require.NoError(t, err)
	require.Len(t, byLocation, 2)
	require.Equal(t, "Go meetup", byLocation[0].Title)

	inclusive, err := repo.Events().List(ctx, events.Filters{DateFrom: &jan, DateTo: &feb})
	require.NoError(t, err)
	require.Len(t, inclusive, 2)

	search, err := repo.Events().List(ctx, events.Filters{SearchTerms: []string{"GO", "meetup"}})
	require.NoError(t, err)
	require.Len(t, search, 1)
	require.Equal(t, "Go meetup", search[0].Title)

	literal, err := repo.Events().List(ctx, events.Filters{SearchTerms: []string{"100%"}})
	require.NoError(t, err)
	require.Len(t, literal, 1)

	none, err := repo.Events().List(ctx, events.Filters{SearchTerms: []string{"%"}, Location: "Berlin"})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestRegistrationRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	alice := insertUser(t, ctx, repo, "alice")
	bob := insertUser(t, ctx, repo, "bob")
	carol := insertUser(t, ctx, repo, "carol")
	event := createEvent(t, ctx, repo, alice, "Go meetup", "Berlin", time.Now().Add(24*time.Hour))

	_, err := repo.Registrations().Create(ctx, event.ID, bob.ID)
	require.NoError(t, err)
	_, err = repo.Registrations().Create(ctx, event.ID, carol.ID)
	require.NoError(t, err)

	_, err = repo.Registrations().Create(ctx, event.ID, bob.ID)
	require.ErrorIs(t, err, events.ErrAlreadyRegistered)

	participants, err := repo.Registrations().ListParticipants(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, participants, 2)
	require.Equal(t, "bob", participants[0].Username)
	require.Equal(t, "carol", participants[1].Username)

	deleted, err := repo.Registrations().Delete(ctx, event.ID, bob.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	deleted, err = repo.Registrations().Delete(ctx, event.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, deleted)

	// Deleting the event cascades to its registrations.
	require.NoError(t, repo.Events().Delete(ctx, event.ULID))
	participants, err = repo.Registrations().ListParticipants(ctx, event.ID)
	require.NoError(t, err)
	require.Empty(t, participants)

	_, err = repo.Registrations().Create(ctx, event.ID, bob.ID)
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestRegistrationRepositoryConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	alice := insertUser(t, ctx, repo, "alice")
	bob := insertUser(t, ctx, repo, "bob")
	event := createEvent(t, ctx, repo, alice, "Go meetup", "Berlin", time.Now().Add(24*time.Hour))

	const attempts = 8
	var wins, duplicates atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, err := repo.Registrations().Create(gctx, event.ID, bob.ID)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, events.ErrAlreadyRegistered):
				duplicates.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.EqualValues(t, 1, wins.Load())
	require.EqualValues(t, attempts-1, duplicates.Load())

	participants, err := repo.Registrations().ListParticipants(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
}

func TestOrganizerCannotBeDeletedWithEvents(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	alice := insertUser(t, ctx, repo, "alice")
	createEvent(t, ctx, repo, alice, "Go meetup", "Berlin", time.Now().Add(24*time.Hour))

	_, err := repo.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, alice.ID)
	code, _ := pgErrorCode(err)
	require.Equal(t, codeForeignKeyViolation, code)
}

func TestMigrationVersion(t *testing.T) {
	_, dbURL := setupPostgres(t)
	version, dirty, err := MigrationVersion(dbURL, "")
	require.NoError(t, err)
	require.False(t, dirty)
	require.EqualValues(t, 1, version)
}
