package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Togather-Foundation/gather/internal/domain/users"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testDB is one PostgreSQL container shared by every test in the package.
type testDB struct {
	once sync.Once
	err  error
	pool *pgxpool.Pool
	url  string
}

var db testDB

// Truncated between tests; registrations first because of the foreign keys.
var gatherTables = []string{"event_registrations", "events", "users"}

func TestMain(m *testing.M) {
	code := m.Run()
	if db.pool != nil {
		db.pool.Close()
	}
	os.Exit(code)
}

// setupPostgres returns a migrated, empty database. Skipped with -short.
func setupPostgres(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("PostgreSQL tests need Docker; skipped with -short")
	}

	db.once.Do(db.start)
	require.NoError(t, db.err, "start postgres container")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, table := range gatherTables {
		_, err := db.pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		require.NoError(t, err, "truncate %s", table)
	}
	return db.pool, db.url
}

func (d *testDB) start() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("gather"),
		postgres.WithUsername("gather"),
		postgres.WithPassword("gather"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
		testcontainers.WithReuseByName("gather-storage-test"),
	)
	if err != nil {
		d.err = err
		return
	}

	if d.url, err = container.ConnectionString(ctx, "sslmode=disable"); err != nil {
		d.err = err
		return
	}

	// The container can accept connections a moment before migrations succeed.
	deadline := time.Now().Add(10 * time.Second)
	for {
		if d.err = MigrateUp(d.url, ""); d.err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if d.err != nil {
		return
	}

	d.pool, d.err = pgxpool.New(ctx, d.url)
}

func insertUser(t *testing.T, ctx context.Context, repo *Repository, username string) *users.User {
	t.Helper()
	user, err := repo.Users().Create(ctx, users.CreateParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$not.a.real.hash.only.stored.for.storage.tests",
	})
	require.NoError(t, err)
	return user
}
