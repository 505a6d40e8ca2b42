package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/gather/internal/domain/events"
	"github.com/jackc/pgx/v5"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	db queryer
}

const eventSelect = `
SELECT e.id, e.ulid, e.title, e.description, e.date, e.location,
       e.organizer_id, u.username, e.created_at, e.updated_at`

var sortColumns = map[events.SortKey]string{
	events.SortDate:      "e.date",
	events.SortCreatedAt: "e.created_at",
}

func (r *EventRepository) List(ctx context.Context, filters events.Filters) ([]events.Event, error) {
	query, args := buildListQuery(filters)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := []events.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

// buildListQuery renders the filtered, ordered list query. Every user value is
// passed as a bind parameter; ORDER BY only uses whitelisted columns.
func buildListQuery(filters events.Filters) (string, []any) {
	var (
		where []string
		args  []any
	)
	bind := func(value any) string {
		args = append(args, value)
		return "$" + strconv.Itoa(len(args))
	}

	if filters.Location != "" {
		where = append(where, "e.location = "+bind(filters.Location))
	}
	if filters.DateFrom != nil {
		where = append(where, "e.date >= "+bind(*filters.DateFrom))
	}
	if filters.DateTo != nil {
		where = append(where, "e.date <= "+bind(*filters.DateTo))
	}
	for _, term := range filters.SearchTerms {
		p := bind("%" + escapeILIKEPattern(term) + "%")
		where = append(where, fmt.Sprintf("(e.title ILIKE %[1]s OR e.description ILIKE %[1]s OR e.location ILIKE %[1]s)", p))
	}

	var b strings.Builder
	b.WriteString(eventSelect)
	b.WriteString("\n  FROM events e\n  JOIN users u ON u.id = e.organizer_id")
	if len(where) > 0 {
		b.WriteString("\n WHERE ")
		b.WriteString(strings.Join(where, "\n   AND "))
	}
	b.WriteString("\n ORDER BY ")
	b.WriteString(orderByClause(filters.Ordering))
	return b.String(), args
}

func orderByClause(ordering []events.Order) string {
	if len(ordering) == 0 {
		ordering = events.DefaultOrdering
	}
	parts := make([]string, 0, len(ordering)+1)
	for _, o := range ordering {
		column, ok := sortColumns[o.Key]
		if !ok {
			continue
		}
		if o.Desc {
			column += " DESC"
		} else {
			column += " ASC"
		}
		parts = append(parts, column)
	}
	parts = append(parts, "e.ulid ASC")
	return strings.Join(parts, ", ")
}

// escapeILIKEPattern escapes LIKE metacharacters so search terms match literally.
func escapeILIKEPattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (r *EventRepository) GetByULID(ctx context.Context, ulid string) (*events.Event, error) {
	row := r.db.QueryRow(ctx, eventSelect+`
  FROM events e
  JOIN users u ON u.id = e.organizer_id
 WHERE e.ulid = $1`, ulid)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.EventCreateParams) (*events.Event, error) {
	row := r.db.QueryRow(ctx, `
WITH e AS (
  INSERT INTO events (ulid, title, description, date, location, organizer_id)
  VALUES ($1, $2, $3, $4, $5, $6)
  RETURNING *
)`+eventSelect+`
  FROM e
  JOIN users u ON u.id = e.organizer_id`,
		params.ULID, params.Title, params.Description, params.Date, params.Location, params.OrganizerID,
	)
	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, ulid string, params events.EventUpdateParams) (*events.Event, error) {
	row := r.db.QueryRow(ctx, `
WITH e AS (
  UPDATE events
     SET title = $2, description = $3, date = $4, location = $5, updated_at = now()
   WHERE ulid = $1
  RETURNING *
)`+eventSelect+`
  FROM e
  JOIN users u ON u.id = e.organizer_id`,
		ulid, params.Title, params.Description, params.Date, params.Location,
	)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

// Delete removes the event; registrations go with it via ON DELETE CASCADE.
func (r *EventRepository) Delete(ctx context.Context, ulid string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE ulid = $1`, ulid)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var e events.Event
	err := row.Scan(
		&e.ID, &e.ULID, &e.Title, &e.Description, &e.Date, &e.Location,
		&e.OrganizerID, &e.OrganizerUsername, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Date = e.Date.UTC()
	return &e, nil
}
