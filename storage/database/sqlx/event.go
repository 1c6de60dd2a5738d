package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/tamasha/core"
	"github.com/trezcool/tamasha/core/event"
)

type eventRow struct {
	ID               int       `db:"id"`
	Name             string    `db:"name"`
	Chapter          string    `db:"chapter"`
	Description      string    `db:"description"`
	Venue            string    `db:"venue"`
	Date             time.Time `db:"date"`
	StartsAt         time.Time `db:"starts_at"`
	EndsAt           time.Time `db:"ends_at"`
	Fee              int       `db:"fee"`
	TeamMinSize      int       `db:"team_min_size"`
	TeamMaxSize      int       `db:"team_max_size"`
	RegistrationOpen bool      `db:"registration_open"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r eventRow) toEvent() event.Event {
	return event.Event{
		ID:               r.ID,
		Name:             r.Name,
		Chapter:          core.Chapter(r.Chapter),
		Description:      r.Description,
		Venue:            r.Venue,
		Date:             r.Date.UTC(),
		StartsAt:         r.StartsAt.UTC(),
		EndsAt:           r.EndsAt.UTC(),
		Fee:              r.Fee,
		TeamMinSize:      r.TeamMinSize,
		TeamMaxSize:      r.TeamMaxSize,
		RegistrationOpen: r.RegistrationOpen,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

func toEvents(rows []eventRow) []event.Event {
	events := make([]event.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toEvent())
	}
	return events
}

type eventRepository struct {
	db *sqlx.DB
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *sqlx.DB) event.Repository {
	return &eventRepository{db: db}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	query := `
		INSERT INTO events (name, chapter, description, venue, date, starts_at, ends_at, fee,
			team_min_size, team_max_size, registration_open, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		evt.Name, string(evt.Chapter), evt.Description, evt.Venue, evt.Date, evt.StartsAt, evt.EndsAt,
		evt.Fee, evt.TeamMinSize, evt.TeamMaxSize, evt.RegistrationOpen, evt.CreatedAt, evt.UpdatedAt,
	).Scan(&evt.ID)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo *eventRepository) GetEventByID(ctx context.Context, id int) (event.Event, error) {
	var row eventRow
	err := repo.db.GetContext(ctx, &row, "SELECT * FROM events WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return event.Event{}, event.ErrNotFound
	} else if err != nil {
		return event.Event{}, errors.Wrap(err, "getting event")
	}
	return row.toEvent(), nil
}

func (repo *eventRepository) GetEventsByID(ctx context.Context, ids ...int) ([]event.Event, error) {
	query, args, err := sqlx.In("SELECT * FROM events WHERE id IN (?)", ids)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []eventRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "getting events")
	}
	if len(rows) != len(ids) {
		return nil, event.ErrNotFound
	}
	return toEvents(rows), nil
}

func (repo *eventRepository) QueryAllEvents(ctx context.Context) ([]event.Event, error) {
	var rows []eventRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM events ORDER BY date, starts_at"); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return toEvents(rows), nil
}

func (repo *eventRepository) FilterEvents(ctx context.Context, filter event.QueryFilter) ([]event.Event, error) {
	query := "SELECT * FROM events WHERE 1=1"
	args := make([]interface{}, 0)

	if filter.Search != "" {
		query += " AND (name ILIKE ? OR venue ILIKE ?)"
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
	}
	if len(filter.Chapters) > 0 {
		query += " AND chapter IN (?)"
		args = append(args, filter.Chapters)
	}
	if filter.Open != nil {
		query += " AND registration_open = ?"
		args = append(args, *filter.Open)
	}
	if !filter.DateFrom.IsZero() {
		query += " AND date >= ?"
		args = append(args, filter.DateFrom.UTC())
	}
	if !filter.DateTo.IsZero() {
		query += " AND date <= ?"
		args = append(args, filter.DateTo.UTC())
	}
	query += " ORDER BY date, starts_at"

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []eventRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), inArgs...); err != nil {
		return nil, errors.Wrap(err, "filtering events")
	}
	return toEvents(rows), nil
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, evt event.Event, registrationOpen *bool) (event.Event, error) {
	query := `
		UPDATE events
		SET name = COALESCE(NULLIF($2, ''), name),
			description = COALESCE(NULLIF($3, ''), description),
			venue = COALESCE(NULLIF($4, ''), venue),
			date = $5, starts_at = $6, ends_at = $7, fee = $8,
			registration_open = COALESCE($9, registration_open),
			updated_at = $10
		WHERE id = $1
		RETURNING *`
	var row eventRow
	err := repo.db.GetContext(ctx, &row, query,
		evt.ID, evt.Name, evt.Description, evt.Venue, evt.Date, evt.StartsAt, evt.EndsAt, evt.Fee,
		registrationOpen, evt.UpdatedAt)
	if err == sql.ErrNoRows {
		return event.Event{}, event.ErrNotFound
	} else if err != nil {
		return event.Event{}, errors.Wrap(err, "updating event")
	}
	return row.toEvent(), nil
}

func (repo *eventRepository) DeleteEventsByID(ctx context.Context, ids ...int) error {
	query, args, err := sqlx.In("DELETE FROM events WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting events")
	}
	return nil
}
