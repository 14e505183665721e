package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"volunteerhub/internal/domain"
)

// acceptedCountExpr derives the accepted-volunteer count from invitations;
// the count is never stored on the events row.
const acceptedCountExpr = `(SELECT COUNT(*) FROM invitations i WHERE i.event_id = events.id AND i.status = 'accepted')`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (name, description, location, required_skills, urgency, date, capacity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	var capacity sql.NullInt64
	if e.Capacity != nil {
		capacity = sql.NullInt64{Int64: int64(*e.Capacity), Valid: true}
	}
	return r.DB.QueryRowContext(ctx, query,
		e.Name, e.Description, e.Location, pq.Array(e.RequiredSkills), string(e.Urgency),
		e.Date, capacity, string(e.Status), e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, name, description, location, required_skills, urgency, date, capacity, status, created_at, updated_at,
		       ` + acceptedCountExpr + ` AS accepted_count
		FROM events
		WHERE id = $1
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, onlyOpen bool) ([]*domain.Event, error) {
	query := `
		SELECT id, name, description, location, required_skills, urgency, date, capacity, status, created_at, updated_at,
		       ` + acceptedCountExpr + ` AS accepted_count
		FROM events
	`
	if onlyOpen {
		query += ` WHERE status = 'open'`
	}
	query += ` ORDER BY date ASC, created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	if patch.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", n))
		args = append(args, *patch.Name)
		n++
	}
	if patch.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", n))
		args = append(args, *patch.Description)
		n++
	}
	if patch.Location != nil {
		setClauses = append(setClauses, fmt.Sprintf("location = $%d", n))
		args = append(args, *patch.Location)
		n++
	}
	if patch.RequiredSkills != nil {
		setClauses = append(setClauses, fmt.Sprintf("required_skills = $%d", n))
		args = append(args, pq.Array(patch.RequiredSkills))
		n++
	}
	if patch.Urgency != nil {
		setClauses = append(setClauses, fmt.Sprintf("urgency = $%d", n))
		args = append(args, string(*patch.Urgency))
		n++
	}
	if patch.Date != nil {
		setClauses = append(setClauses, fmt.Sprintf("date = $%d", n))
		args = append(args, *patch.Date)
		n++
	}
	if patch.ClearCapacity {
		setClauses = append(setClauses, "capacity = NULL")
	} else if patch.Capacity != nil {
		setClauses = append(setClauses, fmt.Sprintf("capacity = $%d", n))
		args = append(args, *patch.Capacity)
		n++
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d
		RETURNING id, name, description, location, required_skills, urgency, date, capacity, status, created_at, updated_at,
		          %s AS accepted_count
	`, strings.Join(setClauses, ", "), n, acceptedCountExpr)

	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	// Invitations cascade via the event_id foreign key.
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) SetStatus(ctx context.Context, id string, status domain.EventStatus) error {
	query := `UPDATE events SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var skills pq.StringArray
	var urgency, status string
	var capacity sql.NullInt64
	if err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Location, &skills, &urgency,
		&e.Date, &capacity, &status, &e.CreatedAt, &e.UpdatedAt, &e.AcceptedCount,
	); err != nil {
		return nil, err
	}
	e.RequiredSkills = []string(skills)
	e.Urgency = domain.Urgency(urgency)
	e.Status = domain.EventStatus(status)
	if capacity.Valid {
		c := int(capacity.Int64)
		e.Capacity = &c
	}
	e.Date = domain.TruncateDate(e.Date)
	return e, nil
}
