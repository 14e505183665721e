package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"volunteerhub/internal/domain"
)

const uniqueViolation = "23505"

type invitationRepository struct {
	DB *sql.DB
}

func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{
		DB: db,
	}
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO invitations (event_id, volunteer_email, origin, status, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		inv.EventID, inv.VolunteerEmail, string(inv.Origin), string(inv.Status), inv.Completed, inv.CreatedAt,
	).Scan(&inv.ID)
	if err != nil {
		// The partial unique index on (event_id, volunteer_email) for
		// non-declined rows enforces the uniqueness invariant under races.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateInvitation
		}
		return err
	}
	return nil
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	query := `
		SELECT id, event_id, volunteer_email, origin, status, completed, created_at
		FROM invitations
		WHERE id = $1
	`
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) GetActiveByEventAndVolunteer(ctx context.Context, eventID, email string) (*domain.Invitation, error) {
	query := `
		SELECT id, event_id, volunteer_email, origin, status, completed, created_at
		FROM invitations
		WHERE event_id = $1 AND volunteer_email = $2 AND status <> 'declined'
	`
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, eventID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) List(ctx context.Context, filter domain.InvitationFilter) ([]*domain.Invitation, error) {
	query, args := buildInvitationQuery("", nil, filter)
	return r.queryInvitations(ctx, query, args)
}

func (r *invitationRepository) ListByEventID(ctx context.Context, eventID string, filter domain.InvitationFilter) ([]*domain.Invitation, error) {
	query, args := buildInvitationQuery("event_id", eventID, filter)
	return r.queryInvitations(ctx, query, args)
}

func (r *invitationRepository) ListByVolunteer(ctx context.Context, email string, filter domain.InvitationFilter) ([]*domain.Invitation, error) {
	query, args := buildInvitationQuery("volunteer_email", email, filter)
	return r.queryInvitations(ctx, query, args)
}

// UpdateStatus transitions an invitation out of pending. It returns
// ErrInvalidTransition when the invitation exists but is not pending, and
// ErrNotFound when it does not exist. The WHERE clause makes the
// check-and-set atomic at the row level.
func (r *invitationRepository) UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) error {
	query := `UPDATE invitations SET status = $2 WHERE id = $1 AND status = 'pending'`
	result, err := r.DB.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *invitationRepository) SetCompleted(ctx context.Context, id string, completed bool) error {
	query := `UPDATE invitations SET completed = $2 WHERE id = $1 AND status = 'accepted'`
	result, err := r.DB.ExecContext(ctx, query, id, completed)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *invitationRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM invitations WHERE id = $1`
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

func (r *invitationRepository) CountAcceptedByEventID(ctx context.Context, eventID string) (int, error) {
	query := `SELECT COUNT(*) FROM invitations WHERE event_id = $1 AND status = 'accepted'`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func buildInvitationQuery(keyColumn string, keyValue interface{}, filter domain.InvitationFilter) (string, []interface{}) {
	query := `
		SELECT id, event_id, volunteer_email, origin, status, completed, created_at
		FROM invitations
	`
	clauses := []string{}
	args := []interface{}{}
	n := 1
	if keyColumn != "" {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", keyColumn, n))
		args = append(args, keyValue)
		n++
	}
	if filter.Status != nil {
		clauses = append(clauses, fmt.Sprintf("status = $%d", n))
		args = append(args, string(*filter.Status))
		n++
	}
	if filter.Origin != nil {
		clauses = append(clauses, fmt.Sprintf("origin = $%d", n))
		args = append(args, string(*filter.Origin))
		n++
	}
	for i, c := range clauses {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY created_at DESC"
	return query, args
}

func (r *invitationRepository) queryInvitations(ctx context.Context, query string, args []interface{}) ([]*domain.Invitation, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	invitations := make([]*domain.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func scanInvitation(row rowScanner) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	var origin, status string
	if err := row.Scan(&inv.ID, &inv.EventID, &inv.VolunteerEmail, &origin, &status, &inv.Completed, &inv.CreatedAt); err != nil {
		return nil, err
	}
	inv.Origin = domain.InvitationOrigin(origin)
	inv.Status = domain.InvitationStatus(status)
	return inv, nil
}
