package postgres

import (
	"context"
	"database/sql"

	"volunteerhub/internal/domain"
)

type notificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) domain.NotificationRepository {
	return &notificationRepository{
		DB: db,
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (message, type, read, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, n.Message, n.Type, n.Read, n.CreatedAt).Scan(&n.ID)
}

func (r *notificationRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Notification, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, message, type, read, created_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		n := &domain.Notification{}
		if err := rows.Scan(&n.ID, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}
	return notifications, total, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1`
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
