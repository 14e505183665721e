package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"volunteerhub/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{
		DB: db,
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (email, name, role, password_hash, salt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query,
		user.Email, user.Name, string(user.Role), user.PasswordHash, user.Salt, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT email, name, role, password_hash, salt, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	user := &domain.User{}
	var role string
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&user.Email, &user.Name, &role, &user.PasswordHash, &user.Salt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	user.Role = domain.Role(role)
	return user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT email, name, role, password_hash, salt, created_at, updated_at
		FROM users
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]*domain.User, 0)
	for rows.Next() {
		user := &domain.User{}
		var role string
		if err := rows.Scan(&user.Email, &user.Name, &role, &user.PasswordHash, &user.Salt, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		user.Role = domain.Role(role)
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users SET name = $2, role = $3, updated_at = $4
		WHERE email = $1
	`
	result, err := r.DB.ExecContext(ctx, query, user.Email, user.Name, string(user.Role), user.UpdatedAt)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, email string) error {
	// Profile and invitations cascade via foreign keys.
	query := `DELETE FROM users WHERE email = $1`
	result, err := r.DB.ExecContext(ctx, query, email)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
