package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"volunteerhub/internal/domain"
)

// profileRepository is the postgres-backed profile store. Availability dates
// are stored as text in DateLayout to keep the calendar-date semantics free
// of time zones.
type profileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) domain.ProfileStore {
	return &profileRepository{
		DB: db,
	}
}

func (r *profileRepository) Get(ctx context.Context, email string) (*domain.Profile, error) {
	query := `
		SELECT email, full_name, address1, address2, city, state, zip_code, phone, preferences, skills, availability, updated_at
		FROM profiles
		WHERE email = $1
	`
	p := &domain.Profile{}
	var skills, availability pq.StringArray
	var address2, phone, preferences sql.NullString
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&p.Email, &p.FullName, &p.Address1, &address2, &p.City, &p.State, &p.ZipCode,
		&phone, &preferences, &skills, &availability, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if address2.Valid {
		p.Address2 = address2.String
	}
	if phone.Valid {
		p.Phone = phone.String
	}
	if preferences.Valid {
		p.Preferences = preferences.String
	}
	p.Skills = []string(skills)
	for _, s := range availability {
		d, err := domain.ParseDate(s)
		if err != nil {
			continue // skip malformed rows rather than failing the read
		}
		p.Availability = append(p.Availability, d)
	}
	return p, nil
}

func (r *profileRepository) Put(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (email, full_name, address1, address2, city, state, zip_code, phone, preferences, skills, availability, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (email) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			address1 = EXCLUDED.address1,
			address2 = EXCLUDED.address2,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			zip_code = EXCLUDED.zip_code,
			phone = EXCLUDED.phone,
			preferences = EXCLUDED.preferences,
			skills = EXCLUDED.skills,
			availability = EXCLUDED.availability,
			updated_at = EXCLUDED.updated_at
	`
	availability := make([]string, len(p.Availability))
	for i, d := range p.Availability {
		availability[i] = domain.FormatDate(d)
	}
	_, err := r.DB.ExecContext(ctx, query,
		p.Email, p.FullName, p.Address1, p.Address2, p.City, p.State, p.ZipCode,
		p.Phone, p.Preferences, pq.Array(p.Skills), pq.Array(availability), p.UpdatedAt,
	)
	return err
}
