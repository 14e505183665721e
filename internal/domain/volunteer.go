package domain

import (
	"context"
	"time"
)

// Role is an application role.
type Role string

const (
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

// ParseRole matches a string to a role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleVolunteer, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Actor is the authenticated caller of a service operation, as resolved by
// the auth middleware from the bearer token.
type Actor struct {
	Email string
	Role  Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// User represents a registered account. Email is the identity key.
// swagger:model User
type User struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile holds a volunteer's matching data (skills, availability) plus
// contact details. Owned by the profile store; the lifecycle manager and
// matching engine only read it.
// swagger:model Profile
type Profile struct {
	Email        string      `json:"email"`
	FullName     string      `json:"full_name"`
	Address1     string      `json:"address1"`
	Address2     string      `json:"address2"`
	City         string      `json:"city"`
	State        string      `json:"state"`
	ZipCode      string      `json:"zip_code"`
	Phone        string      `json:"phone"`
	Preferences  string      `json:"preferences"`
	Skills       []string    `json:"skills"`
	Availability []time.Time `json:"availability"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Volunteer is the matching-engine view of a volunteer: identity, display
// name, skill set, and available dates.
// swagger:model Volunteer
type Volunteer struct {
	Email        string      `json:"email"`
	FullName     string      `json:"full_name"`
	Skills       []string    `json:"skills"`
	Availability []time.Time `json:"availability"`
}

// UserRepository defines storage operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	// Update persists name and role changes for the user.
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, email string) error
}

// ProfileStore fetches and stores volunteer profiles by identity.
type ProfileStore interface {
	Get(ctx context.Context, email string) (*Profile, error)
	Put(ctx context.Context, profile *Profile) error
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(email string, role Role, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated actor.
type TokenVerifier interface {
	Verify(token string) (Actor, error)
}

// AuthService defines account registration and login.
type AuthService interface {
	SignUp(ctx context.Context, email, password, name string) (*User, error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
}

// UserService defines profile access and admin user management.
type UserService interface {
	GetProfile(ctx context.Context, email string) (*Profile, error)
	UpdateProfile(ctx context.Context, profile *Profile) (*Profile, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateUser(ctx context.Context, email string, name *string, role *Role) (*User, error)
	DeleteUser(ctx context.Context, email string) error
}
