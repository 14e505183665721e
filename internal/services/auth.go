package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"volunteerhub/internal/domain"
)

const minPasswordLen = 8

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	userRepo         domain.UserRepository
	notificationRepo domain.NotificationRepository
	hasher           domain.PasswordHasher
	tokens           domain.TokenIssuer
	tokenExpiry      time.Duration
	contextTimeout   time.Duration
}

// NewAuthService creates an AuthService backed by the given repositories,
// password hasher, and token issuer.
func NewAuthService(userRepo domain.UserRepository,
	notificationRepo domain.NotificationRepository,
	hasher domain.PasswordHasher,
	tokens domain.TokenIssuer,
	tokenExpiry time.Duration,
	timeout time.Duration,
) domain.AuthService {
	return &authService{
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		hasher:           hasher,
		tokens:           tokens,
		tokenExpiry:      tokenExpiry,
		contextTimeout:   timeout,
	}
}

func (s *authService) SignUp(ctx context.Context, email, password, name string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         domain.RoleVolunteer,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	n := &domain.Notification{
		Message:   fmt.Sprintf("New user registered: %s", email),
		Type:      domain.NotificationInfo,
		CreatedAt: time.Now(),
	}
	_ = s.notificationRepo.Create(ctx, n)

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return "", nil, domain.ErrForbidden
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, domain.ErrForbidden
	}

	token, err := s.tokens.Issue(user.Email, user.Role, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters long", domain.ErrInvalidInput, minPasswordLen)
	}
	var hasDigit, hasUpper bool
	for _, c := range password {
		switch {
		case unicode.IsDigit(c):
			hasDigit = true
		case unicode.IsUpper(c):
			hasUpper = true
		}
	}
	if !hasDigit {
		return fmt.Errorf("%w: password must contain at least one number", domain.ErrInvalidInput)
	}
	if !hasUpper {
		return fmt.Errorf("%w: password must contain at least one uppercase letter", domain.ErrInvalidInput)
	}
	return nil
}
