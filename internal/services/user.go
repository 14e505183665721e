package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"volunteerhub/internal/domain"
)

const maxFullNameLen = 50

type userService struct {
	userRepo       domain.UserRepository
	profileStore   domain.ProfileStore
	contextTimeout time.Duration
}

func NewUserService(userRepo domain.UserRepository,
	profileStore domain.ProfileStore,
	timeout time.Duration,
) domain.UserService {
	return &userService{
		userRepo:       userRepo,
		profileStore:   profileStore,
		contextTimeout: timeout,
	}
}

func (s *userService) GetProfile(ctx context.Context, email string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	profile, err := s.profileStore.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Registered but no profile yet; callers see an empty profile.
			return &domain.Profile{Email: email}, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	profile.Email = strings.TrimSpace(strings.ToLower(profile.Email))
	if _, err := s.userRepo.GetByEmail(ctx, profile.Email); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	profile.UpdatedAt = time.Now()
	if err := s.profileStore.Put(ctx, profile); err != nil {
		return nil, fmt.Errorf("put profile: %w", err)
	}
	return profile, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

func (s *userService) UpdateUser(ctx context.Context, email string, name *string, role *domain.Role) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		user.Name = trimmed
	}
	if role != nil {
		r, ok := domain.ParseRole(string(*role))
		if !ok {
			return nil, fmt.Errorf("%w: role must be volunteer or admin", domain.ErrInvalidInput)
		}
		user.Role = r
	}
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.userRepo.Delete(ctx, strings.TrimSpace(strings.ToLower(email))); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func validateProfile(p *domain.Profile) error {
	p.FullName = strings.TrimSpace(p.FullName)
	if p.FullName == "" || len(p.FullName) > maxFullNameLen {
		return fmt.Errorf("%w: full name must be between 1 and %d characters", domain.ErrInvalidInput, maxFullNameLen)
	}
	if strings.TrimSpace(p.Address1) == "" {
		return fmt.Errorf("%w: address1 is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(p.City) == "" {
		return fmt.Errorf("%w: city is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(p.State) == "" {
		return fmt.Errorf("%w: state is required", domain.ErrInvalidInput)
	}
	if !zipCodeValid(p.ZipCode) {
		return fmt.Errorf("%w: zip code must be a 5 to 9 digit number", domain.ErrInvalidInput)
	}
	skills, ok := domain.CanonicalSkills(p.Skills)
	if !ok {
		return fmt.Errorf("%w: skills must be drawn from the skill vocabulary", domain.ErrInvalidInput)
	}
	if len(skills) == 0 {
		return fmt.Errorf("%w: skills cannot be empty", domain.ErrInvalidInput)
	}
	p.Skills = skills
	if len(p.Availability) == 0 {
		return fmt.Errorf("%w: availability cannot be empty", domain.ErrInvalidInput)
	}
	for i, d := range p.Availability {
		p.Availability[i] = domain.TruncateDate(d)
	}
	return nil
}

func zipCodeValid(zip string) bool {
	if len(zip) < 5 || len(zip) > 9 {
		return false
	}
	for _, c := range zip {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
