package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"volunteerhub/internal/domain"
)

// matchingService resolves profiles and events and hands consistent
// snapshots to the pure matching functions in domain. It never mutates state.
type matchingService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	profileStore   domain.ProfileStore
	contextTimeout time.Duration
}

func NewMatchingService(eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	profileStore domain.ProfileStore,
	timeout time.Duration,
) domain.MatchingService {
	return &matchingService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		profileStore:   profileStore,
		contextTimeout: timeout,
	}
}

func (s *matchingService) MatchEventsForVolunteer(ctx context.Context, email string, includeClosed bool) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	volunteer, err := s.volunteerView(ctx, email)
	if err != nil {
		return nil, err
	}

	events, err := s.eventRepo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	now := time.Now()
	for _, e := range events {
		e.Status = e.EffectiveStatus(now)
	}
	return domain.FindEventsForVolunteer(volunteer, events, includeClosed), nil
}

func (s *matchingService) MatchVolunteersForEvent(ctx context.Context, eventID string) ([]*domain.Volunteer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	event.Status = event.EffectiveStatus(time.Now())

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	volunteers := make([]*domain.Volunteer, 0, len(users))
	for _, u := range users {
		if u.Role != domain.RoleVolunteer {
			continue
		}
		profile, err := s.profileStore.Get(ctx, u.Email)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue // no profile yet, nothing to match on
			}
			return nil, fmt.Errorf("get profile: %w", err)
		}
		volunteers = append(volunteers, &domain.Volunteer{
			Email:        u.Email,
			FullName:     profile.FullName,
			Skills:       profile.Skills,
			Availability: profile.Availability,
		})
	}

	// Admin-facing call, so closed events may still be matched against.
	return domain.FindVolunteersForEvent(event, volunteers, true), nil
}

func (s *matchingService) volunteerView(ctx context.Context, email string) (*domain.Volunteer, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	profile, err := s.profileStore.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &domain.Volunteer{
		Email:        email,
		FullName:     profile.FullName,
		Skills:       profile.Skills,
		Availability: profile.Availability,
	}, nil
}
