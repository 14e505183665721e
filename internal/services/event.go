package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"volunteerhub/internal/domain"
)

const maxEventNameLen = 100

type eventService struct {
	eventRepo        domain.EventRepository
	notificationRepo domain.NotificationRepository
	locks            *EventLocks
	contextTimeout   time.Duration
}

func NewEventService(eventRepo domain.EventRepository,
	notificationRepo domain.NotificationRepository,
	locks *EventLocks,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:        eventRepo,
		notificationRepo: notificationRepo,
		locks:            locks,
		contextTimeout:   timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := validateEvent(event); err != nil {
		return nil, err
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	event.Status = domain.EventStatusOpen
	event.AcceptedCount = 0

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.notify(ctx, fmt.Sprintf("New event created: %s", event.Name), domain.NotificationSuccess)
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	event.Status = event.EffectiveStatus(time.Now())
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, onlyOpen bool) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.List(ctx, onlyOpen)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	now := time.Now()
	filtered := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		e.Status = e.EffectiveStatus(now)
		if onlyOpen && e.Status != domain.EventStatusOpen {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := validateEventPatch(&patch); err != nil {
		return nil, err
	}

	// Capacity changes interact with the accept path's count check, so the
	// update and status recomputation run under the event lock.
	unlock := s.locks.Lock(id)
	defer unlock()

	updated, err := s.eventRepo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	// Status is a pure function of accepted count vs capacity; recompute it
	// whenever either input may have moved.
	want := domain.EventStatusOpen
	if updated.CapacityClosed() {
		want = domain.EventStatusClosed
	}
	if updated.Status != want {
		if err := s.eventRepo.SetStatus(ctx, id, want); err != nil {
			return nil, fmt.Errorf("recompute event status: %w", err)
		}
		updated.Status = want
	}
	updated.Status = updated.EffectiveStatus(time.Now())
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) notify(ctx context.Context, message, typ string) {
	n := &domain.Notification{Message: message, Type: typ, CreatedAt: time.Now()}
	// Notification write failures never fail the main operation.
	_ = s.notificationRepo.Create(ctx, n)
}

func validateEvent(e *domain.Event) error {
	e.Name = strings.TrimSpace(e.Name)
	e.Location = strings.TrimSpace(e.Location)
	if e.Name == "" || len(e.Name) > maxEventNameLen {
		return fmt.Errorf("%w: event name must be between 1 and %d characters", domain.ErrInvalidInput, maxEventNameLen)
	}
	if e.Location == "" {
		return fmt.Errorf("%w: location is required", domain.ErrInvalidInput)
	}
	skills, ok := domain.CanonicalSkills(e.RequiredSkills)
	if !ok {
		return fmt.Errorf("%w: required skills must be drawn from the skill vocabulary", domain.ErrInvalidInput)
	}
	if len(skills) == 0 {
		return fmt.Errorf("%w: required skills cannot be empty", domain.ErrInvalidInput)
	}
	e.RequiredSkills = skills
	if _, ok := domain.ParseUrgency(string(e.Urgency)); !ok {
		return fmt.Errorf("%w: urgency must be one of Low, Medium, High, Critical", domain.ErrInvalidInput)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: event date is required", domain.ErrInvalidInput)
	}
	e.Date = domain.TruncateDate(e.Date)
	if e.Capacity != nil && *e.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be a positive integer", domain.ErrInvalidInput)
	}
	return nil
}

func validateEventPatch(p *domain.EventPatch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" || len(name) > maxEventNameLen {
			return fmt.Errorf("%w: event name must be between 1 and %d characters", domain.ErrInvalidInput, maxEventNameLen)
		}
		p.Name = &name
	}
	if p.Location != nil {
		loc := strings.TrimSpace(*p.Location)
		if loc == "" {
			return fmt.Errorf("%w: location is required", domain.ErrInvalidInput)
		}
		p.Location = &loc
	}
	if p.RequiredSkills != nil {
		skills, ok := domain.CanonicalSkills(p.RequiredSkills)
		if !ok {
			return fmt.Errorf("%w: required skills must be drawn from the skill vocabulary", domain.ErrInvalidInput)
		}
		if len(skills) == 0 {
			return fmt.Errorf("%w: required skills cannot be empty", domain.ErrInvalidInput)
		}
		p.RequiredSkills = skills
	}
	if p.Urgency != nil {
		u, ok := domain.ParseUrgency(string(*p.Urgency))
		if !ok {
			return fmt.Errorf("%w: urgency must be one of Low, Medium, High, Critical", domain.ErrInvalidInput)
		}
		p.Urgency = &u
	}
	if p.Date != nil {
		d := domain.TruncateDate(*p.Date)
		p.Date = &d
	}
	if !p.ClearCapacity && p.Capacity != nil && *p.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be a positive integer", domain.ErrInvalidInput)
	}
	return nil
}
