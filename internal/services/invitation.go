package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"volunteerhub/internal/domain"
)

type invitationService struct {
	invitationRepo   domain.InvitationRepository
	eventRepo        domain.EventRepository
	userRepo         domain.UserRepository
	notificationRepo domain.NotificationRepository
	emailService     domain.EmailService
	locks            *EventLocks
	contextTimeout   time.Duration
}

func NewInvitationService(invitationRepo domain.InvitationRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	notificationRepo domain.NotificationRepository,
	emailService domain.EmailService,
	locks *EventLocks,
	timeout time.Duration,
) domain.InvitationService {
	return &invitationService{
		invitationRepo:   invitationRepo,
		eventRepo:        eventRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		emailService:     emailService,
		locks:            locks,
		contextTimeout:   timeout,
	}
}

func (s *invitationService) RequestInvitation(ctx context.Context, eventID, volunteerEmail string, origin domain.InvitationOrigin, actor domain.Actor) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	volunteerEmail = strings.TrimSpace(strings.ToLower(volunteerEmail))
	if volunteerEmail == "" {
		return nil, fmt.Errorf("%w: volunteer email is required", domain.ErrInvalidInput)
	}
	switch origin {
	case domain.OriginVolunteerRequest:
		if actor.Email != volunteerEmail && !actor.IsAdmin() {
			return nil, domain.ErrForbidden
		}
	case domain.OriginAdminInvite:
		if !actor.IsAdmin() {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, fmt.Errorf("%w: unknown invitation origin %q", domain.ErrInvalidInput, origin)
	}

	if _, err := s.userRepo.GetByEmail(ctx, volunteerEmail); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get volunteer: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.EffectiveStatus(time.Now()) == domain.EventStatusClosed {
		return nil, domain.ErrEventClosed
	}

	if _, err := s.invitationRepo.GetActiveByEventAndVolunteer(ctx, eventID, volunteerEmail); err == nil {
		return nil, domain.ErrDuplicateInvitation
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing invitation: %w", err)
	}

	inv := &domain.Invitation{
		EventID:        eventID,
		VolunteerEmail: volunteerEmail,
		Origin:         origin,
		Status:         domain.InvitationPending,
		CreatedAt:      time.Now(),
	}
	// The partial unique index on (event_id, volunteer_email) for non-declined
	// rows backs up the duplicate check against concurrent creates.
	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		if errors.Is(err, domain.ErrDuplicateInvitation) {
			return nil, domain.ErrDuplicateInvitation
		}
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	if origin == domain.OriginAdminInvite {
		s.notify(ctx, fmt.Sprintf("%s has been invited to: %s", volunteerEmail, event.Name), domain.NotificationInfo)
		data := &domain.InvitationEmailData{
			Email:     volunteerEmail,
			EventName: event.Name,
			EventDate: domain.FormatDate(event.Date),
			Location:  event.Location,
		}
		if err := s.emailService.SendInvitation(ctx, data); err != nil {
			// Email delivery is best effort; the invitation stands.
			s.notify(ctx, fmt.Sprintf("Failed to email invitation to %s", volunteerEmail), domain.NotificationWarning)
		}
	} else {
		s.notify(ctx, fmt.Sprintf("%s requested to join: %s", volunteerEmail, event.Name), domain.NotificationInfo)
	}
	return inv, nil
}

func (s *invitationService) SetStatus(ctx context.Context, id string, status domain.InvitationStatus, actor domain.Actor) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if status != domain.InvitationAccepted && status != domain.InvitationDeclined {
		return nil, fmt.Errorf("%w: status must be accepted or declined", domain.ErrInvalidInput)
	}

	inv, err := s.invitationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if err := s.authorizeTransition(inv, actor); err != nil {
		return nil, err
	}

	if status == domain.InvitationDeclined {
		// Pending never reserved a slot, so no count or status change.
		if err := s.invitationRepo.UpdateStatus(ctx, id, domain.InvitationDeclined); err != nil {
			return nil, err
		}
		inv.Status = domain.InvitationDeclined
		return inv, nil
	}
	return s.accept(ctx, id, actor)
}

// accept runs the capacity-sensitive transition as one atomic unit under the
// event lock: re-read the invitation, count accepted, compare against
// capacity, transition, and recompute the event status. Capacity is enforced
// here, not at request time, because pending invitations reserve nothing.
func (s *invitationService) accept(ctx context.Context, id string, actor domain.Actor) (*domain.Invitation, error) {
	inv, err := s.invitationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}

	unlock := s.locks.Lock(inv.EventID)
	defer unlock()

	// Re-read under the lock; a concurrent transition may have won.
	inv, err = s.invitationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if inv.Status != domain.InvitationPending {
		return nil, domain.ErrInvalidTransition
	}

	event, err := s.eventRepo.GetByID(ctx, inv.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.Capacity != nil && event.AcceptedCount >= *event.Capacity {
		return nil, domain.ErrCapacityExceeded
	}

	if err := s.invitationRepo.UpdateStatus(ctx, id, domain.InvitationAccepted); err != nil {
		return nil, err
	}
	inv.Status = domain.InvitationAccepted

	newCount := event.AcceptedCount + 1
	if event.Capacity != nil && newCount >= *event.Capacity {
		if err := s.eventRepo.SetStatus(ctx, event.ID, domain.EventStatusClosed); err != nil {
			return nil, fmt.Errorf("recompute event status: %w", err)
		}
	}

	s.notify(ctx, fmt.Sprintf("%s accepted for: %s", inv.VolunteerEmail, event.Name), domain.NotificationSuccess)
	return inv, nil
}

func (s *invitationService) SetCompleted(ctx context.Context, id string, completed bool, actor domain.Actor) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	inv, err := s.invitationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if inv.Status != domain.InvitationAccepted {
		return nil, domain.ErrInvalidTransition
	}
	if inv.Completed == completed {
		// Idempotent: repeating the same completion state is a no-op.
		return inv, nil
	}
	if err := s.invitationRepo.SetCompleted(ctx, id, completed); err != nil {
		return nil, fmt.Errorf("set completed: %w", err)
	}
	inv.Completed = completed
	return inv, nil
}

func (s *invitationService) Cancel(ctx context.Context, id string, actor domain.Actor) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invitationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get invitation: %w", err)
	}
	if actor.Email != inv.VolunteerEmail && !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	unlock := s.locks.Lock(inv.EventID)
	defer unlock()

	inv, err = s.invitationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get invitation: %w", err)
	}
	if inv.Completed {
		// Completed assignments are history and cannot be withdrawn.
		return domain.ErrInvalidTransition
	}
	wasAccepted := inv.Status == domain.InvitationAccepted

	if err := s.invitationRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete invitation: %w", err)
	}

	if wasAccepted {
		// Freeing a slot can reopen a capacity-closed event; status stays a
		// pure function of count vs capacity.
		event, err := s.eventRepo.GetByID(ctx, inv.EventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil // event cascade-deleted concurrently
			}
			return fmt.Errorf("get event: %w", err)
		}
		want := domain.EventStatusOpen
		if event.CapacityClosed() {
			want = domain.EventStatusClosed
		}
		if event.Status != want {
			if err := s.eventRepo.SetStatus(ctx, event.ID, want); err != nil {
				return fmt.Errorf("recompute event status: %w", err)
			}
		}
	}
	return nil
}

func (s *invitationService) List(ctx context.Context, filter domain.InvitationFilter) ([]*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	invs, err := s.invitationRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	if invs == nil {
		invs = []*domain.Invitation{}
	}
	return invs, nil
}

func (s *invitationService) ListByEvent(ctx context.Context, eventID string, filter domain.InvitationFilter) ([]*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	invs, err := s.invitationRepo.ListByEventID(ctx, eventID, filter)
	if err != nil {
		return nil, fmt.Errorf("list event invitations: %w", err)
	}
	if invs == nil {
		invs = []*domain.Invitation{}
	}
	return invs, nil
}

func (s *invitationService) ListByVolunteer(ctx context.Context, email string, filter domain.InvitationFilter, actor domain.Actor) ([]*domain.InvitationWithEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.TrimSpace(strings.ToLower(email))
	if actor.Email != email && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	invs, err := s.invitationRepo.ListByVolunteer(ctx, email, filter)
	if err != nil {
		return nil, fmt.Errorf("list volunteer invitations: %w", err)
	}
	return s.withEvents(ctx, invs)
}

func (s *invitationService) ListHistory(ctx context.Context, email string, actor domain.Actor) ([]*domain.InvitationWithEvent, error) {
	accepted := domain.InvitationAccepted
	all, err := s.ListByVolunteer(ctx, email, domain.InvitationFilter{Status: &accepted}, actor)
	if err != nil {
		return nil, err
	}
	history := make([]*domain.InvitationWithEvent, 0, len(all))
	for _, iwe := range all {
		if iwe.Invitation.Completed {
			history = append(history, iwe)
		}
	}
	return history, nil
}

func (s *invitationService) ListAssignments(ctx context.Context, email string, actor domain.Actor) ([]*domain.InvitationWithEvent, error) {
	accepted := domain.InvitationAccepted
	all, err := s.ListByVolunteer(ctx, email, domain.InvitationFilter{Status: &accepted}, actor)
	if err != nil {
		return nil, err
	}
	assignments := make([]*domain.InvitationWithEvent, 0, len(all))
	for _, iwe := range all {
		if !iwe.Invitation.Completed {
			assignments = append(assignments, iwe)
		}
	}
	return assignments, nil
}

// authorizeTransition enforces who may confirm an invitation: an admin for
// volunteer requests, the invited volunteer (or an admin) for admin invites.
func (s *invitationService) authorizeTransition(inv *domain.Invitation, actor domain.Actor) error {
	switch inv.Origin {
	case domain.OriginVolunteerRequest:
		if !actor.IsAdmin() {
			return domain.ErrForbidden
		}
	case domain.OriginAdminInvite:
		if actor.Email != inv.VolunteerEmail && !actor.IsAdmin() {
			return domain.ErrForbidden
		}
	}
	return nil
}

func (s *invitationService) withEvents(ctx context.Context, invs []*domain.Invitation) ([]*domain.InvitationWithEvent, error) {
	out := make([]*domain.InvitationWithEvent, 0, len(invs))
	now := time.Now()
	for _, inv := range invs {
		event, err := s.eventRepo.GetByID(ctx, inv.EventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue // event deleted, invitation row about to cascade
			}
			return nil, fmt.Errorf("get event: %w", err)
		}
		event.Status = event.EffectiveStatus(now)
		out = append(out, &domain.InvitationWithEvent{Invitation: inv, Event: event})
	}
	return out, nil
}

func (s *invitationService) notify(ctx context.Context, message, typ string) {
	n := &domain.Notification{Message: message, Type: typ, CreatedAt: time.Now()}
	_ = s.notificationRepo.Create(ctx, n)
}
