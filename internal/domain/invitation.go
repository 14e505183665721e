package domain

import (
	"context"
	"time"
)

// InvitationOrigin records which actor initiated an invitation.
type InvitationOrigin string

const (
	OriginVolunteerRequest InvitationOrigin = "volunteer_request"
	OriginAdminInvite      InvitationOrigin = "admin_invite"
)

// ParseInvitationOrigin matches a string to an invitation origin.
func ParseInvitationOrigin(s string) (InvitationOrigin, bool) {
	switch InvitationOrigin(s) {
	case OriginVolunteerRequest, OriginAdminInvite:
		return InvitationOrigin(s), true
	}
	return "", false
}

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// ParseInvitationStatus matches a string to an invitation status.
func ParseInvitationStatus(s string) (InvitationStatus, bool) {
	switch InvitationStatus(s) {
	case InvitationPending, InvitationAccepted, InvitationDeclined:
		return InvitationStatus(s), true
	}
	return "", false
}

// Invitation links one volunteer to one event with its own lifecycle,
// independent of the event's status. At most one non-declined invitation may
// exist per (event, volunteer) pair. Completed is only meaningful while the
// invitation is accepted.
// swagger:model Invitation
type Invitation struct {
	ID             string           `json:"id"`
	EventID        string           `json:"event_id"`
	VolunteerEmail string           `json:"volunteer_email"`
	Origin         InvitationOrigin `json:"origin"`
	Status         InvitationStatus `json:"status"`
	Completed      bool             `json:"completed"`
	CreatedAt      time.Time        `json:"created_at"`
}

// InvitationFilter narrows invitation list queries. Nil fields match everything.
type InvitationFilter struct {
	Status *InvitationStatus
	Origin *InvitationOrigin
}

// InvitationWithEvent bundles an invitation with its related event.
type InvitationWithEvent struct {
	Invitation *Invitation `json:"invitation"`
	Event      *Event      `json:"event"`
}

// InvitationRepository defines storage operations for invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id string) (*Invitation, error)
	// GetActiveByEventAndVolunteer returns the non-declined invitation for the
	// pair, or ErrNotFound when none exists.
	GetActiveByEventAndVolunteer(ctx context.Context, eventID, email string) (*Invitation, error)
	List(ctx context.Context, filter InvitationFilter) ([]*Invitation, error)
	ListByEventID(ctx context.Context, eventID string, filter InvitationFilter) ([]*Invitation, error)
	ListByVolunteer(ctx context.Context, email string, filter InvitationFilter) ([]*Invitation, error)
	UpdateStatus(ctx context.Context, id string, status InvitationStatus) error
	SetCompleted(ctx context.Context, id string, completed bool) error
	Delete(ctx context.Context, id string) error
	CountAcceptedByEventID(ctx context.Context, eventID string) (int, error)
}

// InvitationService owns the invitation lifecycle: creation, transitions,
// capacity enforcement, and read-only projections.
type InvitationService interface {
	RequestInvitation(ctx context.Context, eventID, volunteerEmail string, origin InvitationOrigin, actor Actor) (*Invitation, error)
	// SetStatus accepts or declines a pending invitation. Accepting re-checks
	// event capacity atomically; the loser of a race for the last slot
	// observes ErrCapacityExceeded.
	SetStatus(ctx context.Context, id string, status InvitationStatus, actor Actor) (*Invitation, error)
	SetCompleted(ctx context.Context, id string, completed bool, actor Actor) (*Invitation, error)
	// Cancel withdraws a pending or accepted invitation and deletes it.
	// Cancelling an accepted invitation frees a capacity slot and reopens a
	// capacity-closed event. Completed assignments cannot be cancelled.
	Cancel(ctx context.Context, id string, actor Actor) error

	List(ctx context.Context, filter InvitationFilter) ([]*Invitation, error)
	ListByEvent(ctx context.Context, eventID string, filter InvitationFilter) ([]*Invitation, error)
	ListByVolunteer(ctx context.Context, email string, filter InvitationFilter, actor Actor) ([]*InvitationWithEvent, error)
	// ListHistory returns completed participations for the volunteer.
	ListHistory(ctx context.Context, email string, actor Actor) ([]*InvitationWithEvent, error)
	// ListAssignments returns current accepted, not-yet-completed assignments.
	ListAssignments(ctx context.Context, email string, actor Actor) ([]*InvitationWithEvent, error)
}
