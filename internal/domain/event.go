package domain

import (
	"context"
	"time"
)

// EventStatus is the open/closed state of an event.
type EventStatus string

const (
	EventStatusOpen   EventStatus = "open"
	EventStatusClosed EventStatus = "closed"
)

// Event represents a volunteer event.
// AcceptedCount is derived from accepted invitations and never stored
// independently; Status is persisted only as a function of AcceptedCount vs
// Capacity and is recomputed on every count change.
// swagger:model Event
type Event struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Location       string      `json:"location"`
	RequiredSkills []string    `json:"required_skills"`
	Urgency        Urgency     `json:"urgency"`
	Date           time.Time   `json:"date"`
	Capacity       *int        `json:"capacity"` // nil = unlimited
	AcceptedCount  int         `json:"accepted_count"`
	Status         EventStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// CapacityClosed reports whether the event is full: capacity is set and the
// accepted-volunteer count has reached it. This is the hard closing invariant.
func (e *Event) CapacityClosed() bool {
	return e.Capacity != nil && e.AcceptedCount >= *e.Capacity
}

// EffectiveStatus is the status the event presents at time now: closed when
// capacity-closed or when the event date has passed, open otherwise. Date
// staleness is a display concern and is never persisted.
func (e *Event) EffectiveStatus(now time.Time) EventStatus {
	if e.CapacityClosed() {
		return EventStatusClosed
	}
	if e.Date.Before(TruncateDate(now)) {
		return EventStatusClosed
	}
	return EventStatusOpen
}

// EventPatch holds the updatable event fields for a partial update.
// Nil fields are left unchanged. ClearCapacity removes the capacity limit and
// takes precedence over Capacity.
type EventPatch struct {
	Name           *string
	Description    *string
	Location       *string
	RequiredSkills []string
	Urgency        *Urgency
	Date           *time.Time
	Capacity       *int
	ClearCapacity  bool
}

// EventRepository defines storage operations for events. Reads return events
// with AcceptedCount populated from accepted invitations.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, onlyOpen bool) ([]*Event, error)
	Update(ctx context.Context, id string, patch EventPatch) (*Event, error)
	// Delete removes the event and cascades to its invitations.
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status EventStatus) error
}

// EventService defines admin-facing event management.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context, onlyOpen bool) ([]*Event, error)
	UpdateEvent(ctx context.Context, id string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
}
