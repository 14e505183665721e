package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"volunteerhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInvitationRepo is an in-memory InvitationRepository for tests. It
// mirrors the real repo's atomic check-and-set transitions.
type fakeInvitationRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Invitation
	nextID int
	err    error // if set, Create returns this error
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{
		byID:   make(map[string]*domain.Invitation),
		nextID: 1,
	}
}

func (f *fakeInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, other := range f.byID {
		if other.EventID == inv.EventID && other.VolunteerEmail == inv.VolunteerEmail && other.Status != domain.InvitationDeclined {
			return domain.ErrDuplicateInvitation
		}
	}
	inv.ID = fmt.Sprintf("inv-%d", f.nextID)
	f.nextID++
	cp := *inv
	f.byID[inv.ID] = &cp
	return nil
}

func (f *fakeInvitationRepo) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv, ok := f.byID[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInvitationRepo) GetActiveByEventAndVolunteer(ctx context.Context, eventID, email string) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.byID {
		if inv.EventID == eventID && inv.VolunteerEmail == email && inv.Status != domain.InvitationDeclined {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInvitationRepo) List(ctx context.Context, filter domain.InvitationFilter) ([]*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Invitation
	for _, inv := range f.byID {
		if matchesFilter(inv, filter) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeInvitationRepo) ListByEventID(ctx context.Context, eventID string, filter domain.InvitationFilter) ([]*domain.Invitation, error) {
	all, _ := f.List(ctx, filter)
	var out []*domain.Invitation
	for _, inv := range all {
		if inv.EventID == eventID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) ListByVolunteer(ctx context.Context, email string, filter domain.InvitationFilter) ([]*domain.Invitation, error) {
	all, _ := f.List(ctx, filter)
	var out []*domain.Invitation
	for _, inv := range all {
		if inv.VolunteerEmail == email {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if inv.Status != domain.InvitationPending {
		return domain.ErrInvalidTransition
	}
	inv.Status = status
	return nil
}

func (f *fakeInvitationRepo) SetCompleted(ctx context.Context, id string, completed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if inv.Status != domain.InvitationAccepted {
		return domain.ErrInvalidTransition
	}
	inv.Completed = completed
	return nil
}

func (f *fakeInvitationRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeInvitationRepo) CountAcceptedByEventID(ctx context.Context, eventID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countAcceptedLocked(eventID), nil
}

func (f *fakeInvitationRepo) countAcceptedLocked(eventID string) int {
	n := 0
	for _, inv := range f.byID {
		if inv.EventID == eventID && inv.Status == domain.InvitationAccepted {
			n++
		}
	}
	return n
}

func matchesFilter(inv *domain.Invitation, filter domain.InvitationFilter) bool {
	if filter.Status != nil && inv.Status != *filter.Status {
		return false
	}
	if filter.Origin != nil && inv.Origin != *filter.Origin {
		return false
	}
	return true
}

// fakeEventRepo is an in-memory EventRepository. AcceptedCount is derived
// from the linked invitation repo on every read, like the SQL subquery does.
type fakeEventRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Event
	invs   *fakeInvitationRepo
	nextID int
	err    error // if set, Create returns this error
}

func newFakeEventRepo(invs *fakeInvitationRepo) *fakeEventRepo {
	return &fakeEventRepo{
		byID:   make(map[string]*domain.Event),
		invs:   invs,
		nextID: 1,
	}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	if f.invs != nil {
		cp.AcceptedCount, _ = f.invs.CountAcceptedByEventID(ctx, id)
	}
	return &cp, nil
}

func (f *fakeEventRepo) List(ctx context.Context, onlyOpen bool) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.byID {
		if onlyOpen && e.Status != domain.EventStatusOpen {
			continue
		}
		cp := *e
		if f.invs != nil {
			cp.AcceptedCount, _ = f.invs.CountAcceptedByEventID(ctx, e.ID)
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	f.mu.Lock()
	e, ok := f.byID[id]
	if !ok {
		f.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	if patch.Name != nil {
		e.Name = *patch.Name
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Location != nil {
		e.Location = *patch.Location
	}
	if patch.RequiredSkills != nil {
		e.RequiredSkills = patch.RequiredSkills
	}
	if patch.Urgency != nil {
		e.Urgency = *patch.Urgency
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	if patch.ClearCapacity {
		e.Capacity = nil
	} else if patch.Capacity != nil {
		e.Capacity = patch.Capacity
	}
	e.UpdatedAt = time.Now()
	f.mu.Unlock()
	return f.GetByID(ctx, id)
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeEventRepo) SetStatus(ctx context.Context, id string, status domain.EventStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	return nil
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	cp := *u
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.User
	for _, u := range f.byEmail {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[u.Email]; !ok {
		return domain.ErrNotFound
	}
	cp := *u
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[email]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byEmail, email)
	return nil
}

// fakeProfileStore is an in-memory ProfileStore for tests.
type fakeProfileStore struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Profile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{byEmail: make(map[string]*domain.Profile)}
}

func (f *fakeProfileStore) Get(ctx context.Context, email string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byEmail[email]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfileStore) Put(ctx context.Context, p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.byEmail[p.Email] = &cp
	return nil
}

// fakeNotificationRepo records notifications written by services.
type fakeNotificationRepo struct {
	mu      sync.Mutex
	created []*domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = fmt.Sprintf("n-%d", len(f.created)+1)
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Notification, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.Notification(nil), f.created...), len(f.created), nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.created {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

// fakeEmailService records invitation emails and can simulate failure.
type fakeEmailService struct {
	mu   sync.Mutex
	sent []*domain.InvitationEmailData
	err  error
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{}
}

func (f *fakeEmailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

// invitationFixture wires an InvitationService over fresh fakes with one
// registered volunteer and one open event.
type invitationFixture struct {
	svc       domain.InvitationService
	invs      *fakeInvitationRepo
	events    *fakeEventRepo
	users     *fakeUserRepo
	notifs    *fakeNotificationRepo
	emails    *fakeEmailService
	event     *domain.Event
	volunteer domain.Actor
	admin     domain.Actor
}

func newInvitationFixture(t *testing.T, capacity *int) *invitationFixture {
	t.Helper()
	invs := newFakeInvitationRepo()
	events := newFakeEventRepo(invs)
	users := newFakeUserRepo()
	notifs := newFakeNotificationRepo()
	emails := newFakeEmailService()

	for _, email := range []string{"ana@example.com", "bob@example.com", "cat@example.com"} {
		require.NoError(t, users.Create(context.Background(), &domain.User{Email: email, Role: domain.RoleVolunteer}))
	}

	event := &domain.Event{
		Name:           "River Cleanup",
		Location:       "Rio Grande",
		RequiredSkills: []string{"Logistics"},
		Urgency:        domain.UrgencyMedium,
		Date:           domain.TruncateDate(time.Now().AddDate(0, 0, 7)),
		Capacity:       capacity,
		Status:         domain.EventStatusOpen,
	}
	require.NoError(t, events.Create(context.Background(), event))

	svc := NewInvitationService(invs, events, users, notifs, emails, NewEventLocks(), 5*time.Second)
	return &invitationFixture{
		svc:       svc,
		invs:      invs,
		events:    events,
		users:     users,
		notifs:    notifs,
		emails:    emails,
		event:     event,
		volunteer: domain.Actor{Email: "ana@example.com", Role: domain.RoleVolunteer},
		admin:     domain.Actor{Email: "root@example.com", Role: domain.RoleAdmin},
	}
}

func intPtr(n int) *int { return &n }

func TestInvitationService_RequestInvitation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(t *testing.T, fx *invitationFixture)
		email   string
		origin  domain.InvitationOrigin
		actor   func(fx *invitationFixture) domain.Actor
		wantErr error
		assert  func(t *testing.T, fx *invitationFixture, inv *domain.Invitation)
	}{
		{
			name:   "volunteer requests own spot",
			setup:  func(t *testing.T, fx *invitationFixture) {},
			email:  "ana@example.com",
			origin: domain.OriginVolunteerRequest,
			actor:  func(fx *invitationFixture) domain.Actor { return fx.volunteer },
			assert: func(t *testing.T, fx *invitationFixture, inv *domain.Invitation) {
				require.NotEmpty(t, inv.ID)
				assert.Equal(t, domain.InvitationPending, inv.Status)
				assert.Equal(t, domain.OriginVolunteerRequest, inv.Origin)
				assert.False(t, inv.Completed)
				assert.Len(t, fx.notifs.created, 1)
				assert.Empty(t, fx.emails.sent)
			},
		},
		{
			name:   "admin invite sends email",
			setup:  func(t *testing.T, fx *invitationFixture) {},
			email:  "bob@example.com",
			origin: domain.OriginAdminInvite,
			actor:  func(fx *invitationFixture) domain.Actor { return fx.admin },
			assert: func(t *testing.T, fx *invitationFixture, inv *domain.Invitation) {
				assert.Equal(t, domain.OriginAdminInvite, inv.Origin)
				require.Len(t, fx.emails.sent, 1)
				assert.Equal(t, "bob@example.com", fx.emails.sent[0].Email)
				assert.Equal(t, "River Cleanup", fx.emails.sent[0].EventName)
			},
		},
		{
			name:   "email failure does not fail the invite",
			setup:  func(t *testing.T, fx *invitationFixture) { fx.emails.err = errors.New("ses down") },
			email:  "bob@example.com",
			origin: domain.OriginAdminInvite,
			actor:  func(fx *invitationFixture) domain.Actor { return fx.admin },
			assert: func(t *testing.T, fx *invitationFixture, inv *domain.Invitation) {
				require.NotEmpty(t, inv.ID)
				// Invite notification plus the delivery warning.
				assert.Len(t, fx.notifs.created, 2)
			},
		},
		{
			name:    "volunteer cannot request for someone else",
			setup:   func(t *testing.T, fx *invitationFixture) {},
			email:   "bob@example.com",
			origin:  domain.OriginVolunteerRequest,
			actor:   func(fx *invitationFixture) domain.Actor { return fx.volunteer },
			wantErr: domain.ErrForbidden,
		},
		{
			name:    "non-admin cannot invite",
			setup:   func(t *testing.T, fx *invitationFixture) {},
			email:   "bob@example.com",
			origin:  domain.OriginAdminInvite,
			actor:   func(fx *invitationFixture) domain.Actor { return fx.volunteer },
			wantErr: domain.ErrForbidden,
		},
		{
			name:    "unknown volunteer",
			setup:   func(t *testing.T, fx *invitationFixture) {},
			email:   "ghost@example.com",
			origin:  domain.OriginAdminInvite,
			actor:   func(fx *invitationFixture) domain.Actor { return fx.admin },
			wantErr: domain.ErrUserNotFound,
		},
		{
			name: "closed event rejects requests",
			setup: func(t *testing.T, fx *invitationFixture) {
				require.NoError(t, fx.events.SetStatus(ctx, fx.event.ID, domain.EventStatusClosed))
				// Force capacity closure so EffectiveStatus reports closed.
				one := 0
				fx.events.byID[fx.event.ID].Capacity = &one
			},
			email:   "ana@example.com",
			origin:  domain.OriginVolunteerRequest,
			actor:   func(fx *invitationFixture) domain.Actor { return fx.volunteer },
			wantErr: domain.ErrEventClosed,
		},
		{
			name: "past-dated event rejects requests",
			setup: func(t *testing.T, fx *invitationFixture) {
				fx.events.byID[fx.event.ID].Date = domain.TruncateDate(time.Now().AddDate(0, 0, -1))
			},
			email:   "ana@example.com",
			origin:  domain.OriginVolunteerRequest,
			actor:   func(fx *invitationFixture) domain.Actor { return fx.volunteer },
			wantErr: domain.ErrEventClosed,
		},
		{
			name: "duplicate active invitation",
			setup: func(t *testing.T, fx *invitationFixture) {
				_, err := fx.svc.RequestInvitation(ctx, fx.event.ID, "ana@example.com", domain.OriginVolunteerRequest, fx.volunteer)
				require.NoError(t, err)
			},
			email:   "ana@example.com",
			origin:  domain.OriginVolunteerRequest,
			actor:   func(fx *invitationFixture) domain.Actor { return fx.volunteer },
			wantErr: domain.ErrDuplicateInvitation,
		},
		{
			name: "declined invitation does not block a new request",
			setup: func(t *testing.T, fx *invitationFixture) {
				inv, err := fx.svc.RequestInvitation(ctx, fx.event.ID, "ana@example.com", domain.OriginVolunteerRequest, fx.volunteer)
				require.NoError(t, err)
				_, err = fx.svc.SetStatus(ctx, inv.ID, domain.InvitationDeclined, fx.admin)
				require.NoError(t, err)
			},
			email:  "ana@example.com",
			origin: domain.OriginVolunteerRequest,
			actor:  func(fx *invitationFixture) domain.Actor { return fx.volunteer },
			assert: func(t *testing.T, fx *invitationFixture, inv *domain.Invitation) {
				assert.Equal(t, domain.InvitationPending, inv.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newInvitationFixture(t, intPtr(5))
			tt.setup(t, fx)
			inv, err := fx.svc.RequestInvitation(ctx, fx.event.ID, tt.email, tt.origin, tt.actor(fx))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.assert != nil {
				tt.assert(t, fx, inv)
			}
		})
	}
}

func TestInvitationService_SetStatus(t *testing.T) {
	ctx := context.Background()

	request := func(t *testing.T, fx *invitationFixture, email string) *domain.Invitation {
		t.Helper()
		actor := domain.Actor{Email: email, Role: domain.RoleVolunteer}
		inv, err := fx.svc.RequestInvitation(ctx, fx.event.ID, email, domain.OriginVolunteerRequest, actor)
		require.NoError(t, err)
		return inv
	}

	t.Run("admin accepts a volunteer request", func(t *testing.T) {
		fx := newInvitationFixture(t, intPtr(2))
		inv := request(t, fx, "ana@example.com")

		got, err := fx.svc.SetStatus(ctx, inv.ID, domain.InvitationAccepted, fx.admin)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationAccepted, got.Status)

		event, err := fx.events.GetByID(ctx, fx.event.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, event.AcceptedCount)
		assert.Equal(t, domain.EventStatusOpen, event.Status)
	})

	t.Run("volunteer cannot confirm their own request", func(t *testing.T) {
		fx := newInvitationFixture(t, intPtr(2))
		inv := request(t, fx, "ana@example.com")

		_, err := fx.svc.SetStatus(ctx, inv.ID, domain.InvitationAccepted, fx.volunteer)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("invited volunteer accepts an admin invite", func(t *testing.T) {
		fx := newInvitationFixture(t, intPtr(2))
		inv, err := fx.svc.RequestInvitation(ctx, fx.event.ID, "ana@example.com", domain.OriginAdminInvite, fx.admin)
		require.NoError(t, err)

		got, err := fx.svc.SetStatus(ctx, inv.ID, domain.InvitationAccepted, fx.volunteer)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationAccepted, got.Status)
	})

	t.Run("another volunteer cannot touch an admin invite", func(t *testing.T) {
		fx := newInvitationFixture(t, intPtr(2))
		inv, err := fx.svc.RequestInvitation(ctx, fx.event.ID, "ana@example.com", domain.OriginAdminInvite, fx.admin)
		require.NoError(t, err)

		other := domain.Actor{Email: "bob@example.com", Role: domain.RoleVolunteer}
		_, err = fx.svc.SetStatus(ctx, inv.ID, domain.InvitationAccepted, other)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("accepting the last slot closes the event", func(t *testing.T) {
		fx := newInvitationFixture(t, intPtr(2))
		a := request(t, fx, "ana@example.com")
		b := request(t, fx, "bob@example.com")
		c := request(t, fx, "cat@example.com")

		_, err := fx.svc.SetStatus(ctx, a.ID, domain.InvitationAccepted, fx.admin)
		require.NoError(t, err)
		_, err = fx.svc.SetStatus(ctx, b.ID, domain.InvitationAccepted, fx.admin)
		require.NoError(t, err)

		event, err := fx.events.GetByID(ctx, fx.event.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, event.AcceptedCount)
		assert.Equal(t, domain.EventStatusClosed, event.Status)

		// The third pending invitation survives but can no longer be accepted.
		_, err = fx.svc.SetStatus(ctx, c.ID, domain.InvitationAccepted, fx.admin)
		require.ErrorIs(t, err, domain.ErrCapacityExceeded)
		got, err := fx.invs.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationPending, got.Status)

		// Declining it still works.
		_, err = fx.svc.SetStatus(ctx, c.ID, domain.InvitationDeclined, fx.admin)
		require.NoError(t, err)
	})

	t.Run("declining never touches the event", func(t *testing.T) {
		fx := newInvitationFixture(t, intPtr(1))
		inv := request(t, fx, "ana@example.com")

		got, err := fx.svc.SetStatus(ctx, inv.ID, domain.InvitationDeclined, fx.admin)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationDeclined, got.Status)

		event, err := fx.events.GetByID(ctx, fx.event.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, event.AcceptedCount)
		assert.Equal(t, domain.EventStatusOpen, event.Status)
	})

	t.Run("transitions only apply to pending invitations", func(t *testing.T) {
		fx := newInvitationFixture(t, intPtr(2))
		inv := request(t, fx, "ana@example.com")
		_, err := fx.svc.SetStatus(ctx, inv.ID, domain.InvitationAccepted, fx.admin)
		require.NoError(t, err)

		_, err = fx.svc.SetStatus(ctx, inv.ID, domain.InvitationDeclined, fx.admin)
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
		_, err = fx.svc.SetStatus(ctx, inv.ID, domain.InvitationAccepted, fx.admin)
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("unknown invitation", func(t *testing.T) {
		fx := newInvitationFixture(t, intPtr(2))
		_, err := fx.svc.SetStatus(ctx, "missing", domain.InvitationAccepted, fx.admin)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("pending is not a valid target", func(t *testing.T) {
		fx := newInvitationFixture(t, intPtr(2))
		inv := request(t, fx, "ana@example.com")
		_, err := fx.svc.SetStatus(ctx, inv.ID, domain.InvitationPending, fx.admin)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestInvitationService_AcceptRaceForLastSlot(t *testing.T) {
	ctx := context.Background()
	fx := newInvitationFixture(t, intPtr(1))

	invA, err := fx.svc.RequestInvitation(ctx, fx.event.ID, "ana@example.com", domain.OriginAdminInvite, fx.admin)
	require.NoError(t, err)
	invB, err := fx.svc.RequestInvitation(ctx, fx.event.ID, "bob@example.com", domain.OriginAdminInvite, fx.admin)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{invA.ID, invB.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = fx.svc.SetStatus(ctx, id, domain.InvitationAccepted, fx.admin)
		}(i, id)
	}
	wg.Wait()

	var accepted, rejected int
	for _, err := range errs {
		if err == nil {
			accepted++
		} else if errors.Is(err, domain.ErrCapacityExceeded) {
			rejected++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, rejected)

	event, err := fx.events.GetByID(ctx, fx.event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, event.AcceptedCount)
	assert.Equal(t, domain.EventStatusClosed, event.Status)
}

func TestInvitationService_SetCompleted(t *testing.T) {
	ctx := context.Background()

	accepted := func(t *testing.T, fx *invitationFixture) *domain.Invitation {
		t.Helper()
		inv, err := fx.svc.RequestInvitation(ctx, fx.event.ID, "ana@example.com", domain.OriginVolunteerRequest, fx.volunteer)
		require.NoError(t, err)
		inv, err = fx.svc.SetStatus(ctx, inv.ID, domain.InvitationAccepted, fx.admin)
		require.NoError(t, err)
		return inv
	}

	t.Run("admin marks an accepted assignment completed", func(t *testing.T) {
		fx := newInvitationFixture(t, nil)
		inv := accepted(t, fx)

		got, err := fx.svc.SetCompleted(ctx, inv.ID, true, fx.admin)
		require.NoError(t, err)
		assert.True(t, got.Completed)
		assert.Equal(t, domain.InvitationAccepted, got.Status)

		// Completion never frees the slot.
		event, err := fx.events.GetByID(ctx, fx.event.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, event.AcceptedCount)
	})

	t.Run("repeating the same state is a no-op", func(t *testing.T) {
		fx := newInvitationFixture(t, nil)
		inv := accepted(t, fx)
		_, err := fx.svc.SetCompleted(ctx, inv.ID, true, fx.admin)
		require.NoError(t, err)
		got, err := fx.svc.SetCompleted(ctx, inv.ID, true, fx.admin)
		require.NoError(t, err)
		assert.True(t, got.Completed)
	})

	t.Run("completion can be reverted", func(t *testing.T) {
		fx := newInvitationFixture(t, nil)
		inv := accepted(t, fx)
		_, err := fx.svc.SetCompleted(ctx, inv.ID, true, fx.admin)
		require.NoError(t, err)
		got, err := fx.svc.SetCompleted(ctx, inv.ID, false, fx.admin)
		require.NoError(t, err)
		assert.False(t, got.Completed)
	})

	t.Run("non-admin is rejected", func(t *testing.T) {
		fx := newInvitationFixture(t, nil)
		inv := accepted(t, fx)
		_, err := fx.svc.SetCompleted(ctx, inv.ID, true, fx.volunteer)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("pending invitation cannot be completed", func(t *testing.T) {
		fx := newInvitationFixture(t, nil)
		inv, err := fx.svc.RequestInvitation(ctx, fx.event.ID, "ana@example.com", domain.OriginVolunteerRequest, fx.volunteer)
		require.NoError(t, err)
		_, err = fx.svc.SetCompleted(ctx, inv.ID, true, fx.admin)
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestInvitationService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelling an accepted invitation reopens the event", func(t *testing.T) {
		fx := newInvitationFixture(t, intPtr(1))
		inv, err := fx.svc.RequestInvitation(ctx, fx.event.ID, "ana@example.com", domain.OriginVolunteerRequest, fx.volunteer)
		require.NoError(t, err)
		_, err = fx.svc.SetStatus(ctx, inv.ID, domain.InvitationAccepted, fx.admin)
		require.NoError(t, err)

		event, err := fx.events.GetByID(ctx, fx.event.ID)
		require.NoError(t, err)
		require.Equal(t, domain.EventStatusClosed, event.Status)

		require.NoError(t, fx.svc.Cancel(ctx, inv.ID, fx.volunteer))

		_, err = fx.invs.GetByID(ctx, inv.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)

		event, err = fx.events.GetByID(ctx, fx.event.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, event.AcceptedCount)
		assert.Equal(t, domain.EventStatusOpen, event.Status)
	})

	t.Run("cancelling a pending invitation leaves the event alone", func(t *testing.T) {
		fx := newInvitationFixture(t, intPtr(1))
		inv, err := fx.svc.RequestInvitation(ctx, fx.event.ID, "ana@example.com", domain.OriginVolunteerRequest, fx.volunteer)
		require.NoError(t, err)
		require.NoError(t, fx.svc.Cancel(ctx, inv.ID, fx.volunteer))

		event, err := fx.events.GetByID(ctx, fx.event.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusOpen, event.Status)
	})

	t.Run("only the owner or an admin may cancel", func(t *testing.T) {
		fx := newInvitationFixture(t, intPtr(1))
		inv, err := fx.svc.RequestInvitation(ctx, fx.event.ID, "ana@example.com", domain.OriginVolunteerRequest, fx.volunteer)
		require.NoError(t, err)

		other := domain.Actor{Email: "bob@example.com", Role: domain.RoleVolunteer}
		require.ErrorIs(t, fx.svc.Cancel(ctx, inv.ID, other), domain.ErrForbidden)
		require.NoError(t, fx.svc.Cancel(ctx, inv.ID, fx.admin))
	})

	t.Run("completed assignments cannot be cancelled", func(t *testing.T) {
		fx := newInvitationFixture(t, intPtr(1))
		inv, err := fx.svc.RequestInvitation(ctx, fx.event.ID, "ana@example.com", domain.OriginVolunteerRequest, fx.volunteer)
		require.NoError(t, err)
		_, err = fx.svc.SetStatus(ctx, inv.ID, domain.InvitationAccepted, fx.admin)
		require.NoError(t, err)
		_, err = fx.svc.SetCompleted(ctx, inv.ID, true, fx.admin)
		require.NoError(t, err)

		require.ErrorIs(t, fx.svc.Cancel(ctx, inv.ID, fx.volunteer), domain.ErrInvalidTransition)
	})
}

func TestInvitationService_HistoryAndAssignments(t *testing.T) {
	ctx := context.Background()
	fx := newInvitationFixture(t, nil)

	second := &domain.Event{
		Name:           "Food Drive",
		Location:       "Downtown",
		RequiredSkills: []string{"Catering"},
		Urgency:        domain.UrgencyHigh,
		Date:           domain.TruncateDate(time.Now().AddDate(0, 0, 14)),
		Status:         domain.EventStatusOpen,
	}
	require.NoError(t, fx.events.Create(ctx, second))

	invA, err := fx.svc.RequestInvitation(ctx, fx.event.ID, "ana@example.com", domain.OriginVolunteerRequest, fx.volunteer)
	require.NoError(t, err)
	invB, err := fx.svc.RequestInvitation(ctx, second.ID, "ana@example.com", domain.OriginVolunteerRequest, fx.volunteer)
	require.NoError(t, err)

	_, err = fx.svc.SetStatus(ctx, invA.ID, domain.InvitationAccepted, fx.admin)
	require.NoError(t, err)
	_, err = fx.svc.SetStatus(ctx, invB.ID, domain.InvitationAccepted, fx.admin)
	require.NoError(t, err)
	_, err = fx.svc.SetCompleted(ctx, invA.ID, true, fx.admin)
	require.NoError(t, err)

	history, err := fx.svc.ListHistory(ctx, "ana@example.com", fx.volunteer)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, invA.ID, history[0].Invitation.ID)
	assert.Equal(t, "River Cleanup", history[0].Event.Name)

	assignments, err := fx.svc.ListAssignments(ctx, "ana@example.com", fx.volunteer)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, invB.ID, assignments[0].Invitation.ID)
	assert.Equal(t, "Food Drive", assignments[0].Event.Name)

	t.Run("volunteers cannot read other volunteers", func(t *testing.T) {
		other := domain.Actor{Email: "bob@example.com", Role: domain.RoleVolunteer}
		_, err := fx.svc.ListHistory(ctx, "ana@example.com", other)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("admins can read any volunteer", func(t *testing.T) {
		history, err := fx.svc.ListHistory(ctx, "ana@example.com", fx.admin)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})
}
