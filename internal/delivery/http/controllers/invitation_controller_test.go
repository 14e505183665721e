package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"volunteerhub/internal/delivery/http/helpers"
	"volunteerhub/internal/delivery/http/middleware"
	"volunteerhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const testEventID = "6f1c0a6e-90a7-4b7e-9f1e-0a7b4f6d2c11"
const testInvitationID = "9b2d1c4f-3e5a-4f60-8d2b-7c1a9e0f5b33"

// fakeInvitationService implements domain.InvitationService for handler tests.
type fakeInvitationService struct {
	requestErr        error
	requestResult     *domain.Invitation
	lastEventID       string
	lastEmail         string
	lastOrigin        domain.InvitationOrigin
	lastActor         domain.Actor
	setStatusErr      error
	setStatusResult   *domain.Invitation
	lastStatus        domain.InvitationStatus
	setCompletedErr   error
	lastCompleted     bool
	cancelErr         error
	lastCancelID      string
	listByVolunteer   []*domain.InvitationWithEvent
	listByVolErr      error
	lastListEmail     string
	historyResult     []*domain.InvitationWithEvent
	assignmentsResult []*domain.InvitationWithEvent
}

func (f *fakeInvitationService) RequestInvitation(ctx context.Context, eventID, email string, origin domain.InvitationOrigin, actor domain.Actor) (*domain.Invitation, error) {
	f.lastEventID, f.lastEmail, f.lastOrigin, f.lastActor = eventID, email, origin, actor
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	if f.requestResult != nil {
		return f.requestResult, nil
	}
	return &domain.Invitation{ID: testInvitationID, EventID: eventID, VolunteerEmail: email, Origin: origin, Status: domain.InvitationPending}, nil
}

func (f *fakeInvitationService) SetStatus(ctx context.Context, id string, status domain.InvitationStatus, actor domain.Actor) (*domain.Invitation, error) {
	f.lastStatus, f.lastActor = status, actor
	if f.setStatusErr != nil {
		return nil, f.setStatusErr
	}
	if f.setStatusResult != nil {
		return f.setStatusResult, nil
	}
	return &domain.Invitation{ID: id, Status: status}, nil
}

func (f *fakeInvitationService) SetCompleted(ctx context.Context, id string, completed bool, actor domain.Actor) (*domain.Invitation, error) {
	f.lastCompleted = completed
	if f.setCompletedErr != nil {
		return nil, f.setCompletedErr
	}
	return &domain.Invitation{ID: id, Status: domain.InvitationAccepted, Completed: completed}, nil
}

func (f *fakeInvitationService) Cancel(ctx context.Context, id string, actor domain.Actor) error {
	f.lastCancelID = id
	return f.cancelErr
}

func (f *fakeInvitationService) List(ctx context.Context, filter domain.InvitationFilter) ([]*domain.Invitation, error) {
	return []*domain.Invitation{}, nil
}

func (f *fakeInvitationService) ListByEvent(ctx context.Context, eventID string, filter domain.InvitationFilter) ([]*domain.Invitation, error) {
	return []*domain.Invitation{}, nil
}

func (f *fakeInvitationService) ListByVolunteer(ctx context.Context, email string, filter domain.InvitationFilter, actor domain.Actor) ([]*domain.InvitationWithEvent, error) {
	f.lastListEmail = email
	return f.listByVolunteer, f.listByVolErr
}

func (f *fakeInvitationService) ListHistory(ctx context.Context, email string, actor domain.Actor) ([]*domain.InvitationWithEvent, error) {
	f.lastListEmail = email
	return f.historyResult, nil
}

func (f *fakeInvitationService) ListAssignments(ctx context.Context, email string, actor domain.Actor) ([]*domain.InvitationWithEvent, error) {
	f.lastListEmail = email
	return f.assignmentsResult, nil
}

func withActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(middleware.SetActor(req.Context(), actor))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) helpers.APIError {
	t.Helper()
	var resp helpers.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func TestInvitationController_CreateInvitation(t *testing.T) {
	volunteer := domain.Actor{Email: "ana@example.com", Role: domain.RoleVolunteer}
	admin := domain.Actor{Email: "root@example.com", Role: domain.RoleAdmin}

	post := func(svc domain.InvitationService, body map[string]any, actor domain.Actor) *httptest.ResponseRecorder {
		c := NewInvitationController(testLogger, svc)
		b, _ := json.Marshal(body)
		req := withActor(httptest.NewRequest(http.MethodPost, "/invitations", bytes.NewReader(b)), actor)
		rec := httptest.NewRecorder()
		c.CreateInvitation(rec, req)
		return rec
	}

	t.Run("volunteer request infers origin and email", func(t *testing.T) {
		svc := &fakeInvitationService{}
		rec := post(svc, map[string]any{"event_id": testEventID}, volunteer)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "ana@example.com", svc.lastEmail)
		assert.Equal(t, domain.OriginVolunteerRequest, svc.lastOrigin)
	})

	t.Run("naming another email makes it an admin invite", func(t *testing.T) {
		svc := &fakeInvitationService{}
		rec := post(svc, map[string]any{"event_id": testEventID, "volunteer_email": "bob@example.com"}, admin)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "bob@example.com", svc.lastEmail)
		assert.Equal(t, domain.OriginAdminInvite, svc.lastOrigin)
	})

	t.Run("naming your own email stays a volunteer request", func(t *testing.T) {
		svc := &fakeInvitationService{}
		rec := post(svc, map[string]any{"event_id": testEventID, "volunteer_email": "ana@example.com"}, volunteer)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, domain.OriginVolunteerRequest, svc.lastOrigin)
	})

	t.Run("bad event id is rejected before the service", func(t *testing.T) {
		svc := &fakeInvitationService{}
		rec := post(svc, map[string]any{"event_id": "not-a-uuid"}, volunteer)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, svc.lastEventID)
	})

	t.Run("error mapping", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			wantCode int
			wantAPI  string
		}{
			{"closed event", domain.ErrEventClosed, http.StatusConflict, helpers.ErrCodeEventClosed},
			{"duplicate", domain.ErrDuplicateInvitation, http.StatusConflict, helpers.ErrCodeConflict},
			{"unknown volunteer", domain.ErrUserNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
			{"forbidden", domain.ErrForbidden, http.StatusForbidden, helpers.ErrCodeForbidden},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := &fakeInvitationService{requestErr: tt.err}
				rec := post(svc, map[string]any{"event_id": testEventID}, volunteer)
				require.Equal(t, tt.wantCode, rec.Code)
				assert.Equal(t, tt.wantAPI, decodeError(t, rec).Code)
			})
		}
	})
}

func TestInvitationController_SetStatus(t *testing.T) {
	admin := domain.Actor{Email: "root@example.com", Role: domain.RoleAdmin}

	patch := func(svc domain.InvitationService, id, status string) *httptest.ResponseRecorder {
		c := NewInvitationController(testLogger, svc)
		b, _ := json.Marshal(map[string]string{"status": status})
		req := withActor(httptest.NewRequest(http.MethodPatch, "/invitations/"+id+"/status", bytes.NewReader(b)), admin)
		req.SetPathValue("invitationID", id)
		rec := httptest.NewRecorder()
		c.SetStatus(rec, req)
		return rec
	}

	t.Run("accept", func(t *testing.T) {
		svc := &fakeInvitationService{}
		rec := patch(svc, testInvitationID, "accepted")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.InvitationAccepted, svc.lastStatus)
	})

	t.Run("pending is not a valid target", func(t *testing.T) {
		rec := patch(&fakeInvitationService{}, testInvitationID, "pending")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("capacity race loser sees capacity_exceeded", func(t *testing.T) {
		svc := &fakeInvitationService{setStatusErr: domain.ErrCapacityExceeded}
		rec := patch(svc, testInvitationID, "accepted")
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, helpers.ErrCodeCapacityExceeded, decodeError(t, rec).Code)
	})

	t.Run("already settled invitation", func(t *testing.T) {
		svc := &fakeInvitationService{setStatusErr: domain.ErrInvalidTransition}
		rec := patch(svc, testInvitationID, "declined")
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, helpers.ErrCodeInvalidTransition, decodeError(t, rec).Code)
	})
}

func TestInvitationController_SetCompleted(t *testing.T) {
	admin := domain.Actor{Email: "root@example.com", Role: domain.RoleAdmin}
	c := NewInvitationController(testLogger, &fakeInvitationService{})

	t.Run("completed flag is required", func(t *testing.T) {
		req := withActor(httptest.NewRequest(http.MethodPatch, "/invitations/"+testInvitationID+"/completed", bytes.NewReader([]byte(`{}`))), admin)
		req.SetPathValue("invitationID", testInvitationID)
		rec := httptest.NewRecorder()
		c.SetCompleted(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		req := withActor(httptest.NewRequest(http.MethodPatch, "/invitations/"+testInvitationID+"/completed", bytes.NewReader([]byte(`{"completed":true}`))), admin)
		req.SetPathValue("invitationID", testInvitationID)
		rec := httptest.NewRecorder()
		c.SetCompleted(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestInvitationController_MyLists(t *testing.T) {
	volunteer := domain.Actor{Email: "ana@example.com", Role: domain.RoleVolunteer}
	svc := &fakeInvitationService{
		historyResult: []*domain.InvitationWithEvent{
			{Invitation: &domain.Invitation{ID: testInvitationID, Completed: true}, Event: &domain.Event{Name: "River Cleanup"}},
		},
	}
	c := NewInvitationController(testLogger, svc)

	req := withActor(httptest.NewRequest(http.MethodGet, "/me/history", nil), volunteer)
	rec := httptest.NewRecorder()
	c.MyHistory(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana@example.com", svc.lastListEmail)

	var resp struct {
		Data []*domain.InvitationWithEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "River Cleanup", resp.Data[0].Event.Name)
}
