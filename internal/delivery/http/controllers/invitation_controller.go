package controllers

import (
	"log/slog"
	"net/http"

	"volunteerhub/internal/delivery/http/helpers"
	"volunteerhub/internal/delivery/http/middleware"
	"volunteerhub/internal/domain"
)

// CreateInvitationRequest is the request body for POST /invitations.
// Volunteers request a spot for themselves; admins invite by email. When
// volunteer_email is omitted the authenticated caller is used.
type CreateInvitationRequest struct {
	EventID        string `json:"event_id"`
	VolunteerEmail string `json:"volunteer_email"`
}

// Validate implements Validator.
func (ci CreateInvitationRequest) Validate() []string {
	var errs []string
	if !uuidRegex.MatchString(ci.EventID) {
		errs = append(errs, "event_id must be a valid UUID")
	}
	if ci.VolunteerEmail != "" && !emailRegex.MatchString(ci.VolunteerEmail) {
		errs = append(errs, "volunteer_email must be a valid email address")
	}
	return errs
}

// SetInvitationStatusRequest is the request body for PATCH /invitations/{invitationID}/status.
type SetInvitationStatusRequest struct {
	Status string `json:"status"`
}

// Validate implements Validator. Only accepted and declined are reachable by request.
func (si SetInvitationStatusRequest) Validate() []string {
	var errs []string
	status, ok := domain.ParseInvitationStatus(si.Status)
	if !ok || status == domain.InvitationPending {
		errs = append(errs, "status must be accepted or declined")
	}
	return errs
}

// SetInvitationCompletedRequest is the request body for PATCH /invitations/{invitationID}/completed.
type SetInvitationCompletedRequest struct {
	Completed *bool `json:"completed"`
}

// Validate implements Validator.
func (sc SetInvitationCompletedRequest) Validate() []string {
	var errs []string
	if sc.Completed == nil {
		errs = append(errs, "completed is required")
	}
	return errs
}

// InvitationSuccessResponse is the success envelope for single-invitation endpoints.
type InvitationSuccessResponse struct {
	Data  *domain.Invitation `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// InvitationListSuccessResponse is the success envelope for invitation list endpoints.
type InvitationListSuccessResponse struct {
	Data  []*domain.Invitation `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// InvitationWithEventListSuccessResponse is the success envelope for volunteer-scoped
// invitation lists, which include the related event for each row.
type InvitationWithEventListSuccessResponse struct {
	Data  []*domain.InvitationWithEvent `json:"data"`
	Error *helpers.APIError             `json:"error"`
}

type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

func NewInvitationController(logger *slog.Logger, svc domain.InvitationService) *InvitationController {
	return &InvitationController{
		Logger:  logger,
		Service: svc,
	}
}

// parseInvitationFilter reads optional status and origin query parameters.
// Returns false after writing a 400 when a value is present but unknown.
func parseInvitationFilter(w http.ResponseWriter, r *http.Request) (domain.InvitationFilter, bool) {
	var filter domain.InvitationFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status, ok := domain.ParseInvitationStatus(s)
		if !ok {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "status must be pending, accepted or declined")
			return filter, false
		}
		filter.Status = &status
	}
	if s := r.URL.Query().Get("origin"); s != "" {
		origin, ok := domain.ParseInvitationOrigin(s)
		if !ok {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "origin must be volunteer_request or admin_invite")
			return filter, false
		}
		filter.Origin = &origin
	}
	return filter, true
}

// CreateInvitation godoc
// @Summary Create an invitation
// @Description Volunteers request a spot on an open event for themselves; admins invite a volunteer by email. At most one non-declined invitation may exist per event and volunteer.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invitation body CreateInvitationRequest true "Invitation data"
// @Success 201 {object} controllers.InvitationSuccessResponse "data contains the created invitation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict, event_closed"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations [post]
func (c *InvitationController) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req CreateInvitationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	email := req.VolunteerEmail
	origin := domain.OriginAdminInvite
	if email == "" || email == actor.Email {
		email = actor.Email
		origin = domain.OriginVolunteerRequest
	}
	inv, err := c.Service.RequestInvitation(r.Context(), req.EventID, email, origin, actor)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, inv)
}

// ListInvitations godoc
// @Summary List invitations
// @Description List all invitations, optionally filtered by status and origin. Admin only.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (pending, accepted, declined)"
// @Param origin query string false "Filter by origin (volunteer_request, admin_invite)"
// @Success 200 {object} controllers.InvitationListSuccessResponse "data contains the invitations"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations [get]
func (c *InvitationController) ListInvitations(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseInvitationFilter(w, r)
	if !ok {
		return
	}
	invs, err := c.Service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, invs)
}

// ListEventInvitations godoc
// @Summary List invitations for an event
// @Description List all invitations for one event, optionally filtered by status and origin. Admin only.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param status query string false "Filter by status (pending, accepted, declined)"
// @Param origin query string false "Filter by origin (volunteer_request, admin_invite)"
// @Success 200 {object} controllers.InvitationListSuccessResponse "data contains the invitations"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations [get]
func (c *InvitationController) ListEventInvitations(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("eventID")
	if !uuidRegex.MatchString(id) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid event ID")
		return
	}
	filter, ok := parseInvitationFilter(w, r)
	if !ok {
		return
	}
	invs, err := c.Service.ListByEvent(r.Context(), id, filter)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, invs)
}

// SetStatus godoc
// @Summary Accept or decline an invitation
// @Description Transition a pending invitation to accepted or declined. Accepting re-checks event capacity atomically; the loser of a race for the last slot gets capacity_exceeded. Accepting the last slot closes the event.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID (UUID)"
// @Param status body SetInvitationStatusRequest true "Target status"
// @Success 200 {object} controllers.InvitationSuccessResponse "data contains the updated invitation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition, capacity_exceeded"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{invitationID}/status [patch]
func (c *InvitationController) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("invitationID")
	if !uuidRegex.MatchString(id) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid invitation ID")
		return
	}
	var req SetInvitationStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	status, _ := domain.ParseInvitationStatus(req.Status)
	inv, err := c.Service.SetStatus(r.Context(), id, status, actor)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, inv)
}

// SetCompleted godoc
// @Summary Mark an assignment completed
// @Description Set or clear the completed flag on an accepted invitation. Admin only. Completing does not change the invitation status or free a capacity slot.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID (UUID)"
// @Param completed body SetInvitationCompletedRequest true "Completed flag"
// @Success 200 {object} controllers.InvitationSuccessResponse "data contains the updated invitation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{invitationID}/completed [patch]
func (c *InvitationController) SetCompleted(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("invitationID")
	if !uuidRegex.MatchString(id) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid invitation ID")
		return
	}
	var req SetInvitationCompletedRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	inv, err := c.Service.SetCompleted(r.Context(), id, *req.Completed, actor)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, inv)
}

// CancelInvitation godoc
// @Summary Cancel an invitation
// @Description Withdraw a pending or accepted invitation. Cancelling an accepted invitation frees a slot and reopens a capacity-closed event. Completed assignments cannot be cancelled.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{invitationID} [delete]
func (c *InvitationController) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("invitationID")
	if !uuidRegex.MatchString(id) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid invitation ID")
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Cancel(r.Context(), id, actor); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "invitation cancelled"})
}

// MyInvitations godoc
// @Summary List my invitations
// @Description List the authenticated volunteer's invitations with their related events, optionally filtered by status and origin.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (pending, accepted, declined)"
// @Param origin query string false "Filter by origin (volunteer_request, admin_invite)"
// @Success 200 {object} controllers.InvitationWithEventListSuccessResponse "data contains invitations with events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/invitations [get]
func (c *InvitationController) MyInvitations(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	filter, ok := parseInvitationFilter(w, r)
	if !ok {
		return
	}
	rows, err := c.Service.ListByVolunteer(r.Context(), actor.Email, filter, actor)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rows)
}

// MyHistory godoc
// @Summary List my volunteer history
// @Description List the authenticated volunteer's completed participations with their related events.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.InvitationWithEventListSuccessResponse "data contains completed participations"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/history [get]
func (c *InvitationController) MyHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	rows, err := c.Service.ListHistory(r.Context(), actor.Email, actor)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rows)
}

// MyAssignments godoc
// @Summary List my current assignments
// @Description List the authenticated volunteer's accepted, not-yet-completed assignments with their related events.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.InvitationWithEventListSuccessResponse "data contains current assignments"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/assignments [get]
func (c *InvitationController) MyAssignments(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	rows, err := c.Service.ListAssignments(r.Context(), actor.Email, actor)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rows)
}

// VolunteerHistory godoc
// @Summary List a volunteer's history
// @Description List one volunteer's completed participations with their related events. Admin only.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param email path string true "Volunteer email"
// @Success 200 {object} controllers.InvitationWithEventListSuccessResponse "data contains completed participations"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{email}/history [get]
func (c *InvitationController) VolunteerHistory(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if !emailRegex.MatchString(email) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid email")
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	rows, err := c.Service.ListHistory(r.Context(), email, actor)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rows)
}
