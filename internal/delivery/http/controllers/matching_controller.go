package controllers

import (
	"log/slog"
	"net/http"

	"volunteerhub/internal/delivery/http/helpers"
	"volunteerhub/internal/delivery/http/middleware"
	"volunteerhub/internal/domain"
)

// MatchedEventsSuccessResponse is the success envelope for event matching endpoints.
type MatchedEventsSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// MatchedVolunteersSuccessResponse is the success envelope for GET /events/{eventID}/matches.
type MatchedVolunteersSuccessResponse struct {
	Data  []*domain.Volunteer `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

type MatchingController struct {
	Logger  *slog.Logger
	Service domain.MatchingService
}

func NewMatchingController(logger *slog.Logger, svc domain.MatchingService) *MatchingController {
	return &MatchingController{
		Logger:  logger,
		Service: svc,
	}
}

// MatchEvents godoc
// @Summary Match events for the authenticated volunteer
// @Description Return events whose required skills intersect the volunteer's skills and whose date falls within the volunteer's availability. Sorted by date, then urgency (most urgent first). Admins may pass include_closed=true to include closed and past events.
// @Tags matching
// @Produce json
// @Security BearerAuth
// @Param include_closed query bool false "Include closed and past events (admin only)"
// @Success 200 {object} controllers.MatchedEventsSuccessResponse "data contains the matched events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/matches [get]
func (c *MatchingController) MatchEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	includeClosed := actor.IsAdmin() && r.URL.Query().Get("include_closed") == "true"
	events, err := c.Service.MatchEventsForVolunteer(r.Context(), actor.Email, includeClosed)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// MatchEventsForVolunteer godoc
// @Summary Match events for a volunteer
// @Description Return events compatible with one volunteer's skills and availability, including closed and past events. Admin only.
// @Tags matching
// @Produce json
// @Security BearerAuth
// @Param email path string true "Volunteer email"
// @Success 200 {object} controllers.MatchedEventsSuccessResponse "data contains the matched events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{email}/matches [get]
func (c *MatchingController) MatchEventsForVolunteer(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if !emailRegex.MatchString(email) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid email")
		return
	}
	events, err := c.Service.MatchEventsForVolunteer(r.Context(), email, true)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// MatchVolunteers godoc
// @Summary Match volunteers for an event
// @Description Return volunteers whose skills intersect the event's required skills and whose availability covers the event date. Sorted by skill overlap (highest first). Admin only.
// @Tags matching
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.MatchedVolunteersSuccessResponse "data contains the matched volunteers"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/matches [get]
func (c *MatchingController) MatchVolunteers(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("eventID")
	if !uuidRegex.MatchString(id) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid event ID")
		return
	}
	volunteers, err := c.Service.MatchVolunteersForEvent(r.Context(), id)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, volunteers)
}
