package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"volunteerhub/internal/delivery/http/helpers"
	"volunteerhub/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Location       string   `json:"location"`
	RequiredSkills []string `json:"required_skills"`
	Urgency        string   `json:"urgency"`
	Date           string   `json:"date"`
	Capacity       *int     `json:"capacity"`
}

// Validate implements Validator. Returns error messages for required and format rules.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(c.Location) == "" {
		errs = append(errs, "location is required")
	}
	if len(c.RequiredSkills) == 0 {
		errs = append(errs, "required_skills must not be empty")
	}
	if _, ok := domain.ParseUrgency(c.Urgency); !ok {
		errs = append(errs, "urgency must be one of Low, Medium, High, Critical")
	}
	if _, err := domain.ParseDate(c.Date); err != nil {
		errs = append(errs, "date must be in YYYY-MM-DD format")
	}
	if c.Capacity != nil && *c.Capacity < 1 {
		errs = append(errs, "capacity must be at least 1")
	}
	return errs
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}.
// Omitted fields are left unchanged. capacity null with clear_capacity true
// removes the capacity limit.
type UpdateEventRequest struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	Location       *string  `json:"location"`
	RequiredSkills []string `json:"required_skills"`
	Urgency        *string  `json:"urgency"`
	Date           *string  `json:"date"`
	Capacity       *int     `json:"capacity"`
	ClearCapacity  bool     `json:"clear_capacity"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Urgency != nil {
		if _, ok := domain.ParseUrgency(*u.Urgency); !ok {
			errs = append(errs, "urgency must be one of Low, Medium, High, Critical")
		}
	}
	if u.Date != nil {
		if _, err := domain.ParseDate(*u.Date); err != nil {
			errs = append(errs, "date must be in YYYY-MM-DD format")
		}
	}
	if u.Capacity != nil && *u.Capacity < 1 {
		errs = append(errs, "capacity must be at least 1")
	}
	return errs
}

// EventSuccessResponse is the success envelope for single-event endpoints.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success envelope for GET /events.
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create an event
// @Description Create a volunteer event. Admin only. Omitting capacity means unlimited slots. The event is created open.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	urgency, _ := domain.ParseUrgency(req.Urgency)
	date, _ := domain.ParseDate(req.Date)
	event := &domain.Event{
		Name:           req.Name,
		Description:    req.Description,
		Location:       req.Location,
		RequiredSkills: req.RequiredSkills,
		Urgency:        urgency,
		Date:           date,
		Capacity:       req.Capacity,
	}
	created, err := c.Service.CreateEvent(r.Context(), event)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, created)
}

// ListEvents godoc
// @Summary List events
// @Description List all events with derived accepted counts. Pass only_open=true to filter to events that are currently accepting volunteers.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param only_open query bool false "Return only open events"
// @Success 200 {object} controllers.EventListSuccessResponse "data contains the events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	onlyOpen := r.URL.Query().Get("only_open") == "true"
	events, err := c.Service.ListEvents(r.Context(), onlyOpen)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get an event
// @Description Get a single event by ID, including its derived accepted count and status.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("eventID")
	if !uuidRegex.MatchString(id) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid event ID")
		return
	}
	event, err := c.Service.GetEvent(r.Context(), id)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Partially update an event. Admin only. Lowering capacity below the current accepted count closes the event but never evicts accepted volunteers.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param event body UpdateEventRequest true "Fields to update"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("eventID")
	if !uuidRegex.MatchString(id) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid event ID")
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	patch := domain.EventPatch{
		Name:           req.Name,
		Description:    req.Description,
		Location:       req.Location,
		RequiredSkills: req.RequiredSkills,
		Capacity:       req.Capacity,
		ClearCapacity:  req.ClearCapacity,
	}
	if req.Urgency != nil {
		urgency, _ := domain.ParseUrgency(*req.Urgency)
		patch.Urgency = &urgency
	}
	if req.Date != nil {
		date, _ := domain.ParseDate(*req.Date)
		patch.Date = &date
	}
	updated, err := c.Service.UpdateEvent(r.Context(), id, patch)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, updated)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Delete an event and all of its invitations. Admin only.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("eventID")
	if !uuidRegex.MatchString(id) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid event ID")
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), id); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "event deleted"})
}
