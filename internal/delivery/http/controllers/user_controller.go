package controllers

import (
	"log/slog"
	"net/http"

	"volunteerhub/internal/delivery/http/helpers"
	"volunteerhub/internal/delivery/http/middleware"
	"volunteerhub/internal/domain"
)

// UpdateProfileRequest is the request body for PUT /me/profile.
// Dates in availability use the YYYY-MM-DD format.
type UpdateProfileRequest struct {
	FullName     string   `json:"full_name"`
	Address1     string   `json:"address1"`
	Address2     string   `json:"address2"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	ZipCode      string   `json:"zip_code"`
	Phone        string   `json:"phone"`
	Preferences  string   `json:"preferences"`
	Skills       []string `json:"skills"`
	Availability []string `json:"availability"`
}

// Validate implements Validator. Field-level rules live in the service; this
// only rejects structurally unusable input.
func (up UpdateProfileRequest) Validate() []string {
	var errs []string
	for _, d := range up.Availability {
		if _, err := domain.ParseDate(d); err != nil {
			errs = append(errs, "availability dates must be in YYYY-MM-DD format")
			break
		}
	}
	return errs
}

// UpdateUserRequest is the request body for PATCH /users/{email}.
type UpdateUserRequest struct {
	Name *string `json:"name"`
	Role *string `json:"role"`
}

// Validate implements Validator.
func (uu UpdateUserRequest) Validate() []string {
	var errs []string
	if uu.Role != nil && *uu.Role != string(domain.RoleVolunteer) && *uu.Role != string(domain.RoleAdmin) {
		errs = append(errs, "role must be volunteer or admin")
	}
	return errs
}

// ProfileSuccessResponse is the success envelope for profile endpoints.
type ProfileSuccessResponse struct {
	Data  *domain.Profile   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// UserListSuccessResponse is the success envelope for GET /users.
type UserListSuccessResponse struct {
	Data  []*domain.User    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SkillsSuccessResponse is the success envelope for GET /skills.
type SkillsSuccessResponse struct {
	Data  []string          `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type UserController struct {
	Logger  *slog.Logger
	Service domain.UserService
}

func NewUserController(logger *slog.Logger, svc domain.UserService) *UserController {
	return &UserController{
		Logger:  logger,
		Service: svc,
	}
}

// GetProfile godoc
// @Summary Get my profile
// @Description Get the authenticated volunteer's profile. A never-saved profile returns empty fields rather than 404.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ProfileSuccessResponse "data contains the profile"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/profile [get]
func (c *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	profile, err := c.Service.GetProfile(r.Context(), actor.Email)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update my profile
// @Description Replace the authenticated volunteer's profile. Skills must come from the fixed skill vocabulary; availability must contain at least one date.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Profile data"
// @Success 200 {object} controllers.ProfileSuccessResponse "data contains the saved profile"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/profile [put]
func (c *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdateProfileRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	profile := &domain.Profile{
		Email:       actor.Email,
		FullName:    req.FullName,
		Address1:    req.Address1,
		Address2:    req.Address2,
		City:        req.City,
		State:       req.State,
		ZipCode:     req.ZipCode,
		Phone:       req.Phone,
		Preferences: req.Preferences,
		Skills:      req.Skills,
	}
	for _, d := range req.Availability {
		date, _ := domain.ParseDate(d)
		profile.Availability = append(profile.Availability, date)
	}
	saved, err := c.Service.UpdateProfile(r.Context(), profile)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, saved)
}

// ListUsers godoc
// @Summary List users
// @Description List all registered users. Admin only.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.UserListSuccessResponse "data contains the users"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users [get]
func (c *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.Service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, users)
}

// UpdateUser godoc
// @Summary Update a user
// @Description Update a user's display name or role. Admin only.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param email path string true "User email"
// @Param user body UpdateUserRequest true "Fields to update"
// @Success 200 {object} controllers.RegisterSuccessResponse "data contains the updated user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{email} [patch]
func (c *UserController) UpdateUser(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if !emailRegex.MatchString(email) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid email")
		return
	}
	var req UpdateUserRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	var role *domain.Role
	if req.Role != nil {
		parsed := domain.Role(*req.Role)
		role = &parsed
	}
	user, err := c.Service.UpdateUser(r.Context(), email, req.Name, role)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Delete a user, their profile, and their invitations. Admin only.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param email path string true "User email"
// @Success 200 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{email} [delete]
func (c *UserController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if !emailRegex.MatchString(email) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid email")
		return
	}
	if err := c.Service.DeleteUser(r.Context(), email); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// ListSkills godoc
// @Summary List the skill vocabulary
// @Description Return the fixed list of skill tags accepted in profiles and event requirements.
// @Tags reference
// @Produce json
// @Success 200 {object} controllers.SkillsSuccessResponse "data contains the skill tags"
// @Router /skills [get]
func (c *UserController) ListSkills(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSONSuccess(w, http.StatusOK, domain.Skills)
}

// ListUrgencyLevels godoc
// @Summary List the urgency levels
// @Description Return the urgency levels accepted on events, in ascending order.
// @Tags reference
// @Produce json
// @Success 200 {object} controllers.SkillsSuccessResponse "data contains the urgency levels"
// @Router /urgency-levels [get]
func (c *UserController) ListUrgencyLevels(w http.ResponseWriter, r *http.Request) {
	levels := make([]string, 0, len(domain.UrgencyLevels))
	for _, u := range domain.UrgencyLevels {
		levels = append(levels, string(u))
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, levels)
}
