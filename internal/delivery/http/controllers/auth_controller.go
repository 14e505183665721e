package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"volunteerhub/internal/delivery/http/helpers"
	"volunteerhub/internal/domain"
)

// RegisterRequest is the request body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate implements Validator. Password rules: at least 8 characters with
// at least one digit and one uppercase letter.
func (rr RegisterRequest) Validate() []string {
	var errs []string
	if !emailRegex.MatchString(rr.Email) {
		errs = append(errs, "email must be a valid email address")
	}
	if len(rr.Password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	var hasDigit, hasUpper bool
	for _, r := range rr.Password {
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	if !hasDigit {
		errs = append(errs, "password must contain at least one digit")
	}
	if !hasUpper {
		errs = append(errs, "password must contain at least one uppercase letter")
	}
	if strings.TrimSpace(rr.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (lr LoginRequest) Validate() []string {
	var errs []string
	if lr.Email == "" {
		errs = append(errs, "email is required")
	}
	if lr.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// LoginResponse is the data payload for a successful login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// RegisterSuccessResponse is the success envelope for POST /auth/register (201).
type RegisterSuccessResponse struct {
	Data  *domain.User      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// LoginSuccessResponse is the success envelope for POST /auth/login (200).
type LoginSuccessResponse struct {
	Data  *LoginResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Register a new account
// @Description Create a volunteer account. Email is the identity key and must be unique.
// @Tags auth
// @Accept json
// @Produce json
// @Param account body RegisterRequest true "Account data"
// @Success 201 {object} controllers.RegisterSuccessResponse "data contains the created user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/register [post]
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, user)
}

// Login godoc
// @Summary Log in
// @Description Exchange email and password for a bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} controllers.LoginSuccessResponse "data contains the token and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, &LoginResponse{Token: token, User: user})
}
