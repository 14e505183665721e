package controllers

import (
	"log/slog"
	"net/http"

	"volunteerhub/internal/delivery/http/helpers"
	"volunteerhub/internal/domain"
)

// NotificationListResponse is the data payload for GET /notifications.
type NotificationListResponse struct {
	Notifications []*domain.Notification `json:"notifications"`
	Pagination    helpers.PaginationMeta `json:"pagination"`
}

// NotificationListSuccessResponse is the success envelope for GET /notifications.
type NotificationListSuccessResponse struct {
	Data  *NotificationListResponse `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

type NotificationController struct {
	Logger  *slog.Logger
	Service domain.NotificationService
}

func NewNotificationController(logger *slog.Logger, svc domain.NotificationService) *NotificationController {
	return &NotificationController{
		Logger:  logger,
		Service: svc,
	}
}

// ListNotifications godoc
// @Summary List notifications
// @Description List activity notifications, newest first, paginated.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.NotificationListSuccessResponse "data contains notifications and pagination metadata"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /notifications [get]
func (c *NotificationController) ListNotifications(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	notifications, total, err := c.Service.ListNotifications(r.Context(), params)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, &NotificationListResponse{
		Notifications: notifications,
		Pagination:    helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// MarkRead godoc
// @Summary Mark a notification read
// @Description Mark one notification as read.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param notificationID path string true "Notification ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /notifications/{notificationID}/read [patch]
func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("notificationID")
	if !uuidRegex.MatchString(id) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid notification ID")
		return
	}
	if err := c.Service.MarkNotificationRead(r.Context(), id); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "notification marked read"})
}
