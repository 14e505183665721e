package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"volunteerhub/internal/delivery/http/controllers"
	"volunteerhub/internal/delivery/http/middleware"
	"volunteerhub/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	invitationController *controllers.InvitationController,
	matchingController *controllers.MatchingController,
	userController *controllers.UserController,
	notificationController *controllers.NotificationController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier)
	admin := func(h http.HandlerFunc) http.HandlerFunc { return auth(middleware.RequireAdmin(h)) }

	// Auth
	mux.HandleFunc("POST /auth/register", authController.Register)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Reference data
	mux.HandleFunc("GET /skills", userController.ListSkills)
	mux.HandleFunc("GET /urgency-levels", userController.ListUrgencyLevels)

	// Events
	mux.HandleFunc("POST /events", admin(eventController.CreateEvent))
	mux.HandleFunc("GET /events", auth(eventController.ListEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(eventController.GetEvent))
	mux.HandleFunc("PATCH /events/{eventID}", admin(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", admin(eventController.DeleteEvent))
	mux.HandleFunc("GET /events/{eventID}/invitations", admin(invitationController.ListEventInvitations))
	mux.HandleFunc("GET /events/{eventID}/matches", admin(matchingController.MatchVolunteers))

	// Invitations
	mux.HandleFunc("POST /invitations", auth(invitationController.CreateInvitation))
	mux.HandleFunc("GET /invitations", admin(invitationController.ListInvitations))
	mux.HandleFunc("PATCH /invitations/{invitationID}/status", auth(invitationController.SetStatus))
	mux.HandleFunc("PATCH /invitations/{invitationID}/completed", admin(invitationController.SetCompleted))
	mux.HandleFunc("DELETE /invitations/{invitationID}", auth(invitationController.CancelInvitation))

	// Current user
	mux.HandleFunc("GET /me/profile", auth(userController.GetProfile))
	mux.HandleFunc("PUT /me/profile", auth(userController.UpdateProfile))
	mux.HandleFunc("GET /me/invitations", auth(invitationController.MyInvitations))
	mux.HandleFunc("GET /me/history", auth(invitationController.MyHistory))
	mux.HandleFunc("GET /me/assignments", auth(invitationController.MyAssignments))
	mux.HandleFunc("GET /me/matches", auth(matchingController.MatchEvents))

	// User administration
	mux.HandleFunc("GET /users", admin(userController.ListUsers))
	mux.HandleFunc("PATCH /users/{email}", admin(userController.UpdateUser))
	mux.HandleFunc("DELETE /users/{email}", admin(userController.DeleteUser))
	mux.HandleFunc("GET /users/{email}/history", admin(invitationController.VolunteerHistory))
	mux.HandleFunc("GET /users/{email}/matches", admin(matchingController.MatchEventsForVolunteer))

	// Notifications
	mux.HandleFunc("GET /notifications", auth(notificationController.ListNotifications))
	mux.HandleFunc("PATCH /notifications/{notificationID}/read", auth(notificationController.MarkRead))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
