package main

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"volunteerhub/config"
	"volunteerhub/internal/adapters/auth"
	"volunteerhub/internal/adapters/email"
	delivery "volunteerhub/internal/delivery/http"
	"volunteerhub/internal/delivery/http/controllers"
	"volunteerhub/internal/delivery/http/middleware"
	"volunteerhub/internal/repository/postgres"
	"volunteerhub/internal/services"
)

// @title VolunteerHub API
// @version 1.0
// @description Volunteer and event coordination: skill-based matching, invitations with capacity enforcement, and volunteer history.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	eventRepo := postgres.NewEventRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)
	userRepo := postgres.NewUserRepository(db)
	profileStore := postgres.NewProfileRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	issuer, verifier := auth.NewJWTTokens(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(auth.DefaultCost)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.SESRegion,
			AccessKeyID:        cfg.SESAccessKeyID,
			SecretAccessKey:    cfg.SESSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureTLS,
		},
	})
	if err != nil {
		log.Fatalf("failed to create mailer: %v", err)
	}

	locks := services.NewEventLocks()
	timeout := cfg.ServiceTimeout

	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())
	eventService := services.NewEventService(eventRepo, notificationRepo, locks, timeout)
	invitationService := services.NewInvitationService(invitationRepo, eventRepo, userRepo, notificationRepo, emailService, locks, timeout)
	matchingService := services.NewMatchingService(eventRepo, userRepo, profileStore, timeout)
	authService := services.NewAuthService(userRepo, notificationRepo, hasher, issuer, cfg.TokenExpiry, timeout)
	userService := services.NewUserService(userRepo, profileStore, timeout)
	notificationService := services.NewNotificationService(notificationRepo, timeout)

	mux := delivery.NewRouter(
		verifier,
		controllers.NewAuthController(logger, authService),
		controllers.NewEventController(logger, eventService),
		controllers.NewInvitationController(logger, invitationService),
		controllers.NewMatchingController(logger, matchingService),
		controllers.NewUserController(logger, userService),
		controllers.NewNotificationController(logger, notificationService),
	)

	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
