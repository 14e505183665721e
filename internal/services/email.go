package services

import (
	"context"
	"fmt"

	"volunteerhub/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService creates an EmailService that renders templates and sends
// them through the configured mailer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

func (s *emailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	subject, html, text, err := s.renderer.Render("invitation", data)
	if err != nil {
		return fmt.Errorf("render invitation email: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, html, text); err != nil {
		return fmt.Errorf("send invitation email: %w", err)
	}
	return nil
}
