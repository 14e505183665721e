package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// InvitationEmailData holds data for the event invitation email sent when an
// admin invites a volunteer.
type InvitationEmailData struct {
	Email     string
	EventName string
	EventDate string
	Location  string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendInvitation(ctx context.Context, data *InvitationEmailData) error
}
