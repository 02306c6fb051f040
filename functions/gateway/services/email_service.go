package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/eventpass/api/functions/gateway/helpers"
	"github.com/eventpass/api/functions/gateway/interfaces"
	"github.com/eventpass/api/functions/gateway/types"
)

type EmailService struct {
	client    *mailersend.Mailersend
	fromEmail string
	fromName  string
}

func NewEmailService() interfaces.EmailServiceInterface {
	return &EmailService{
		client:    mailersend.NewMailersend(os.Getenv("MAILERSEND_API_KEY")),
		fromEmail: os.Getenv("MAILERSEND_FROM_EMAIL"),
		fromName:  os.Getenv("MAILERSEND_FROM_NAME"),
	}
}

// SendTicketEmail delivers one attendee's ticket with the rendered PDF
// attached. Failures here never roll back issuance; the caller logs and
// moves on.
func (s *EmailService) SendTicketEmail(ctx context.Context, ticket types.Ticket, event types.Event, pdf []byte) error {
	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	from := mailersend.From{
		Name:  s.fromName,
		Email: s.fromEmail,
	}

	recipients := []mailersend.Recipient{
		{
			Name:  ticket.AttendeeName,
			Email: ticket.AttendeeEmail,
		},
	}

	message := s.client.Email.NewMessage()
	message.SetFrom(from)
	message.SetRecipients(recipients)
	message.SetSubject(fmt.Sprintf("Your ticket for %s", event.Name))
	message.SetHTML(fmt.Sprintf(
		"<p>Hi %s,</p><p>Your ticket for <strong>%s</strong> on %s is attached. Show the QR code at the door.</p><p>Ticket ref: %s</p>",
		ticket.AttendeeName, event.Name, helpers.FormatDate(event.StartTime), ticket.Id,
	))
	message.SetText(fmt.Sprintf(
		"Hi %s, your ticket for %s on %s is attached. Ticket ref: %s",
		ticket.AttendeeName, event.Name, helpers.FormatDate(event.StartTime), ticket.Id,
	))

	if len(pdf) > 0 {
		message.AddAttachment(mailersend.Attachment{
			Content:  base64.StdEncoding.EncodeToString(pdf),
			Filename: fmt.Sprintf("ticket-%s.pdf", ticket.Id),
		})
	}

	res, err := s.client.Email.Send(sendCtx, message)
	if err != nil {
		return fmt.Errorf("failed to send ticket email to %s: %w", ticket.AttendeeEmail, err)
	}

	log.Println("Ticket email sent. Message ID:", res.Header.Get("X-Message-Id"))
	return nil
}

type MockEmailService struct {
	SendTicketEmailFunc func(ctx context.Context, ticket types.Ticket, event types.Event, pdf []byte) error
}

func (m *MockEmailService) SendTicketEmail(ctx context.Context, ticket types.Ticket, event types.Event, pdf []byte) error {
	return m.SendTicketEmailFunc(ctx, ticket, event, pdf)
}
