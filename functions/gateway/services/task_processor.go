package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	"github.com/eventpass/api/functions/gateway/interfaces"
	"github.com/eventpass/api/functions/gateway/types"
)

// TaskProcessor is the worker-side handler for queue tasks. Webhook events
// run through the dispatcher; ticket asset tasks generate the QR code, render
// the PDF, and email the attendee.
type TaskProcessor struct {
	db               types.DynamoDBAPI
	dispatcher       *SubscriptionDispatcher
	ticketService    types.TicketServiceInterface
	eventService     types.EventServiceInterface
	qrCodeService    interfaces.QRCodeServiceInterface
	ticketPDFService interfaces.TicketPDFServiceInterface
	emailService     interfaces.EmailServiceInterface
}

func NewTaskProcessor(
	db types.DynamoDBAPI,
	dispatcher *SubscriptionDispatcher,
	ticketService types.TicketServiceInterface,
	eventService types.EventServiceInterface,
	qrCodeService interfaces.QRCodeServiceInterface,
	ticketPDFService interfaces.TicketPDFServiceInterface,
	emailService interfaces.EmailServiceInterface,
) *TaskProcessor {
	return &TaskProcessor{
		db:               db,
		dispatcher:       dispatcher,
		ticketService:    ticketService,
		eventService:     eventService,
		qrCodeService:    qrCodeService,
		ticketPDFService: ticketPDFService,
		emailService:     emailService,
	}
}

// HandleTask satisfies interfaces.TaskHandler
func (p *TaskProcessor) HandleTask(ctx context.Context, task types.QueueTask) error {
	switch task.Kind {
	case constants.TASK_KIND_WEBHOOK_EVENT:
		var webhookTask types.WebhookTask
		if err := json.Unmarshal(task.Payload, &webhookTask); err != nil {
			return fmt.Errorf("failed to decode webhook task: %w", err)
		}
		return p.dispatcher.ProcessWebhookEvent(ctx, p.db, webhookTask.Event)
	case constants.TASK_KIND_TICKET_ASSETS:
		var assetsTask types.TicketAssetsTask
		if err := json.Unmarshal(task.Payload, &assetsTask); err != nil {
			return fmt.Errorf("failed to decode ticket assets task: %w", err)
		}
		return p.buildTicketAssets(ctx, assetsTask)
	default:
		log.Printf("Ignoring unknown task kind %q", task.Kind)
		return nil
	}
}

// buildTicketAssets runs the post-issuance fan-out for one ticket. QR and PDF
// failures return an error so the task retries; a failed email send is logged
// and dropped since the ticket itself is already issued and fetchable.
func (p *TaskProcessor) buildTicketAssets(ctx context.Context, task types.TicketAssetsTask) error {
	ticket, err := p.ticketService.GetTicketById(ctx, p.db, task.TicketId)
	if err != nil {
		return fmt.Errorf("failed to load ticket %s: %w", task.TicketId, err)
	}
	if ticket == nil {
		log.Printf("ERR: ticket %s no longer exists, dropping assets task", task.TicketId)
		return nil
	}

	event, err := p.eventService.GetEventById(ctx, p.db, task.EventId)
	if err != nil {
		return fmt.Errorf("failed to load event %s: %w", task.EventId, err)
	}
	if event == nil {
		log.Printf("ERR: event %s no longer exists, dropping assets task for ticket %s", task.EventId, task.TicketId)
		return nil
	}

	checkinURL := os.Getenv("APEX_URL") + "/checkin/" + ticket.Id
	qrPNG, err := p.qrCodeService.GeneratePNG(checkinURL)
	if err != nil {
		return fmt.Errorf("failed to generate qr for ticket %s: %w", ticket.Id, err)
	}

	if err := p.ticketService.UpdateTicketQRCode(ctx, p.db, ticket.Id, helpers.PNGDataURI(qrPNG)); err != nil {
		return err
	}

	pdf, err := p.ticketPDFService.Render(*ticket, *event, qrPNG)
	if err != nil {
		return fmt.Errorf("failed to render pdf for ticket %s: %w", ticket.Id, err)
	}

	if err := p.emailService.SendTicketEmail(ctx, *ticket, *event, pdf); err != nil {
		log.Printf("ERR: ticket %s issued but email to %s failed: %v", ticket.Id, ticket.AttendeeEmail, err)
	}

	return nil
}
