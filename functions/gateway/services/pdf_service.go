package services

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/eventpass/api/functions/gateway/helpers"
	"github.com/eventpass/api/functions/gateway/interfaces"
	"github.com/eventpass/api/functions/gateway/types"
)

type TicketPDFService struct{}

func NewTicketPDFService() interfaces.TicketPDFServiceInterface {
	return &TicketPDFService{}
}

// Render lays out a single-page A4 ticket: event details up top, the QR
// code centered, attendee and reference lines below it.
func (s *TicketPDFService) Render(ticket types.Ticket, event types.Event, qrPNG []byte) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, event.Name, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, helpers.FormatDate(event.StartTime), "", 1, "C", false, 0, "")
	if event.Venue != "" {
		pdf.CellFormat(0, 8, event.Venue, "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	if len(qrPNG) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		imageName := "qr-" + ticket.Id
		pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(qrPNG))
		// 80mm square centered on a 210mm page
		pdf.ImageOptions(imageName, 65, pdf.GetY(), 80, 80, false, opts, 0, "")
		pdf.SetY(pdf.GetY() + 86)
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, ticket.AttendeeName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Ticket ref: %s", ticket.Id), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Admit one. Attendee %d of party %s", ticket.AttendeeIndex+1, ticket.BulkRegistrationId), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render ticket pdf: %w", err)
	}

	return buf.Bytes(), nil
}

type MockTicketPDFService struct {
	RenderFunc func(ticket types.Ticket, event types.Event, qrPNG []byte) ([]byte, error)
}

func (m *MockTicketPDFService) Render(ticket types.Ticket, event types.Event, qrPNG []byte) ([]byte, error) {
	return m.RenderFunc(ticket, event, qrPNG)
}
