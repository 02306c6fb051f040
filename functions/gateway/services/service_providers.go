package services

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/eventpass/api/functions/gateway/interfaces"
)

var (
	queueService     interfaces.QueueServiceInterface
	queueServiceOnce sync.Once

	paymentService     interfaces.PaymentServiceInterface
	paymentServiceOnce sync.Once

	entitlementService     interfaces.EntitlementServiceInterface
	entitlementServiceOnce sync.Once

	emailService     interfaces.EmailServiceInterface
	emailServiceOnce sync.Once

	qrCodeService     interfaces.QRCodeServiceInterface
	qrCodeServiceOnce sync.Once

	ticketPDFService     interfaces.TicketPDFServiceInterface
	ticketPDFServiceOnce sync.Once
)

func GetQueueService(ctx context.Context) (interfaces.QueueServiceInterface, error) {
	var initErr error
	queueServiceOnce.Do(func() {
		if os.Getenv("GO_ENV") == "test" {
			queueService = getMockQueueService()
		} else {
			conn, err := GetNatsClient()
			if err != nil {
				initErr = err
				return
			}
			queueService, err = NewNatsService(ctx, conn)
			if err != nil {
				initErr = err
				return
			}
		}
	})
	if queueService == nil && initErr == nil {
		initErr = fmt.Errorf("queue service failed to initialize")
	}
	return queueService, initErr
}

func ResetQueueService() {
	queueService = nil
	queueServiceOnce = sync.Once{}
}

func GetPaymentService() interfaces.PaymentServiceInterface {
	paymentServiceOnce.Do(func() {
		if os.Getenv("GO_ENV") == "test" {
			paymentService = getMockPaymentService()
		} else {
			paymentService = NewPaymentService()
		}
	})
	return paymentService
}

func ResetPaymentService() {
	paymentService = nil
	paymentServiceOnce = sync.Once{}
}

func GetEntitlementService() interfaces.EntitlementServiceInterface {
	entitlementServiceOnce.Do(func() {
		if os.Getenv("GO_ENV") == "test" {
			entitlementService = getMockEntitlementService()
		} else {
			entitlementService = NewEntitlementService()
		}
	})
	return entitlementService
}

func ResetEntitlementService() {
	entitlementService = nil
	entitlementServiceOnce = sync.Once{}
}

func GetEmailService() interfaces.EmailServiceInterface {
	emailServiceOnce.Do(func() {
		if os.Getenv("GO_ENV") == "test" {
			emailService = getMockEmailService()
		} else {
			emailService = NewEmailService()
		}
	})
	return emailService
}

func GetQRCodeService() interfaces.QRCodeServiceInterface {
	qrCodeServiceOnce.Do(func() {
		qrCodeService = NewQRCodeService()
	})
	return qrCodeService
}

func GetTicketPDFService() interfaces.TicketPDFServiceInterface {
	ticketPDFServiceOnce.Do(func() {
		ticketPDFService = NewTicketPDFService()
	})
	return ticketPDFService
}
