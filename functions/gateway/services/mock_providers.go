package services

import (
	"github.com/eventpass/api/functions/gateway/interfaces"
	"github.com/eventpass/api/functions/gateway/test_helpers"
)

var getMockQueueService = func() interfaces.QueueServiceInterface {
	return &test_helpers.MockQueueService{}
}

var getMockPaymentService = func() interfaces.PaymentServiceInterface {
	return &MockPaymentService{}
}

var getMockEntitlementService = func() interfaces.EntitlementServiceInterface {
	return &MockEntitlementService{}
}

var getMockEmailService = func() interfaces.EmailServiceInterface {
	return &MockEmailService{}
}
