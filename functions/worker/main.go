package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/eventpass/api/functions/gateway/services"
	dynamodb_service "github.com/eventpass/api/functions/gateway/services/dynamodb_service"
	"github.com/eventpass/api/functions/gateway/transport"
)

const defaultWorkerSlots = 4

// The worker drains the task stream the gateway publishes to: webhook events
// get re-verified and applied, ticket asset tasks get QR + PDF + email.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := services.GetNatsClient()
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	queueService, err := services.NewNatsService(ctx, conn)
	if err != nil {
		log.Fatalf("Failed to initialize task stream: %v", err)
	}
	defer queueService.Close()

	dispatcher := services.NewSubscriptionDispatcher(
		services.GetEntitlementService(),
		dynamodb_service.NewSubscriptionService(),
	)

	processor := services.NewTaskProcessor(
		transport.GetDB(),
		dispatcher,
		dynamodb_service.NewTicketService(),
		dynamodb_service.NewEventService(),
		services.GetQRCodeService(),
		services.GetTicketPDFService(),
		services.GetEmailService(),
	)

	workers := defaultWorkerSlots
	if raw := os.Getenv("WORKER_COUNT"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			log.Fatalf("Invalid WORKER_COUNT: %q", raw)
		}
		workers = parsed
	}

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- queueService.ConsumeTasks(ctx, workers, processor.HandleTask)
	}()

	log.Printf("Worker started with %d slots. Waiting for tasks...", workers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("Worker shutting down...")
		cancel()
		<-consumeErr
	case err := <-consumeErr:
		if err != nil {
			log.Fatalf("Task consumer stopped: %v", err)
		}
	}
}
