package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/eventpass/api/functions/gateway/interfaces"
	"github.com/eventpass/api/functions/gateway/types"
)

var (
	streamName  = os.Getenv("NATS_TASKS_STREAM_NAME")
	subjectName = os.Getenv("NATS_TASKS_STREAM_SUBJECT")
	durableName = os.Getenv("NATS_TASKS_STREAM_DURABLE_NAME")
)

type NatsService struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

func NewNatsService(ctx context.Context, conn *nats.Conn) (*NatsService, error) {

	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// Create stream if it does not exist
	_, err = js.Stream(ctx, streamName)

	if err != nil {

		log.Printf("Stream %s does not exist, creating it...", streamName)

		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:     streamName,
			Subjects: []string{subjectName},
		})

		if err != nil {
			return nil, fmt.Errorf("failed to create stream: %w", err)
		}
	}

	return &NatsService{
		conn: conn,
		js:   js,
	}, nil
}

func GetNatsClient() (*nats.Conn, error) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		return nil, fmt.Errorf("NATS_URL environment variable is required")
	}
	return nats.Connect(url)
}

func (s *NatsService) PublishMsg(ctx context.Context, job interface{}) error {

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ack, err := s.js.Publish(ctx, subjectName, data)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	log.Printf("Published msg with sequence number %d on stream %q", ack.Sequence, ack.Stream)

	return nil
}

// ConsumeTasks pulls tasks one at a time and fans them out to at most
// `workers` concurrent handler calls. A handler error NAKs the message for
// redelivery; an undecodable message is terminated so it cannot wedge the
// queue. Returns once ctx is cancelled and the iterator drains.
func (s *NatsService) ConsumeTasks(ctx context.Context, workers int, handler interfaces.TaskHandler) error {

	cons, err := s.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: subjectName,
		MaxDeliver:    5,
	})
	if err != nil {
		return fmt.Errorf("failed to create or update consumer: %w", err)
	}

	iter, err := cons.Messages(jetstream.PullMaxMessages(1))
	if err != nil {
		return fmt.Errorf("failed to get iterator: %w", err)
	}

	go func() {
		<-ctx.Done()
		iter.Stop()
	}()

	sem := make(chan struct{}, workers)

	for {
		sem <- struct{}{}
		msg, err := iter.Next()
		if err != nil {
			if errors.Is(err, jetstream.ErrMsgIteratorClosed) {
				return nil
			}
			return fmt.Errorf("failed to fetch next task: %w", err)
		}

		go func(msg jetstream.Msg) {
			defer func() {
				<-sem
			}()

			var task types.QueueTask
			if err := json.Unmarshal(msg.Data(), &task); err != nil {
				log.Printf("ERR: dropping undecodable task: %v", err)
				msg.Term()
				return
			}

			if err := handler(ctx, task); err != nil {
				log.Printf("ERR: task %s failed, requeueing: %v", task.Kind, err)
				msg.Nak()
				return
			}

			msg.Ack()
		}(msg)
	}
}

func (s *NatsService) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
