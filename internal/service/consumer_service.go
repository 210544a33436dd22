package service

import (
	"context"
	"sync/atomic"

	"vehicle-rag-be/internal/pkg/logger"
	"vehicle-rag-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventSource is the subscribing half of events.Bus.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
	Stats() IngestStats
}

type IngestStats struct {
	Ingestions int64
	Chunks     int64
}

// consumerService keeps an audit trail of completed ingestions.
type consumerService struct {
	source     EventSource
	logger     logger.ILogger
	ingestions atomic.Int64
	chunks     atomic.Int64
}

func NewConsumerService(source EventSource, logger logger.ILogger) IConsumerService {
	return &consumerService{source: source, logger: logger}
}

// Consume subscribes and processes messages in the background until ctx is done.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.source.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) Stats() IngestStats {
	return IngestStats{
		Ingestions: cs.ingestions.Load(),
		Chunks:     cs.chunks.Load(),
	}
}

func (cs *consumerService) processMessage(msg *message.Message) {
	// Ack even undecodable messages; redelivery would fail the same way.
	defer msg.Ack()

	event, err := events.Unmarshal(msg.Payload)
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to decode event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err,
		})
		return
	}
	if event.EventType() != events.TypeDocumentsIngested {
		return
	}

	chunks := toInt64(event.Payload()["chunks"])
	cs.ingestions.Add(1)
	cs.chunks.Add(chunks)

	cs.logger.Info("CONSUMER", "Ingestion recorded", map[string]interface{}{
		"files":        event.Payload()["files"],
		"chunks":       chunks,
		"occurred_at":  event.Timestamp(),
		"total_chunks": cs.chunks.Load(),
	})
}

// toInt64 accepts the float64 that encoding/json produces for numbers.
func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}
