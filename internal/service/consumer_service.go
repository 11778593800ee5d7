package service

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/dto"
	"ai-query-router-be/internal/pkg/logger"
	"ai-query-router-be/pkg/events"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
	Snapshot() *dto.LiveCountersResponse
}

// consumerService keeps running counters of routing events since process start
type consumerService struct {
	subscriber message.Subscriber
	logger     logger.ILogger

	mu         sync.Mutex
	since      time.Time
	total      int64
	fallbacks  int64
	categories map[string]int64
	outcomes   map[string]int64
}

func NewConsumerService(subscriber message.Subscriber, log logger.ILogger) IConsumerService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &consumerService{
		subscriber: subscriber,
		logger:     log,
		since:      time.Now(),
		categories: make(map[string]int64),
		outcomes:   make(map[string]int64),
	}
}

// Consume subscribes and returns; messages are processed until ctx ends
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, events.Subject(constant.EventTypeRoutingDecided))
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

func (cs *consumerService) processMessage(msg *message.Message) {
	// malformed events are acked so they are not redelivered
	defer msg.Ack()

	evt, err := events.DecodeRoutingDecided(msg.Payload)
	if err != nil {
		cs.logger.Warn("CONSUMER", "Dropping malformed routing event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.total++
	if evt.FallbackTriggered {
		cs.fallbacks++
	}
	cs.categories[evt.PrimaryCategory]++
	cs.outcomes[evt.Outcome]++
}

func (cs *consumerService) Snapshot() *dto.LiveCountersResponse {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := &dto.LiveCountersResponse{
		Since:      cs.since,
		Total:      cs.total,
		Fallbacks:  cs.fallbacks,
		Categories: make(map[string]int64, len(cs.categories)),
		Outcomes:   make(map[string]int64, len(cs.outcomes)),
	}
	for k, v := range cs.categories {
		out.Categories[k] = v
	}
	for k, v := range cs.outcomes {
		out.Outcomes[k] = v
	}
	return out
}
