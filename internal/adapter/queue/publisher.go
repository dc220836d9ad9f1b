package queue

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// EventPublisher serializes events to JSON and hands them to a MessageQueue.
// Failures are logged and never returned: events are best effort.
type EventPublisher struct {
	mq  MessageQueue
	log *zap.Logger
}

// NewEventPublisher returns a publisher over mq. A nil mq yields a
// publisher that drops every event.
func NewEventPublisher(mq MessageQueue, log *zap.Logger) *EventPublisher {
	return &EventPublisher{mq: mq, log: log}
}

func (p *EventPublisher) Publish(ctx context.Context, subject string, event interface{}) {
	if p.mq == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal event", zap.String("subject", subject), zap.Error(err))
		return
	}

	if err := p.mq.Publish(ctx, subject, data); err != nil {
		p.log.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
		return
	}

	p.log.Debug("Event published", zap.String("subject", subject))
}
