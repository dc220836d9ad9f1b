package queue

import "context"

// MessageQueue is a publish-only broker connection used for outbound events.
type MessageQueue interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}
