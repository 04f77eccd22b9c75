package bus

import (
	"log/slog"
	"sync"
	"time"

	"mentionbot/internal/domain"
)

const defaultPublishTimeout = 10 * time.Second

// InMemoryBus is a Go-channel based queue between the transport and the reply loop.
type InMemoryBus struct {
	inbound        chan domain.InboundEvent
	mu             sync.RWMutex
	closed         bool
	publishTimeout time.Duration
	logger         *slog.Logger
}

// New creates a new InMemoryBus with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &InMemoryBus{
		inbound:        make(chan domain.InboundEvent, bufferSize),
		publishTimeout: defaultPublishTimeout,
		logger:         logger,
	}
}

// Publish enqueues evt. When the buffer is full it waits up to the publish
// timeout and then drops the event.
func (b *InMemoryBus) Publish(evt domain.InboundEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("attempted to publish to closed bus", "message_id", evt.MessageID)
		return
	}

	select {
	case b.inbound <- evt:
	default:
		b.logger.Warn("inbound bus full, waiting", "channel", evt.ChannelID, "message_id", evt.MessageID)
		timer := time.NewTimer(b.publishTimeout)
		defer timer.Stop()
		select {
		case b.inbound <- evt:
			b.logger.Info("event delivered after wait", "channel", evt.ChannelID)
		case <-timer.C:
			b.logger.Error("event dropped: bus full",
				"channel", evt.ChannelID,
				"message_id", evt.MessageID,
				"waited", b.publishTimeout,
			)
		}
	}
}

func (b *InMemoryBus) Subscribe() <-chan domain.InboundEvent {
	return b.inbound
}

// Close stops accepting events and closes the subscription channel.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.inbound)
	}
}
