package domain

// EventBus carries inbound events from a transport to the reply loop.
type EventBus interface {
	Publish(evt InboundEvent)
	Subscribe() <-chan InboundEvent
	Close()
}
