package pubsub

import "context"

type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

// Event wraps a payload with its type.
type Event[T any] struct {
	Type    EventType
	Payload T
}

type Suscriber[T any] interface {
	Subscribe(context.Context) <-chan Event[T]
}

type Publisher[T any] interface {
	Publish(EventType, T)
}
