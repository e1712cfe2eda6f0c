package event

import (
	"time"
)

// Context identifies where an event came from
type Context struct {
	BootID string `json:"bootID"`
	Source string `json:"source"`
}

// Event wraps a payload with its origin and publish time
type Event[T any] struct {
	ID        string    `json:"id"`
	Context   *Context  `json:"context"`
	CreatedAt time.Time `json:"createdAt"`
	Data      T         `json:"data"`
}

// NewEvent creates an event
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context: context,
		Data:    data,
	}
}
