// Package messaging defines queues carrying kernel events from the dispatch
// cores to listeners running outside the kernel.
package messaging

import (
	"context"
	"errors"
)

// Vendor represents the name of a queue implementation
type Vendor string

// Supported vendors
const (
	VendorMemory Vendor = "memory"
	VendorFs     Vendor = "fs"
)

// ErrProcessed is returned when a message is acknowledged twice
var ErrProcessed = errors.New("message already processed")

// ErrClosed is returned by a closed queue
var ErrClosed = errors.New("queue closed")

// Queue represents a message queue for any payload type
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue
	Consume(ctx context.Context) (Message[T], error)
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// ID returns the message identifier
	ID() string

	// T returns the payload of this message
	T() *T

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure in processing this message
	Nack(err error) error
}
