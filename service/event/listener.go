package event

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/viant/kproc/service/messaging"
)

// Handler processes one event; an error asks the queue to redeliver it
type Handler[T any] func(event *Event[T]) error

// Listener consumes a publisher's queue on its own goroutine
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   Handler[T]
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewListener creates a listener
func NewListener[T any](publisher *Publisher[T], handler Handler[T]) *Listener[T] {
	return &Listener[T]{publisher: publisher, handler: handler}
}

// Start begins consuming until ctx is done, Stop is called or the queue closes
func (l *Listener[T]) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			msg, err := l.publisher.Consume(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, messaging.ErrClosed) {
					return
				}
				log.Printf("event listener: failed to consume: %v", err)
				continue
			}
			if err = l.handler(msg.T()); err != nil {
				log.Printf("event listener: %v %v", msg.ID(), err)
				_ = msg.Nack(err)
				continue
			}
			_ = msg.Ack()
		}
	}()
}

// Stop cancels consumption and waits for the goroutine to finish
func (l *Listener[T]) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
}

// Wait blocks until the listener returns on its own, after its queue closed
func (l *Listener[T]) Wait() {
	l.wg.Wait()
}
