package rpc

import (
	"context"
	"sync"
)

// Subscription is a typed, non-restartable stream of node notifications. Items are delivered
// in arrival order. Chan is closed when the stream ends; Err then reports why (nil after
// Unsubscribe).
type Subscription[T any] struct {
	ch          chan T
	done        chan struct{}
	stopOnce    sync.Once
	finishOnce  sync.Once
	mu          sync.Mutex
	err         error
	unsubscribe func(ctx context.Context) error
}

// NewSubscription creates the consumer side; the producer feeds it with Push and ends it with
// Finish. unsubscribe may be nil.
func NewSubscription[T any](buffer int, unsubscribe func(ctx context.Context) error) *Subscription[T] {
	return &Subscription[T]{
		ch:          make(chan T, buffer),
		done:        make(chan struct{}),
		unsubscribe: unsubscribe,
	}
}

func (s *Subscription[T]) Chan() <-chan T {
	return s.ch
}

func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Unsubscribe stops the stream. Calling it more than once is a no-op.
func (s *Subscription[T]) Unsubscribe(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if s.unsubscribe != nil {
			err = s.unsubscribe(ctx)
		}
	})
	return err
}

// Done is closed once the consumer unsubscribed.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Push blocks until the consumer has room or unsubscribed; false means stop producing.
func (s *Subscription[T]) Push(v T) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.ch <- v:
		return true
	case <-s.done:
		return false
	}
}

// Finish records the terminal error and closes the channel. Only the producer calls it.
func (s *Subscription[T]) Finish(err error) {
	s.finishOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.ch)
	})
}
