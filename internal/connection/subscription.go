package connection

import (
	"context"
	"encoding/json"
	"sync"
)

// Subscription is the raw notification stream of one node subscription. Items arrive in
// transport order; the stream is not restartable.
type Subscription struct {
	client      *WsClient
	unsubMethod string

	id string
	ch chan json.RawMessage

	done     chan struct{}
	doneOnce sync.Once

	mu     sync.RWMutex
	closed bool
	err    error
}

func newSubscription(client *WsClient, unsubMethod string, buffer int) *Subscription {
	return &Subscription{
		client:      client,
		unsubMethod: unsubMethod,
		ch:          make(chan json.RawMessage, buffer),
		done:        make(chan struct{}),
	}
}

func (s *Subscription) ID() string {
	return s.id
}

// Chan is closed once the subscription ends.
func (s *Subscription) Chan() <-chan json.RawMessage {
	return s.ch
}

// Err returns the reason the stream ended, nil while it is live or after Unsubscribe.
func (s *Subscription) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Unsubscribe stops delivery and tells the node to drop the subscription.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	if !s.finish(nil) {
		return nil
	}
	s.client.removeSubscription(s.id)
	if s.unsubMethod == "" || s.client.closed.Load() {
		return nil
	}
	var ok bool
	return s.client.Call(ctx, s.unsubMethod, []interface{}{s.id}, &ok)
}

func (s *Subscription) deliver(msg json.RawMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- msg:
	case <-s.done:
	}
}

// finish ends the stream once; it reports whether this call did it.
func (s *Subscription) finish(err error) bool {
	first := false
	s.doneOnce.Do(func() {
		first = true
		close(s.done)
	})
	if !first {
		return false
	}
	s.mu.Lock()
	s.closed = true
	s.err = err
	close(s.ch)
	s.mu.Unlock()
	return true
}
