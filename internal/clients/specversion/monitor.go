package specversion

import (
	"context"
	"sync"

	"go-subxt/internal/messages"
	"go-subxt/internal/rpc"
	"go-subxt/models"
)

// Subscriber is the part of the node API the monitor needs.
type Subscriber interface {
	SubscribeRuntimeVersion(ctx context.Context) (*rpc.Subscription[models.RuntimeVersion], error)
}

// Monitor follows runtime upgrades and flags the first spec version change.
type Monitor struct {
	initial uint32
	sub     *rpc.Subscription[models.RuntimeVersion]

	mu      sync.RWMutex
	stale   bool
	current uint32

	done chan struct{}
}

// StartMonitor subscribes to runtime version updates. onUpgrade, when not nil, runs once
// on the first change away from initial.
func StartMonitor(ctx context.Context, node Subscriber, initial uint32, onUpgrade func(from, to uint32)) (*Monitor, error) {
	sub, err := node.SubscribeRuntimeVersion(ctx)
	if err != nil {
		return nil, err
	}
	m := &Monitor{
		initial: initial,
		current: initial,
		sub:     sub,
		done:    make(chan struct{}),
	}
	go m.run(onUpgrade)
	return m, nil
}

func (m *Monitor) run(onUpgrade func(from, to uint32)) {
	defer close(m.done)
	for {
		var v models.RuntimeVersion
		select {
		case item, ok := <-m.sub.Chan():
			if !ok {
				m.logEnd()
				return
			}
			v = item
		case <-m.sub.Done():
			return
		}

		m.mu.Lock()
		m.current = v.SpecVersion
		changed := !m.stale && v.SpecVersion != m.initial
		if changed {
			m.stale = true
		}
		m.mu.Unlock()

		if changed {
			messages.NewClientMessage(
				messages.LOG_LEVEL_WARNING,
				messages.GetComponent(m.run),
				nil,
				messages.SPEC_VERSION_CHANGED,
				m.initial,
				v.SpecVersion,
			).ConsoleLog()
			if onUpgrade != nil {
				onUpgrade(m.initial, v.SpecVersion)
			}
		}
	}
}

func (m *Monitor) logEnd() {
	if err := m.sub.Err(); err != nil {
		messages.NewClientMessage(
			messages.LOG_LEVEL_WARNING,
			messages.GetComponent(m.logEnd),
			err,
			messages.SPEC_VERSION_MONITOR_FAILED,
		).ConsoleLog()
	}
}

// Stale reports whether the runtime changed since the monitor started.
func (m *Monitor) Stale() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stale
}

func (m *Monitor) Current() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Stop unsubscribes and waits for the monitor goroutine to exit.
func (m *Monitor) Stop(ctx context.Context) error {
	err := m.sub.Unsubscribe(ctx)
	<-m.done
	return err
}
