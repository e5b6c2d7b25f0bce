package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscription queue length.
const DefaultBuffer = 100

// ErrShutdown is returned when subscribing to a PubSub that has been shut down.
var ErrShutdown = errors.New("pubsub is shut down")

// PubSub fans graph change events out to in-process subscribers.
// Publishing never blocks: a subscriber whose queue is full misses the event.
type PubSub struct {
	subscribers map[string]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	buffer      int

	dropped atomic.Uint64
	// OnDrop, if set, is called for every event a full subscriber misses.
	OnDrop func(topic string, e Event)
}

// Subscription represents a subscription to a topic
type Subscription struct {
	topic     string
	channel   chan Event
	ps        *PubSub
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPubSub creates a PubSub with DefaultBuffer-sized subscriptions.
func NewPubSub() *PubSub {
	return NewPubSubWithBuffer(DefaultBuffer)
}

// NewPubSubWithBuffer creates a PubSub with the given subscription queue length.
func NewPubSubWithBuffer(buffer int) *PubSub {
	if buffer < 1 {
		buffer = 1
	}
	return &PubSub{
		subscribers: make(map[string]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
		buffer:      buffer,
	}
}

// Subscribe creates a subscription to a topic. It ends when ctx is done, when
// Unsubscribe is called, or on Shutdown; the channel is closed in every case.
func (ps *PubSub) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	ps.shutdownMu.Lock()
	defer ps.shutdownMu.Unlock()
	if ps.isShutdown {
		return nil, ErrShutdown
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan Event, ps.buffer),
		ps:      ps,
		cancel:  cancel,
	}

	ps.mu.Lock()
	if ps.subscribers[topic] == nil {
		ps.subscribers[topic] = make(map[*Subscription]bool)
	}
	ps.subscribers[topic][sub] = true
	ps.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-ps.shutdown:
			cancel()
		}
	}()

	return sub, nil
}

// Publish sends e to every subscriber of topic and returns how many received it.
func (ps *PubSub) Publish(topic string, e Event) int {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return 0
	}
	ps.shutdownMu.Unlock()

	// Sending happens under the read lock so a concurrent Unsubscribe cannot
	// close a channel mid-send. Sends never block.
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	delivered := 0
	for sub := range ps.subscribers[topic] {
		select {
		case sub.channel <- e:
			delivered++
		default:
			ps.dropped.Add(1)
			if ps.OnDrop != nil {
				ps.OnDrop(topic, e)
			}
		}
	}
	return delivered
}

// Dropped returns how many deliveries were skipped because a queue was full.
func (ps *PubSub) Dropped() uint64 {
	return ps.dropped.Load()
}

// GetSubscriberCount returns the number of subscribers for a topic
func (ps *PubSub) GetSubscriberCount(topic string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[topic])
}

// Shutdown closes all subscriptions and shuts down the PubSub
func (ps *PubSub) Shutdown() {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.isShutdown = true
	ps.shutdownMu.Unlock()

	close(ps.shutdown)

	ps.mu.Lock()
	for topic, subs := range ps.subscribers {
		for sub := range subs {
			sub.close()
		}
		delete(ps.subscribers, topic)
	}
	ps.mu.Unlock()
}

// Channel returns the subscription's event channel
func (s *Subscription) Channel() <-chan Event {
	return s.channel
}

// Unsubscribe removes the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.ps.mu.Lock()
	defer s.ps.mu.Unlock()

	if subs := s.ps.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.ps.subscribers, s.topic)
		}
	}
	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
