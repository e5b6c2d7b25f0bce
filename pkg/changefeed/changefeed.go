// Package changefeed broadcasts graph change events to map kiosks and other
// read-only consumers over a mangos PUB socket. Consumers that cache node
// lists subscribe and refresh when a change arrives.
package changefeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	// Register all transports (tcp, ipc, inproc, ws)
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
	"github.com/dd0wney/cluso-wayfinder/pkg/pubsub"
)

// Topic prefixes every message so subscribers can filter with
// mangos.OptionSubscribe.
var Topic = []byte("CHG:")

// Config configures a Broadcaster.
type Config struct {
	// Address is a mangos URL such as tcp://0.0.0.0:7410 or inproc://changes.
	Address string
	Logger  logging.Logger
}

// Broadcaster forwards events from the in-process bus to a PUB socket.
type Broadcaster struct {
	addr   string
	sock   mangos.Socket
	sub    *pubsub.Subscription
	logger logging.Logger

	sent   atomic.Uint64
	failed atomic.Uint64

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewBroadcaster binds a PUB socket at cfg.Address and subscribes to graph
// changes on bus. Call Start to begin forwarding.
func NewBroadcaster(bus *pubsub.PubSub, cfg Config) (*Broadcaster, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("changefeed: address is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.Listen(cfg.Address); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to bind PUB socket to %s: %w", cfg.Address, err)
	}

	subscription, err := bus.Subscribe(context.Background(), pubsub.TopicGraphChanges)
	if err != nil {
		sock.Close()
		return nil, err
	}

	return &Broadcaster{
		addr:   cfg.Address,
		sock:   sock,
		sub:    subscription,
		logger: logger.With(logging.Component("changefeed"), logging.String("address", cfg.Address)),
		stopCh: make(chan struct{}),
	}, nil
}

// Start begins forwarding events in a background goroutine.
func (b *Broadcaster) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return fmt.Errorf("changefeed already running")
	}
	if b.stopCh == nil {
		return fmt.Errorf("changefeed stopped")
	}
	b.running = true
	b.wg.Add(1)
	go b.forward(b.stopCh)
	b.logger.Info("changefeed started")
	return nil
}

// Stop stops forwarding and closes the socket. It is safe to call more than once.
func (b *Broadcaster) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopCh == nil {
		return nil
	}
	close(b.stopCh)
	b.stopCh = nil
	b.sub.Unsubscribe()
	b.wg.Wait()
	b.running = false

	err := b.sock.Close()
	b.logger.Info("changefeed stopped",
		logging.Uint64("sent", b.sent.Load()),
		logging.Uint64("failed", b.failed.Load()))
	return err
}

// Address returns the URL the socket is bound to.
func (b *Broadcaster) Address() string { return b.addr }

// Sent returns how many events have been published.
func (b *Broadcaster) Sent() uint64 { return b.sent.Load() }

func (b *Broadcaster) forward(stop <-chan struct{}) {
	defer b.wg.Done()
	events := b.sub.Channel()
	for {
		select {
		case <-stop:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := b.send(e); err != nil {
				b.failed.Add(1)
				b.logger.Warn("failed to publish change", logging.String("event_id", e.ID), logging.Error(err))
				continue
			}
			b.sent.Add(1)
		}
	}
}

func (b *Broadcaster) send(e pubsub.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := make([]byte, 0, len(Topic)+len(data))
	msg = append(msg, Topic...)
	msg = append(msg, data...)
	return b.sock.Send(msg)
}

// Listener receives change events from a Broadcaster.
type Listener struct {
	sock mangos.Socket
}

// Dial connects a SUB socket to a broadcaster at addr.
func Dial(addr string) (*Listener, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionSubscribe, Topic); err != nil {
		sock.Close()
		return nil, err
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Listener{sock: sock}, nil
}

// Next waits up to timeout for the next event. A timeout returns
// mangos.ErrRecvTimeout.
func (l *Listener) Next(timeout time.Duration) (pubsub.Event, error) {
	var e pubsub.Event
	if err := l.sock.SetOption(mangos.OptionRecvDeadline, timeout); err != nil {
		return e, err
	}
	msg, err := l.sock.Recv()
	if err != nil {
		return e, err
	}
	payload, ok := bytes.CutPrefix(msg, Topic)
	if !ok {
		return e, fmt.Errorf("changefeed: unexpected message prefix")
	}
	if err := json.Unmarshal(payload, &e); err != nil {
		return e, fmt.Errorf("changefeed: decode event: %w", err)
	}
	return e, nil
}

// Close closes the SUB socket.
func (l *Listener) Close() error { return l.sock.Close() }
