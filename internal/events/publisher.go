// Package events implements the three-channel publish/subscribe fan-out
// the Engine Facade drives after every admission (spec.md §4.5): book
// snapshots, trades, and BBO updates, delivered best-effort to whatever
// sinks are currently subscribed.
package events

import (
	"sync"

	"github.com/rs/zerolog"
)

// Channel identifies one of the three logical event streams (spec.md §6).
type Channel int

const (
	Book Channel = iota
	Trade
	BBO
)

func (c Channel) String() string {
	switch c {
	case Book:
		return "book"
	case Trade:
		return "trade"
	case BBO:
		return "bbo"
	default:
		return "unknown"
	}
}

// Sink is a push endpoint that can fail. A failing sink is dropped silently
// on its next delivery attempt (spec.md §4.5, §5); there is no queue or
// backpressure.
type Sink interface {
	Send(channel Channel, event any) error
}

// Publisher fans events out to subscribers per channel. Subscribe and
// Unsubscribe are safe to call concurrently with Publish; Publish itself
// must be called from within the symbol's serialization guard so that
// delivery order within one symbol matches mutation order (spec.md §5).
type Publisher struct {
	log zerolog.Logger

	mu   sync.Mutex
	subs map[Channel]map[Sink]struct{}
}

// New constructs an empty publisher with no subscribers on any channel.
func New(log zerolog.Logger) *Publisher {
	return &Publisher{
		log: log.With().Str("component", "events.publisher").Logger(),
		subs: map[Channel]map[Sink]struct{}{
			Book:  {},
			Trade: {},
			BBO:   {},
		},
	}
}

// Subscribe registers sink on channel.
func (p *Publisher) Subscribe(channel Channel, sink Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[channel][sink] = struct{}{}
}

// Unsubscribe removes sink from channel. Safe to call even if sink was
// already dropped by a failed Publish.
func (p *Publisher) Unsubscribe(channel Channel, sink Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs[channel], sink)
}

// Publish delivers event to every subscriber currently on channel. Any
// sink whose Send fails is dropped; remaining subscribers are still
// attempted (spec.md §4.5). Publish must be called in the order the
// underlying state mutations occurred for this symbol — it does no
// reordering of its own.
func (p *Publisher) Publish(channel Channel, event any) {
	p.mu.Lock()
	sinks := make([]Sink, 0, len(p.subs[channel]))
	for s := range p.subs[channel] {
		sinks = append(sinks, s)
	}
	p.mu.Unlock()

	var dead []Sink
	for _, s := range sinks {
		if err := s.Send(channel, event); err != nil {
			p.log.Warn().Err(err).Str("channel", channel.String()).Msg("dropping subscriber after failed delivery")
			dead = append(dead, s)
		}
	}
	if len(dead) == 0 {
		return
	}

	p.mu.Lock()
	for _, s := range dead {
		delete(p.subs[channel], s)
	}
	p.mu.Unlock()
}
