package events_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/events"
)

type recordingSink struct {
	received []any
	fail     bool
}

func (s *recordingSink) Send(_ events.Channel, event any) error {
	if s.fail {
		return errors.New("boom")
	}
	s.received = append(s.received, event)
	return nil
}

func TestPublisher_DeliversToAllSubscribers(t *testing.T) {
	p := events.New(zerolog.Nop())
	a, b := &recordingSink{}, &recordingSink{}
	p.Subscribe(events.Trade, a)
	p.Subscribe(events.Trade, b)

	p.Publish(events.Trade, "evt1")

	require.Len(t, a.received, 1)
	require.Len(t, b.received, 1)
}

func TestPublisher_DropsFailingSinkButKeepsOthers(t *testing.T) {
	p := events.New(zerolog.Nop())
	bad := &recordingSink{fail: true}
	good := &recordingSink{}
	p.Subscribe(events.Book, bad)
	p.Subscribe(events.Book, good)

	p.Publish(events.Book, "snap1")
	require.Len(t, good.received, 1)

	// Second publish: bad sink should already be gone, good still there.
	p.Publish(events.Book, "snap2")
	assert.Len(t, good.received, 2)
}

func TestPublisher_UnsubscribeStopsDelivery(t *testing.T) {
	p := events.New(zerolog.Nop())
	s := &recordingSink{}
	p.Subscribe(events.BBO, s)
	p.Unsubscribe(events.BBO, s)

	p.Publish(events.BBO, "bbo1")
	assert.Empty(t, s.received)
}

func TestPublisher_ChannelsAreIndependent(t *testing.T) {
	p := events.New(zerolog.Nop())
	s := &recordingSink{}
	p.Subscribe(events.Trade, s)

	p.Publish(events.Book, "snap")

	assert.Empty(t, s.received, "subscribing to Trade must not receive Book events")
}
