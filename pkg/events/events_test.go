package events

import (
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"

	"github.com/mailwatch/mailwatch/pkg/base"
)

func TestEmitArrivedRegistrationOrder(t *testing.T) {
	bus := NewBus()

	var calls []string
	bus.OnArrived(func(base.Message) { calls = append(calls, "first") })
	bus.OnArrived(func(base.Message) { calls = append(calls, "second") })
	bus.OnArrived(func(base.Message) { calls = append(calls, "third") })

	bus.EmitArrived(base.Message{UID: 7})

	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestEmitCarriesPayload(t *testing.T) {
	bus := NewBus()

	var gotMsg base.Message
	var gotUID imap.UID
	bus.OnLoaded(func(m base.Message) { gotMsg = m })
	bus.OnRemoved(func(uid imap.UID) { gotUID = uid })

	bus.EmitLoaded(base.Message{UID: 42, Subject: "hello", Mailbox: "INBOX"})
	bus.EmitRemoved(imap.UID(13))

	assert.Equal(t, imap.UID(42), gotMsg.UID)
	assert.Equal(t, "hello", gotMsg.Subject)
	assert.Equal(t, "INBOX", gotMsg.Mailbox)
	assert.Equal(t, imap.UID(13), gotUID)
}

func TestSubscriptionCancel(t *testing.T) {
	bus := NewBus()

	var first, second int
	sub := bus.OnArrived(func(base.Message) { first++ })
	bus.OnArrived(func(base.Message) { second++ })

	bus.EmitArrived(base.Message{})
	sub.Cancel()
	sub.Cancel() // idempotent
	bus.EmitArrived(base.Message{})

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestEmitWithoutSubscribers(t *testing.T) {
	bus := NewBus()

	assert.NotPanics(t, func() {
		bus.EmitArrived(base.Message{})
		bus.EmitLoaded(base.Message{})
		bus.EmitRemoved(imap.UID(1))
	})
}
