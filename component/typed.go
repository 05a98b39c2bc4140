package component

import (
	"github.com/c360/devicekit/eventbus"
)

// busHolder is satisfied by Base and gives the typed helpers access to the
// injected bus and the component's owner token.
type busHolder interface {
	Bus() *eventbus.Bus
	Owner() any
}

// On subscribes the component to a topic with a typed handler. Deliveries
// whose payload is not a T are dropped rather than mis-cast; the byte
// reinterpretation of the untyped original is deliberately gone.
//
// The subscription is installed under the component's owner token, so it is
// revoked automatically when the component shuts down or is removed.
// Returns the subscription id, or 0 if the bus is not injected yet (On is
// only valid from Begin onward).
func On[T any](c Component, topic string, fn func(T), replayLast bool) uint64 {
	h, ok := c.(busHolder)
	if !ok || h.Bus() == nil || fn == nil {
		return 0
	}
	return h.Bus().Subscribe(topic, func(payload any) {
		if v, ok := payload.(T); ok {
			fn(v)
			return
		}
		// A nil payload is a signal, not a mismatch: deliver the zero value.
		if payload == nil {
			var zero T
			fn(zero)
		}
	}, h.Owner(), replayLast)
}

// Emit publishes a typed payload on a topic. With sticky set, the topic's
// retained last value is overwritten first so late subscribers can replay it.
func Emit[T any](c Component, topic string, payload T, sticky bool) {
	h, ok := c.(busHolder)
	if !ok || h.Bus() == nil {
		return
	}
	if sticky {
		h.Bus().PublishSticky(topic, payload)
	} else {
		h.Bus().Publish(topic, payload)
	}
}

// Notify publishes a payload-less event on a topic
func Notify(c Component, topic string) {
	h, ok := c.(busHolder)
	if !ok || h.Bus() == nil {
		return
	}
	h.Bus().Publish(topic, nil)
}
