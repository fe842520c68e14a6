// Package pubsub publishes catalog events to a message stream.
package pubsub

import "context"

// Publisher publishes messages to a stream.
type Publisher interface {
	// Publish sends a message to the specified subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close releases resources.
	Close() error
}

type discard struct{}

// Discard returns a Publisher that drops every message. It is used when
// events are disabled.
func Discard() Publisher { return discard{} }

func (discard) Publish(context.Context, string, []byte) error { return nil }
func (discard) Close() error                                  { return nil }
