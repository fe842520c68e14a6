package nats

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStream is the subset of jetstream.JetStream the publisher uses.
type JetStream interface {
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStreamNew is a variable to allow mocking in tests.
var JetStreamNew = func(nc *nats.Conn) (JetStream, error) {
	return jetstream.New(nc)
}

// natsConnect is a variable to allow mocking in tests.
var natsConnect = func(url string) (*nats.Conn, error) {
	return nats.Connect(url, nats.Name("filecatalog"), nats.MaxReconnects(-1))
}
