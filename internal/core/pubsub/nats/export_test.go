package nats

import (
	"github.com/nats-io/nats.go"
)

// SetJetStreamNew allows setting the JetStreamNew variable for testing.
func SetJetStreamNew(f func(nc *nats.Conn) (JetStream, error)) func() {
	original := JetStreamNew
	JetStreamNew = f
	return func() {
		JetStreamNew = original
	}
}

// SetConnect allows setting the connect function for testing.
func SetConnect(f func(url string) (*nats.Conn, error)) func() {
	original := natsConnect
	natsConnect = f
	return func() {
		natsConnect = original
	}
}
