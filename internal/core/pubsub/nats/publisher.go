package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/syntrixbase/filecatalog/internal/core/pubsub"
	"github.com/syntrixbase/filecatalog/internal/core/pubsub/config"
)

// jetStreamPublisher implements pubsub.Publisher using NATS JetStream.
type jetStreamPublisher struct {
	js   JetStream
	opts pubsub.PublisherOptions
	// nc is owned by the publisher when it was opened from config
	nc *nats.Conn
}

// NewPublisher creates a new Publisher backed by NATS JetStream and ensures
// the stream exists.
func NewPublisher(ctx context.Context, js JetStream, opts pubsub.PublisherOptions) (pubsub.Publisher, error) {
	p, err := newPublisher(ctx, js, opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func newPublisher(ctx context.Context, js JetStream, opts pubsub.PublisherOptions) (*jetStreamPublisher, error) {
	if js == nil {
		return nil, fmt.Errorf("jetstream cannot be nil")
	}

	if opts.StreamName != "" {
		subjects := []string{opts.StreamName + ".>"}
		if opts.SubjectPrefix != "" && opts.SubjectPrefix != opts.StreamName {
			subjects = []string{opts.SubjectPrefix + ".>"}
		}

		storage := jetstream.MemoryStorage
		if opts.Storage == pubsub.FileStorage {
			storage = jetstream.FileStorage
		}

		_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     opts.StreamName,
			Subjects: subjects,
			Storage:  storage,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to ensure stream: %w", err)
		}
	}

	return &jetStreamPublisher{js: js, opts: opts}, nil
}

// Open connects to the configured NATS server and returns a publisher that
// closes the connection on Close.
func Open(ctx context.Context, cfg config.Config, onPublish func(string, error, time.Duration)) (pubsub.Publisher, error) {
	nc, err := natsConnect(cfg.NatsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NatsURL, err)
	}

	js, err := JetStreamNew(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream: %w", err)
	}

	opts := pubsub.PublisherOptions{
		StreamName:    cfg.StreamName,
		SubjectPrefix: cfg.SubjectPrefix,
		RetryAttempts: cfg.RetryAttempts,
		OnPublish:     onPublish,
	}
	if cfg.FileStorage {
		opts.Storage = pubsub.FileStorage
	}

	p, err := newPublisher(ctx, js, opts)
	if err != nil {
		nc.Close()
		return nil, err
	}
	p.nc = nc

	slog.Info("Connected to NATS", "url", cfg.NatsURL, "stream", cfg.StreamName)
	return p, nil
}

// Publish sends a message to the specified subject.
func (p *jetStreamPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	start := time.Now()

	fullSubject := subject
	if p.opts.SubjectPrefix != "" {
		fullSubject = p.opts.SubjectPrefix + "." + subject
	}

	var publishOpts []jetstream.PublishOpt
	if p.opts.RetryAttempts > 0 {
		publishOpts = append(publishOpts, jetstream.WithRetryAttempts(p.opts.RetryAttempts))
	}

	_, err := p.js.Publish(ctx, fullSubject, data, publishOpts...)

	if p.opts.OnPublish != nil {
		p.opts.OnPublish(fullSubject, err, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", fullSubject, err)
	}

	return nil
}

// Close drains the owned connection, if any.
func (p *jetStreamPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	slog.Info("Closing NATS connection...")
	err := p.nc.Drain()
	p.nc = nil
	return err
}
