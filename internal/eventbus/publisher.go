// Package eventbus publishes normalized item records to NATS JetStream,
// generalizing the teacher's hook-event bus (Bus/SetJetStream/Dispatch in
// the original internal/eventbus package) from dispatching local handlers
// to publishing catalog mutations for downstream indexing.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// StreamItems is the JetStream stream backing item-change events.
const StreamItems = "CATALOG_ITEMS"

// SubjectItems is the NATS subject item records are published to — the
// stand-in for the original service's Kafka topic of the same name.
const SubjectItems = "metadata.items"

// Publisher is a lazily-initialized, process-wide, thread-safe JetStream
// producer. It is constructed once at startup and the connection itself
// is established on first Publish call, mirroring the original service's
// "initialized lazily on first use" event publisher.
type Publisher struct {
	url  string
	log  *zap.Logger
	mu   sync.Mutex
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher returns a Publisher that will connect to url on first use.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// ensure connects and provisions the backing stream exactly once, retrying
// on every call until it succeeds, since a transient broker outage at
// startup should not permanently disable publishing.
func (p *Publisher) ensure() (nats.JetStreamContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.js != nil {
		return p.js, nil
	}
	conn, err := nats.Connect(p.url, nats.Name("metadata-catalog"))
	if err != nil {
		return nil, fmt.Errorf("eventbus: connect to %s: %w", p.url, err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("eventbus: acquire jetstream context: %w", err)
	}
	if _, err := js.StreamInfo(StreamItems); err != nil {
		if _, err := js.AddStream(&nats.StreamConfig{
			Name:     StreamItems,
			Subjects: []string{SubjectItems},
			Storage:  nats.FileStorage,
			MaxMsgs:  1_000_000,
			MaxBytes: 1 << 30,
		}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("eventbus: create stream %s: %w", StreamItems, err)
		}
	}
	p.conn = conn
	p.js = js
	return js, nil
}

// Publish serializes rec as JSON and publishes it to SubjectItems,
// blocking until the broker acknowledges the write. Callers invoke this
// after the enclosing database transaction has already committed; a
// publish failure is therefore a delivery-seam failure, never a reason to
// roll back data already persisted.
func (p *Publisher) Publish(ctx context.Context, rec *ItemRecord) error {
	js, err := p.ensure()
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("eventbus: marshal item record %s: %w", rec.ID, err)
	}
	ack, err := js.Publish(SubjectItems, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("eventbus: publish item record %s: %w", rec.ID, err)
	}
	if p.log != nil {
		p.log.Debug("published item record",
			zap.String("item_id", rec.ID),
			zap.String("subject", SubjectItems),
			zap.Uint64("seq", ack.Sequence),
		)
	}
	return nil
}

// Ping verifies the bus is reachable, connecting lazily if needed. Used by
// the health endpoint's "DB and bus reachable" liveness check.
func (p *Publisher) Ping() error {
	_, err := p.ensure()
	return err
}

// Close releases the underlying connection. Safe to call even if the
// publisher never connected.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
		p.js = nil
	}
}
