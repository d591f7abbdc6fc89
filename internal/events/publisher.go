package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/middleware"
)

// Sequencer hands out per-partition sequence numbers. A number is consumed
// before the broker publish, so an event that fails to publish leaves a gap
// in its partition; consumers must treat gaps as possible, not as loss.
type Sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	mu       sync.Mutex
	ch       channel
	seq      Sequencer
	producer string
	now      func() time.Time
}

type PublisherOptions struct {
	Producer string
}

func NewPublisher(conn *amqp.Connection, seq Sequencer, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return newPublisher(ch, seq, opts), nil
}

func newPublisher(ch channel, seq Sequencer, opts PublisherOptions) *Publisher {
	producer := opts.Producer
	if producer == "" {
		producer = catalogServiceName
	}
	return &Publisher{
		ch:       ch,
		seq:      seq,
		producer: producer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) ProductCreated(ctx context.Context, product catalog.Product) error {
	ts := p.now()
	return publishEvent(ctx, p, ProductCreatedRoutingKey, ProductCreatedEventName, productCreatedSchema,
		product.ID, newProductPayload(product, ts), ts)
}

func (p *Publisher) ProductUpdated(ctx context.Context, product catalog.Product) error {
	ts := p.now()
	return publishEvent(ctx, p, ProductUpdatedRoutingKey, ProductUpdatedEventName, productUpdatedSchema,
		product.ID, newProductPayload(product, ts), ts)
}

func (p *Publisher) ProductDeleted(ctx context.Context, productID string) error {
	ts := p.now()
	return publishEvent(ctx, p, ProductDeletedRoutingKey, ProductDeletedEventName, productDeletedSchema,
		productID, ProductDeletedPayload{ProductID: productID, Timestamp: ts}, ts)
}

func (p *Publisher) CatalogExported(ctx context.Context, summary ExportSummary) error {
	ts := p.now()
	return publishEvent(ctx, p, CatalogExportedRoutingKey, CatalogExportedEventName, catalogExportedSchema,
		CatalogPartitionKey, CatalogExportedPayload{ExportSummary: summary, Timestamp: ts}, ts)
}

func publishEvent[T any](ctx context.Context, p *Publisher, routingKey, name, schema, partitionKey string, payload T, ts time.Time) error {
	seq, err := p.seq.NextSequence(ctx, partitionKey)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	meta := EventMeta{CorrelationID: middleware.GetCorrelationID(ctx)}
	env := newEnvelope(name, schema, partitionKey, p.producer, seq, meta, payload, ts)
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", name, err)
	}

	return p.publishJSON(ctx, routingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
