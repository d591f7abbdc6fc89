package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/catalog"
)

const (
	eventVersion = 1

	ProductCreatedEventName  = "ProductCreated"
	ProductUpdatedEventName  = "ProductUpdated"
	ProductDeletedEventName  = "ProductDeleted"
	CatalogExportedEventName = "CatalogExported"

	productCreatedSchema  = "contracts/events/catalog/ProductCreated.v1.payload.schema.json"
	productUpdatedSchema  = "contracts/events/catalog/ProductUpdated.v1.payload.schema.json"
	productDeletedSchema  = "contracts/events/catalog/ProductDeleted.v1.payload.schema.json"
	catalogExportedSchema = "contracts/events/catalog/CatalogExported.v1.payload.schema.json"

	// CatalogPartitionKey orders CatalogExported events, which belong to no
	// single product.
	CatalogPartitionKey = "catalog"
)

// ProductPayload is the v1 payload of ProductCreated and ProductUpdated.
type ProductPayload struct {
	ProductID   string    `json:"productId"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	SKU         string    `json:"sku,omitempty"`
	Price       string    `json:"price,omitempty"`
	VariantSKUs []string  `json:"variantSkus,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type ProductDeletedPayload struct {
	ProductID string    `json:"productId"`
	Timestamp time.Time `json:"timestamp"`
}

// ExportSummary describes one finished catalog export.
type ExportSummary struct {
	Format       string `json:"format"`
	Filename     string `json:"filename"`
	ProductCount int    `json:"productCount"`
	RowCount     int    `json:"rowCount"`
}

type CatalogExportedPayload struct {
	ExportSummary
	Timestamp time.Time `json:"timestamp"`
}

type (
	ProductCreatedEvent  = EventEnvelope[ProductPayload]
	ProductUpdatedEvent  = EventEnvelope[ProductPayload]
	ProductDeletedEvent  = EventEnvelope[ProductDeletedPayload]
	CatalogExportedEvent = EventEnvelope[CatalogExportedPayload]
)

func newProductPayload(p catalog.Product, ts time.Time) ProductPayload {
	payload := ProductPayload{
		ProductID: p.ID,
		Name:      p.Name,
		Type:      string(p.Type),
		SKU:       p.SKU,
		Timestamp: ts,
	}
	if p.Price.Valid {
		payload.Price = p.Price.Decimal.String()
	}
	for _, v := range p.Variants {
		payload.VariantSKUs = append(payload.VariantSKUs, v.SKU)
	}
	return payload
}

func newEnvelope[T any](name, schema, partitionKey, producer string, seq int64, meta EventMeta, payload T, occurredAt time.Time) EventEnvelope[T] {
	if meta.CorrelationID == "" {
		meta.CorrelationID = uuid.NewString()
	}
	return EventEnvelope[T]{
		EventName:     name,
		EventVersion:  eventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		Producer:      producer,
		PartitionKey:  partitionKey,
		Sequence:      seq,
		OccurredAt:    occurredAt,
		Schema:        schema,
		Payload:       payload,
	}
}
