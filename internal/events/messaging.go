package events

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange            = "ecommerce.events"
	ProductCreatedRoutingKey  = "product.created.v1"
	ProductUpdatedRoutingKey  = "product.updated.v1"
	ProductDeletedRoutingKey  = "product.deleted.v1"
	CatalogExportedRoutingKey = "catalog.exported.v1"
	catalogServiceName        = "catalog-service"
)

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
