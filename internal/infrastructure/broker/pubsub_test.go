package broker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"kitchenledger/internal/core/id"
	"kitchenledger/internal/domain/events"
	"kitchenledger/internal/infrastructure/storage/postgres"
)

func TestNewMessageCarriesRoutingAttributes(t *testing.T) {
	msg := &postgres.OutboxMessage{
		ID:            id.New(),
		TenantID:      "tenant-a",
		AggregateType: "Order",
		AggregateID:   id.New(),
		EventType:     events.TypeLowMarginAlert,
		Payload:       []byte(`{"marginPercent":"15"}`),
	}

	got := NewMessage(msg)

	assert.Equal(t, msg.Payload, got.Data)
	assert.Equal(t, events.TypeLowMarginAlert, got.Attributes["event_type"])
	assert.Equal(t, "Order", got.Attributes["aggregate_type"])
	assert.Equal(t, msg.AggregateID.String(), got.Attributes["aggregate_id"])
	assert.Equal(t, "tenant-a", got.Attributes["tenant_id"])
	assert.Equal(t, msg.ID.String(), got.Attributes["outbox_id"])
}

func TestNewPubSubHandlerRequiresConfig(t *testing.T) {
	_, err := NewPubSubHandler(context.Background(), PubSubConfig{Topic: "t"})
	assert.Error(t, err)

	_, err = NewPubSubHandler(context.Background(), PubSubConfig{ProjectID: "p"})
	assert.Error(t, err)
}

func TestLogHandlerAcceptsEverything(t *testing.T) {
	err := LogHandler{}.Handle(context.Background(), &postgres.OutboxMessage{EventType: events.TypeStockCritical})
	assert.NoError(t, err)
}
