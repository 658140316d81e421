// Package broker delivers outbox messages to Google Cloud Pub/Sub.
package broker

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"kitchenledger/internal/infrastructure/storage/postgres"
	"kitchenledger/pkg/logger"
)

// PubSubConfig configures the Pub/Sub client.
type PubSubConfig struct {
	ProjectID string
	Topic     string
	// CredentialsJSON is a service account key; empty uses application default credentials.
	CredentialsJSON string
}

// PubSubHandler implements postgres.OutboxHandler by publishing each message
// to a single topic. Subscribers route on the event_type attribute.
type PubSubHandler struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

var _ postgres.OutboxHandler = (*PubSubHandler)(nil)

// NewPubSubHandler connects to Pub/Sub and creates the topic if it is missing.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("pubsub project id is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("pubsub topic is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(cfg.Topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check topic %q: %w", cfg.Topic, err)
	}
	if !exists {
		if topic, err = client.CreateTopic(ctx, cfg.Topic); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("create topic %q: %w", cfg.Topic, err)
		}
	}

	return &PubSubHandler{client: client, topic: topic}, nil
}

// Handle publishes msg and waits for the server to acknowledge it.
func (h *PubSubHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	result := h.topic.Publish(ctx, NewMessage(msg))
	serverID, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.EventType, err)
	}
	logger.Debug(ctx, "event published", "event_type", msg.EventType, "message_id", msg.ID, "pubsub_id", serverID)
	return nil
}

// Close flushes pending publishes and closes the client.
func (h *PubSubHandler) Close() error {
	h.topic.Stop()
	return h.client.Close()
}

// NewMessage maps an outbox row to a Pub/Sub message.
func NewMessage(msg *postgres.OutboxMessage) *pubsub.Message {
	return &pubsub.Message{
		Data: msg.Payload,
		Attributes: map[string]string{
			"event_type":     msg.EventType,
			"aggregate_type": msg.AggregateType,
			"aggregate_id":   msg.AggregateID.String(),
			"tenant_id":      msg.TenantID,
			"outbox_id":      msg.ID.String(),
		},
	}
}

// LogHandler writes events to the log instead of a broker. Used in
// development when Pub/Sub is not configured.
type LogHandler struct{}

var _ postgres.OutboxHandler = LogHandler{}

func (LogHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	logger.Info(ctx, "event",
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
		"payload", string(msg.Payload),
	)
	return nil
}
