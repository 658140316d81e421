package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/domain/events"
	"kitchenledger/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// OutboxMaxAttempts is how many delivery attempts a message gets before it is marked failed.
const OutboxMaxAttempts = 5

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	TenantID      string       `db:"tenant_id"`
	AggregateType string       `db:"aggregate_type"` // "Order", "RawMaterial"
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"` // events.TypeLowMarginAlert, ...
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// OutboxPublisher writes domain events to the outbox table in the caller's
// transaction, so an event is stored if and only if the business change commits.
type OutboxPublisher struct {
	txManager *TxManager
}

var _ events.Publisher = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish implements events.Publisher. Must be called inside a transaction.
func (p *OutboxPublisher) Publish(ctx context.Context, event events.Event) error {
	pgTx := p.txManager.GetTx(ctx)
	if pgTx == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = pgTx.Exec(ctx, `
		INSERT INTO sys_outbox (id, tenant_id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id.New(), tenantID, event.AggregateType(), event.AggregateID(), event.EventType(), payload, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}

	return nil
}

// OutboxHandler delivers one outbox message to the broker.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxRelay moves pending outbox messages to an OutboxHandler.
// Several relays may run concurrently; rows are claimed with SKIP LOCKED.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	return &OutboxRelay{
		txManager: txManager,
		batchSize: batchSize,
		handler:   handler,
	}
}

// ProcessBatch claims up to batchSize due messages, hands each to the
// handler and records the outcome. Returns the number delivered.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	delivered := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.GetQuerier(ctx)

		var messages []*OutboxMessage
		err := pgxscan.Select(ctx, q, &messages, `
			SELECT id, tenant_id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, OutboxStatusPending, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		batch := &pgx.Batch{}
		for _, msg := range messages {
			sql, args := r.outcome(ctx, msg)
			batch.Queue(sql, args...)
			if msg.Status == OutboxStatusPublished {
				delivered++
			}
		}
		if batch.Len() == 0 {
			return nil
		}

		results := r.txManager.GetTx(ctx).SendBatch(ctx, batch)
		defer results.Close()
		for range messages {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("update outbox message: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return delivered, nil
}

// outcome delivers msg and returns the status update to record for it.
func (r *OutboxRelay) outcome(ctx context.Context, msg *OutboxMessage) (string, []any) {
	msgCtx := tenant.WithTenantID(ctx, msg.TenantID)
	if err := r.handler.Handle(msgCtx, msg); err != nil {
		attempts := msg.RetryCount + 1
		status := OutboxStatusPending
		if attempts >= OutboxMaxAttempts {
			status = OutboxStatusFailed
		}
		logger.Warn(msgCtx, "outbox delivery failed",
			"message_id", msg.ID,
			"event_type", msg.EventType,
			"attempt", attempts,
			"status", status,
			"error", err,
		)
		nextRetry := time.Now().UTC().Add(time.Duration(attempts) * time.Minute)
		msg.Status = status
		return `
			UPDATE sys_outbox
			SET retry_count = $1, last_error = $2, next_retry_at = $3, status = $4
			WHERE id = $5
		`, []any{attempts, err.Error(), nextRetry, status, msg.ID}
	}

	msg.Status = OutboxStatusPublished
	return `
		UPDATE sys_outbox
		SET status = $1, published_at = $2
		WHERE id = $3
	`, []any{OutboxStatusPublished, time.Now().UTC(), msg.ID}
}

// PurgePublished removes published messages older than the cutoff.
func (r *OutboxRelay) PurgePublished(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_outbox WHERE status = $1 AND published_at < $2`,
		OutboxStatusPublished, olderThan)
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return tag.RowsAffected(), nil
}
