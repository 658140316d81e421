package main

import (
	"context"
	"sync"
	"time"

	"kitchenledger/internal/config"
	appctx "kitchenledger/internal/core/context"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/domain/inventory"
	"kitchenledger/internal/infrastructure/lock"
	"kitchenledger/pkg/logger"
)

const (
	outboxBatchSize    = 100
	outboxRetention    = 7 * 24 * time.Hour
	maintenanceEvery   = time.Hour
	auditLockTTLFactor = 2
)

// OutboxRelay is the part of postgres.OutboxRelay the worker drives.
type OutboxRelay interface {
	ProcessBatch(ctx context.Context) (int, error)
	PurgePublished(ctx context.Context, olderThan time.Time) (int64, error)
}

// PoolStatsLogger is satisfied by *postgres.Pool.
type PoolStatsLogger interface {
	LogStats(ctx context.Context)
}

// Worker runs the outbox relay and the periodic stock audit.
type Worker struct {
	relay     OutboxRelay
	inventory *inventory.Service
	tenants   inventory.TenantLister
	locker    lock.Locker
	pool      PoolStatsLogger
	cfg       config.Config
	log       *logger.Logger
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.runOutbox(ctx)
	}()
	go func() {
		defer wg.Done()
		w.runAudit(ctx)
	}()
	wg.Wait()
}

func (w *Worker) runOutbox(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.OutboxPollInterval)
	defer ticker.Stop()

	maintenance := time.NewTicker(maintenanceEvery)
	defer maintenance.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drainOutbox(ctx)
		case <-maintenance.C:
			w.purgeOutbox(ctx)
			if w.pool != nil {
				w.pool.LogStats(ctx)
			}
		}
	}
}

// drainOutbox processes full batches until the outbox is empty.
func (w *Worker) drainOutbox(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Debugw("relayed outbox batch", "count", n)
		}
		if n < outboxBatchSize {
			return
		}
	}
}

func (w *Worker) purgeOutbox(ctx context.Context) {
	n, err := w.relay.PurgePublished(ctx, time.Now().UTC().Add(-outboxRetention))
	if err != nil {
		w.log.Errorw("outbox purge failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("purged published outbox messages", "count", n)
	}
}

func (w *Worker) runAudit(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.StockAuditInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.auditAll(ctx)
		}
	}
}

// auditAll audits every tenant under one trace. Each tenant's audit runs on one replica.
func (w *Worker) auditAll(ctx context.Context) {
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext("", ""))
	tenantIDs, err := w.tenants.ListTenantIDs(ctx)
	if err != nil {
		w.log.Errorw("failed to list tenants", "error", err)
		return
	}

	for _, tenantID := range tenantIDs {
		if ctx.Err() != nil {
			return
		}
		tctx := appctx.WithActor(tenant.WithTenantID(ctx, tenantID), appctx.SystemActor)
		ttl := w.cfg.StockAuditInterval * auditLockTTLFactor
		obtained, err := w.locker.WithLock(tctx, "stock-audit:"+tenantID, ttl, w.auditTenant)
		if err != nil {
			logger.Error(tctx, "stock audit failed", "error", err)
			continue
		}
		if !obtained {
			logger.Debug(tctx, "stock audit running elsewhere")
		}
	}
}

// auditTenant logs every raw material whose counter drifted from its lots.
// Drift is reported, not corrected; POST /inventory/raw-materials/:id/reconcile fixes it.
func (w *Worker) auditTenant(ctx context.Context) error {
	lines, err := w.inventory.Audit(ctx)
	if err != nil {
		return err
	}

	drifted := 0
	for _, l := range lines {
		if !l.HasDrift() {
			continue
		}
		drifted++
		logger.Warn(ctx, "stock counter drift",
			"raw_material_id", l.RawMaterialID,
			"name", l.Name,
			"current_stock", l.CurrentStock,
			"expected", l.Expected,
			"drift", l.Drift,
		)
	}
	logger.Info(ctx, "stock audit completed", "materials", len(lines), "drifted", drifted)
	return nil
}
