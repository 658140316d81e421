package main

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenledger/internal/config"
	appctx "kitchenledger/internal/core/context"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/events"
	"kitchenledger/internal/domain/inventory"
	"kitchenledger/internal/infrastructure/storage/memory"
	"kitchenledger/pkg/logger"
)

type fakeRelay struct {
	batches []int
	err     error
	calls   int
	purged  time.Time
}

func (r *fakeRelay) ProcessBatch(_ context.Context) (int, error) {
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	if len(r.batches) == 0 {
		return 0, nil
	}
	n := r.batches[0]
	r.batches = r.batches[1:]
	return n, nil
}

func (r *fakeRelay) PurgePublished(_ context.Context, olderThan time.Time) (int64, error) {
	r.purged = olderThan
	return 3, nil
}

type recordingLocker struct {
	keys     []string
	traceIDs []string
	refuse   bool
}

func (l *recordingLocker) WithLock(ctx context.Context, key string, _ time.Duration, fn func(ctx context.Context) error) (bool, error) {
	l.keys = append(l.keys, key)
	if tc := appctx.GetTrace(ctx); tc != nil {
		l.traceIDs = append(l.traceIDs, tc.TraceID)
	}
	if l.refuse {
		return false, nil
	}
	return true, fn(ctx)
}

func newTestWorker(relay OutboxRelay, store *memory.Store, locker *recordingLocker) *Worker {
	txm := memory.NewTxManager(store)
	return &Worker{
		relay:     relay,
		inventory: inventory.NewService(store, txm, events.NoopPublisher{}),
		tenants:   store,
		locker:    locker,
		cfg:       config.Config{OutboxPollInterval: time.Second, StockAuditInterval: time.Minute},
		log:       logger.Default(),
	}
}

func TestDrainOutboxStopsOnShortBatch(t *testing.T) {
	relay := &fakeRelay{batches: []int{outboxBatchSize, outboxBatchSize, 7}}
	w := newTestWorker(relay, memory.New(), &recordingLocker{})

	w.drainOutbox(context.Background())

	assert.Equal(t, 3, relay.calls)
}

func TestDrainOutboxStopsOnError(t *testing.T) {
	relay := &fakeRelay{err: errors.New("connection reset")}
	w := newTestWorker(relay, memory.New(), &recordingLocker{})

	w.drainOutbox(context.Background())

	assert.Equal(t, 1, relay.calls)
}

func TestPurgeOutboxUsesRetention(t *testing.T) {
	relay := &fakeRelay{}
	w := newTestWorker(relay, memory.New(), &recordingLocker{})

	before := time.Now().UTC().Add(-outboxRetention)
	w.purgeOutbox(context.Background())

	assert.WithinDuration(t, before, relay.purged, time.Second)
}

func seedMaterial(t *testing.T, store *memory.Store, tenantID, name string) {
	t.Helper()
	ctx := tenant.WithTenantID(context.Background(), tenantID)
	svc := inventory.NewService(store, memory.NewTxManager(store), events.NoopPublisher{})
	m := inventory.NewRawMaterial("", name, inventory.UnitKilogram, types.MustMoney("1"), 0)
	require.NoError(t, svc.CreateRawMaterial(ctx, m))
}

func TestAuditAllLocksPerTenant(t *testing.T) {
	store := memory.New()
	seedMaterial(t, store, "trattoria", "Flour")
	seedMaterial(t, store, "bistro", "Butter")

	locker := &recordingLocker{}
	w := newTestWorker(&fakeRelay{}, store, locker)
	w.auditAll(context.Background())

	keys := append([]string(nil), locker.keys...)
	sort.Strings(keys)
	assert.Equal(t, []string{"stock-audit:bistro", "stock-audit:trattoria"}, keys)

	require.Len(t, locker.traceIDs, 2)
	assert.NotEmpty(t, locker.traceIDs[0])
	assert.Equal(t, locker.traceIDs[0], locker.traceIDs[1])
}

func TestAuditAllSkipsWhenLockHeld(t *testing.T) {
	store := memory.New()
	seedMaterial(t, store, "bistro", "Butter")

	locker := &recordingLocker{refuse: true}
	w := newTestWorker(&fakeRelay{}, store, locker)

	assert.NotPanics(t, func() { w.auditAll(context.Background()) })
	assert.Len(t, locker.keys, 1)
}

func TestAuditTenantRequiresTenant(t *testing.T) {
	w := newTestWorker(&fakeRelay{}, memory.New(), &recordingLocker{})
	assert.Error(t, w.auditTenant(context.Background()))
}
