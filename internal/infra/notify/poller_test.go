//go:build unit

package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"handicraft-store/internal/infra/memstore"
	"handicraft-store/internal/infra/notify"
	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu        sync.Mutex
	published []shared.NotificationJob
	failNext  int
	batches   int
	during    func()
}

func (p *recordingPublisher) Publish(_ context.Context, jobs []shared.NotificationJob) []error {
	if p.during != nil {
		p.during()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches++
	results := make([]error, len(jobs))
	for i, job := range jobs {
		if p.failNext > 0 {
			p.failNext--
			results[i] = errors.New("broker unavailable")
			continue
		}
		p.published = append(p.published, job)
	}
	return results
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func enqueue(t *testing.T, store *memstore.Store, kind shared.NotificationKind, key string) {
	t.Helper()
	job, err := shared.NewNotificationJob(kind, key, map[string]string{"key": key}, start)
	require.NoError(t, err)
	require.NoError(t, store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		return tx.Notifications().Enqueue(ctx, job)
	}))
}

func newPoller(store *memstore.Store, pub notify.Publisher, clk clock.Clock) *notify.OutboxPoller {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return notify.NewOutboxPoller(store, pub, clk, logger, time.Second, 10)
}

func TestOutboxPoller_PollOncePublishesPendingJobs(t *testing.T) {
	store := memstore.NewStore()
	enqueue(t, store, shared.NotificationOrderPlaced, "order-1")
	enqueue(t, store, shared.NotificationPointsAwarded, "user-1")
	pub := &recordingPublisher{}
	poller := newPoller(store, pub, clock.NewMockClock(start))

	sent, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 2, pub.count())
	assert.Equal(t, 1, pub.batches, "one publish call per claimed batch")

	for _, job := range store.Jobs() {
		assert.Equal(t, shared.JobStatusSent, job.Status)
		assert.Equal(t, 1, job.Attempts)
	}

	sent, err = poller.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestOutboxPoller_FailedPublishIsRetriedAfterBackoff(t *testing.T) {
	store := memstore.NewStore()
	enqueue(t, store, shared.NotificationOrderPlaced, "order-1")
	pub := &recordingPublisher{failNext: 1}
	clk := clock.NewMockClock(start)
	poller := newPoller(store, pub, clk)

	sent, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	jobs := store.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, shared.JobStatusPending, jobs[0].Status)
	require.NotNil(t, jobs[0].LastError)
	assert.Equal(t, "broker unavailable", *jobs[0].LastError)
	assert.Equal(t, start.Add(time.Second), jobs[0].RunAt)

	// not yet due
	sent, err = poller.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	clk.Add(time.Second)
	sent, err = poller.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	jobs = store.Jobs()
	assert.Equal(t, shared.JobStatusSent, jobs[0].Status)
	assert.Equal(t, 2, jobs[0].Attempts)
}

func TestOutboxPoller_PublishRunsOutsideUnitOfWork(t *testing.T) {
	store := memstore.NewStore()
	enqueue(t, store, shared.NotificationOrderPlaced, "order-1")

	wroteDuringPublish := false
	pub := &recordingPublisher{}
	pub.during = func() {
		// a slow broker must not hold the store while it flushes
		done := make(chan struct{})
		go func() {
			_ = store.Within(context.Background(), func(context.Context, shared.Tx) error { return nil })
			close(done)
		}()
		select {
		case <-done:
			wroteDuringPublish = true
		case <-time.After(time.Second):
		}
	}
	poller := newPoller(store, pub, clock.NewMockClock(start))

	sent, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.True(t, wroteDuringPublish, "store write blocked while the batch was being published")
}

func TestOutboxPoller_ClaimedJobsAreLeased(t *testing.T) {
	store := memstore.NewStore()
	enqueue(t, store, shared.NotificationOrderPlaced, "order-1")
	clk := clock.NewMockClock(start)
	pub := &recordingPublisher{}
	poller := newPoller(store, pub, clk)

	// another poller claimed the job and died before marking it
	require.NoError(t, store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		jobs, err := tx.Notifications().ClaimPending(ctx, 10, start, start.Add(time.Minute))
		require.Len(t, jobs, 1)
		return err
	}))

	sent, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent, "leased job is hidden")

	clk.Add(time.Minute)
	sent, err = poller.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "lapsed lease makes the job due again")
}

func TestOutboxPoller_PartialBatchFailure(t *testing.T) {
	store := memstore.NewStore()
	enqueue(t, store, shared.NotificationOrderPlaced, "order-1")
	enqueue(t, store, shared.NotificationOrderPlaced, "order-2")
	pub := &recordingPublisher{failNext: 1}
	poller := newPoller(store, pub, clock.NewMockClock(start))

	sent, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	statuses := map[string]string{}
	for _, job := range store.Jobs() {
		statuses[job.Key] = job.Status
	}
	assert.Equal(t, shared.JobStatusPending, statuses["order-1"])
	assert.Equal(t, shared.JobStatusSent, statuses["order-2"])
}

func TestOutboxPoller_StartStop(t *testing.T) {
	store := memstore.NewStore()
	enqueue(t, store, shared.NotificationRewardRedeemed, "user-1")
	pub := &recordingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	poller := notify.NewOutboxPoller(store, pub, clock.NewMockClock(start), logger, 10*time.Millisecond, 10)

	poller.Start()
	assert.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)
	poller.Stop()
}

func TestOutboxPoller_SweepOnceDropsExpiredKeys(t *testing.T) {
	store := memstore.NewStore()
	clk := clock.NewMockClock(start)
	poller := newPoller(store, &recordingPublisher{}, clk)
	live, stale := uuid.New(), uuid.New()
	userID := uuid.New()
	require.NoError(t, store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		for key, ttl := range map[uuid.UUID]time.Duration{live: 48 * time.Hour, stale: time.Hour} {
			err := tx.IdempotencyKeys().Create(ctx, shared.IdempotencyKey{
				Key: key, UserID: userID, RequestHash: "h", OrderID: uuid.New(),
				ExpiresAt: start.Add(ttl), CreatedAt: start,
			})
			if err != nil {
				return err
			}
		}
		return nil
	}))

	clk.Add(2 * time.Hour)
	n, err := poller.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.WithinReadOnly(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		_, err := tx.IdempotencyKeys().Find(ctx, live, userID, clk.Now())
		assert.NoError(t, err)
		_, err = tx.IdempotencyKeys().Find(ctx, stale, userID, clk.Now())
		assert.True(t, shared.IsNotFound(err))
		return nil
	}))
}

func TestLogPublisher_Publish(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := notify.NewLogPublisher(logger)
	job, err := shared.NewNotificationJob(shared.NotificationCouponRejected, "user-1", map[string]string{}, start)
	require.NoError(t, err)

	assert.Equal(t, []error{nil}, pub.Publish(context.Background(), []shared.NotificationJob{job}))
	assert.NoError(t, pub.Close())
}
