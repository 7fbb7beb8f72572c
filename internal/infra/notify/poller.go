package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/pkg/errs"
	"handicraft-store/internal/usecase/shared"
)

const (
	maxRetryDelay = 5 * time.Minute
	sweepInterval = time.Hour
	// claimLease hides claimed jobs from other pollers while a batch is in
	// flight. A poller that dies mid-batch leaves its jobs due again after it.
	claimLease = time.Minute
)

// OutboxPoller drains notification jobs written by use cases. A batch is
// claimed in one unit of work, published with no unit of work open, and
// marked in a second one. Delivery is at least once.
type OutboxPoller struct {
	uow       shared.UnitOfWork
	publisher Publisher
	clock     clock.Clock
	logger    *slog.Logger
	interval  time.Duration
	batchSize int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOutboxPoller(uow shared.UnitOfWork, publisher Publisher, clk clock.Clock, logger *slog.Logger, interval time.Duration, batchSize int) *OutboxPoller {
	return &OutboxPoller{
		uow:       uow,
		publisher: publisher,
		clock:     clk,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (p *OutboxPoller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Run(ctx)
	}()
}

func (p *OutboxPoller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// Run also drops expired checkout idempotency keys once an hour.
func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("outbox poll failed", "error", err)
			}
		case <-sweep.C:
			if _, err := p.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("idempotency key sweep failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// PollOnce publishes one batch of due jobs and reports how many were sent.
// A failed publish is rescheduled with exponential backoff.
func (p *OutboxPoller) PollOnce(ctx context.Context) (int, error) {
	now := p.clock.Now()
	var jobs []shared.NotificationJob
	err := p.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		jobs, err = tx.Notifications().ClaimPending(ctx, p.batchSize, now, now.Add(claimLease))
		return err
	})
	if err != nil || len(jobs) == 0 {
		return 0, err
	}

	results := p.publisher.Publish(ctx, jobs)

	sent := 0
	err = p.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		sent = 0
		for i, job := range jobs {
			perr := errs.New("publisher returned no result")
			if i < len(results) {
				perr = results[i]
			}
			if perr != nil {
				retryAt := now.Add(p.retryDelay(job.Attempts))
				p.logger.Warn("notification publish failed",
					"id", job.ID,
					"kind", job.Kind,
					"attempts", job.Attempts+1,
					"retry_at", retryAt,
					"error", perr,
				)
				if err := tx.Notifications().MarkFailed(ctx, job.ID, perr.Error(), retryAt); err != nil {
					return err
				}
				continue
			}
			if err := tx.Notifications().MarkSent(ctx, job.ID, now); err != nil {
				return err
			}
			sent++
		}
		return nil
	})
	return sent, err
}

func (p *OutboxPoller) retryDelay(attempts int) time.Duration {
	delay := p.interval << min(attempts, 16)
	return min(delay, maxRetryDelay)
}

func (p *OutboxPoller) SweepOnce(ctx context.Context) (int64, error) {
	var n int64
	err := p.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		n, err = tx.IdempotencyKeys().DeleteExpired(ctx, p.clock.Now())
		return err
	})
	if err == nil && n > 0 {
		p.logger.Info("expired idempotency keys removed", "count", n)
	}
	return n, err
}
