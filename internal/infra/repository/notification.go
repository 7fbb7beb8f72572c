package repository

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"handicraft-store/internal/infra"
	"handicraft-store/internal/infra/db"
	"handicraft-store/internal/pkg/pgconv"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	insertNotificationJob = `
INSERT INTO notification_jobs (id, kind, topic, key, payload, status, attempts, run_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)`

	// SKIP LOCKED lets concurrent pollers split the backlog; moving run_at to
	// the lease keeps the rows hidden after this transaction commits.
	claimNotificationJobs = `
WITH due AS (
    SELECT id
    FROM notification_jobs
    WHERE status = 'pending' AND run_at <= $1
    ORDER BY run_at, created_at
    LIMIT $2
    FOR UPDATE SKIP LOCKED
)
UPDATE notification_jobs j
SET run_at = $3
FROM due
WHERE j.id = due.id
RETURNING j.id, j.kind, j.topic, j.key, j.payload, j.status, j.attempts, j.last_error, j.run_at, j.created_at, j.sent_at`

	markNotificationSent = `
UPDATE notification_jobs SET status = 'sent', attempts = attempts + 1, sent_at = $2, last_error = NULL
WHERE id = $1`

	markNotificationFailed = `
UPDATE notification_jobs SET attempts = attempts + 1, last_error = $2, run_at = $3
WHERE id = $1`
)

type NotificationRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewNotificationRepository(dbtx db.DBTX, logger *slog.Logger) *NotificationRepository {
	return &NotificationRepository{db: dbtx, logger: logger}
}

func (r *NotificationRepository) Enqueue(ctx context.Context, job shared.NotificationJob) error {
	_, err := r.db.Exec(ctx, insertNotificationJob,
		job.ID, string(job.Kind), job.Topic, job.Key, job.Payload, job.Status, job.RunAt, job.CreatedAt,
	)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to create notification job", err)
	}
	return nil
}

func (r *NotificationRepository) ClaimPending(ctx context.Context, limit int, now, leaseUntil time.Time) ([]shared.NotificationJob, error) {
	rows, err := r.db.Query(ctx, claimNotificationJobs, now, limit, leaseUntil)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to claim notification jobs", err)
	}
	jobs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (shared.NotificationJob, error) {
		var (
			job       shared.NotificationJob
			kind      string
			lastError pgtype.Text
			sentAt    pgtype.Timestamptz
		)
		err := row.Scan(&job.ID, &kind, &job.Topic, &job.Key, &job.Payload, &job.Status,
			&job.Attempts, &lastError, &job.RunAt, &job.CreatedAt, &sentAt)
		job.Kind = shared.NotificationKind(kind)
		job.LastError = pgconv.StringPtrFromPgtype(lastError)
		job.SentAt = pgconv.TimePtrFromPgtype(sentAt)
		return job, err
	})
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan notification jobs", err)
	}
	// RETURNING does not keep the CTE order
	slices.SortFunc(jobs, func(a, b shared.NotificationJob) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return jobs, nil
}

func (r *NotificationRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, "failed to mark notification sent", markNotificationSent, id, at)
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string, retryAt time.Time) error {
	return r.update(ctx, "failed to mark notification failed", markNotificationFailed, id, lastError, retryAt)
}

func (r *NotificationRepository) update(ctx context.Context, msg, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, msg, err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "notification job not found")
	}
	return nil
}
