package repository

import (
	"context"
	"log/slog"
	"time"

	"handicraft-store/internal/infra"
	"handicraft-store/internal/infra/db"
	"handicraft-store/internal/pkg/pgconv"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	selectIdempotencyKey = `
SELECT key, user_id, request_hash, order_id, expires_at, created_at
FROM checkout_idempotency_keys
WHERE key = $1 AND user_id = $2 AND expires_at > $3`

	// An expired row for the same key is taken over; a live one is a duplicate.
	insertIdempotencyKey = `
INSERT INTO checkout_idempotency_keys (key, user_id, request_hash, order_id, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (key, user_id) DO UPDATE
SET request_hash = EXCLUDED.request_hash,
    order_id = EXCLUDED.order_id,
    expires_at = EXCLUDED.expires_at,
    created_at = EXCLUDED.created_at
WHERE checkout_idempotency_keys.expires_at <= EXCLUDED.created_at`

	deleteExpiredIdempotencyKeys = `
DELETE FROM checkout_idempotency_keys WHERE expires_at <= $1`
)

type IdempotencyRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewIdempotencyRepository(dbtx db.DBTX, logger *slog.Logger) *IdempotencyRepository {
	return &IdempotencyRepository{db: dbtx, logger: logger}
}

func (r *IdempotencyRepository) Find(ctx context.Context, key, userID uuid.UUID, now time.Time) (*shared.IdempotencyKey, error) {
	var k shared.IdempotencyKey
	err := r.db.QueryRow(ctx, selectIdempotencyKey, key, userID, now).
		Scan(&k.Key, &k.UserID, &k.RequestHash, &k.OrderID, &k.ExpiresAt, &k.CreatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "idempotency key not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to get idempotency key", err)
	}
	return &k, nil
}

func (r *IdempotencyRepository) Create(ctx context.Context, k shared.IdempotencyKey) error {
	tag, err := r.db.Exec(ctx, insertIdempotencyKey,
		k.Key, k.UserID, k.RequestHash, k.OrderID, k.ExpiresAt, k.CreatedAt)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to insert idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindDuplicateKey, "idempotency key already exists")
	}
	return nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteExpiredIdempotencyKeys, now)
	if err != nil {
		return 0, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to delete expired idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}
