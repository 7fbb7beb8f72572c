package repository

import (
	"context"
	"log/slog"
	"time"

	"handicraft-store/internal/domain/loyalty"
	"handicraft-store/internal/infra"
	"handicraft-store/internal/infra/db"
	"handicraft-store/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	selectAccount = `SELECT total_points, created_at, updated_at FROM loyalty_accounts WHERE user_id = $1`

	selectAccountForUpdate = selectAccount + ` FOR UPDATE`

	ensureAccount = `
INSERT INTO loyalty_accounts (user_id, total_points, created_at, updated_at)
VALUES ($1, 0, $2, $2)
ON CONFLICT (user_id) DO NOTHING`

	upsertAccount = `
INSERT INTO loyalty_accounts (user_id, total_points, created_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE
SET total_points = EXCLUDED.total_points, updated_at = EXCLUDED.updated_at`

	selectEntries = `
SELECT delta, description, order_id, reward_id, created_at
FROM loyalty_entries WHERE user_id = $1 ORDER BY id`

	insertEntry = `
INSERT INTO loyalty_entries (user_id, delta, description, order_id, reward_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
)

type LoyaltyRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewLoyaltyRepository(dbtx db.DBTX, logger *slog.Logger) *LoyaltyRepository {
	return &LoyaltyRepository{db: dbtx, logger: logger}
}

func (r *LoyaltyRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*loyalty.Account, error) {
	return r.find(ctx, selectAccount, userID)
}

func (r *LoyaltyRepository) FindForUpdate(ctx context.Context, userID uuid.UUID) (*loyalty.Account, error) {
	return r.find(ctx, selectAccountForUpdate, userID)
}

func (r *LoyaltyRepository) EnsureForUpdate(ctx context.Context, userID uuid.UUID, now time.Time) (*loyalty.Account, error) {
	if _, err := r.db.Exec(ctx, ensureAccount, userID, now); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to create loyalty account", err)
	}
	return r.FindForUpdate(ctx, userID)
}

func (r *LoyaltyRepository) Save(ctx context.Context, a *loyalty.Account) error {
	if _, err := r.db.Exec(ctx, upsertAccount, a.UserID(), a.TotalPoints(), a.CreatedAt(), a.UpdatedAt()); err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to save loyalty account", err)
	}

	for _, e := range a.PendingEntries() {
		if _, err := r.db.Exec(ctx, insertEntry,
			a.UserID(),
			e.Delta,
			e.Description,
			pgconv.UUIDPtrToPgtype(e.OrderID),
			pgconv.UUIDPtrToPgtype(e.RewardID),
			e.CreatedAt,
		); err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to append loyalty entry", err)
		}
	}
	a.MarkPersisted()
	return nil
}

func (r *LoyaltyRepository) find(ctx context.Context, query string, userID uuid.UUID) (*loyalty.Account, error) {
	var (
		total     int64
		createdAt time.Time
		updatedAt time.Time
	)
	if err := r.db.QueryRow(ctx, query, userID).Scan(&total, &createdAt, &updatedAt); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "loyalty account not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find loyalty account", err)
	}

	rows, err := r.db.Query(ctx, selectEntries, userID)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to query loyalty history", err)
	}
	defer rows.Close()

	var history []loyalty.PointEntry
	for rows.Next() {
		var (
			e        loyalty.PointEntry
			orderID  pgtype.UUID
			rewardID pgtype.UUID
		)
		if err := rows.Scan(&e.Delta, &e.Description, &orderID, &rewardID, &e.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan loyalty entry", err)
		}
		e.OrderID = pgconv.UUIDPtrFromPgtype(orderID)
		e.RewardID = pgconv.UUIDPtrFromPgtype(rewardID)
		history = append(history, e)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to read loyalty history", err)
	}

	return loyalty.ReconstructAccount(userID, total, history, createdAt, updatedAt), nil
}
