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
	"github.com/jackc/pgx/v5"
)

const (
	rewardColumns = `id, name, description, points_cost, effect, created_at`

	selectRewardByID = `SELECT ` + rewardColumns + ` FROM rewards WHERE id = $1`

	selectRewards = `SELECT ` + rewardColumns + ` FROM rewards ORDER BY points_cost, created_at`

	insertReward = `
INSERT INTO rewards (id, name, description, points_cost, effect, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
)

type RewardRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewRewardRepository(dbtx db.DBTX, logger *slog.Logger) *RewardRepository {
	return &RewardRepository{db: dbtx, logger: logger}
}

func (r *RewardRepository) FindByID(ctx context.Context, id uuid.UUID) (*loyalty.Reward, error) {
	rw, err := scanReward(r.db.QueryRow(ctx, selectRewardByID, id))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "reward not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find reward", err)
	}
	return rw, nil
}

func (r *RewardRepository) Create(ctx context.Context, rw *loyalty.Reward) error {
	_, err := r.db.Exec(ctx, insertReward, rw.ID(), rw.Name(), rw.Description(), rw.PointsCost(), rw.Effect(), rw.CreatedAt())
	if err != nil {
		if pgconv.IsUniqueViolation(err) {
			return infra.WrapRepoErr(r.logger, infra.KindDuplicateKey, "reward already exists", err)
		}
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to create reward", err)
	}
	return nil
}

func (r *RewardRepository) List(ctx context.Context) ([]*loyalty.Reward, error) {
	rows, err := r.db.Query(ctx, selectRewards)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list rewards", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*loyalty.Reward, error) {
		return scanReward(row)
	})
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan rewards", err)
	}
	return out, nil
}

func scanReward(row pgx.Row) (*loyalty.Reward, error) {
	var (
		id          uuid.UUID
		name        string
		description string
		pointsCost  int64
		effect      string
		createdAt   time.Time
	)
	if err := row.Scan(&id, &name, &description, &pointsCost, &effect, &createdAt); err != nil {
		return nil, err
	}
	return loyalty.ReconstructReward(id, name, description, pointsCost, effect, createdAt), nil
}
