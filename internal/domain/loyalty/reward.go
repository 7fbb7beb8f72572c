package loyalty

import (
	"strings"
	"time"

	"handicraft-store/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrRewardNotFound     = errs.NotFound("reward not found")
	ErrRewardNameRequired = errs.Validation("reward name is required")
	ErrInvalidPointsCost  = errs.Validation("reward points cost must be positive")
)

// Reward is catalog data. Effect is opaque here and applied by whoever
// consumes the redemption notification.
type Reward struct {
	id          uuid.UUID
	name        string
	description string
	pointsCost  int64
	effect      string
	createdAt   time.Time
}

func NewReward(id uuid.UUID, name, description string, pointsCost int64, effect string, now time.Time) (*Reward, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrRewardNameRequired
	}
	if pointsCost <= 0 {
		return nil, ErrInvalidPointsCost
	}
	return &Reward{
		id:          id,
		name:        name,
		description: strings.TrimSpace(description),
		pointsCost:  pointsCost,
		effect:      strings.TrimSpace(effect),
		createdAt:   now,
	}, nil
}

func ReconstructReward(id uuid.UUID, name, description string, pointsCost int64, effect string, createdAt time.Time) *Reward {
	return &Reward{
		id:          id,
		name:        name,
		description: description,
		pointsCost:  pointsCost,
		effect:      effect,
		createdAt:   createdAt,
	}
}

func (r *Reward) ID() uuid.UUID        { return r.id }
func (r *Reward) Name() string         { return r.name }
func (r *Reward) Description() string  { return r.description }
func (r *Reward) PointsCost() int64    { return r.pointsCost }
func (r *Reward) Effect() string       { return r.effect }
func (r *Reward) CreatedAt() time.Time { return r.createdAt }
