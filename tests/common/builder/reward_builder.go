//go:build unit || e2e

package builder

import (
	"time"

	"handicraft-store/internal/domain/loyalty"
	reqdto "handicraft-store/internal/handler/dto/request"
	"handicraft-store/internal/usecase/queries"

	"github.com/google/uuid"
)

type RewardBuilder struct {
	ID          uuid.UUID
	Name        string
	Description string
	PointsCost  int64
	Effect      string
	Now         time.Time
}

func NewRewardBuilder() *RewardBuilder {
	return &RewardBuilder{
		ID:          uuid.New(),
		Name:        "Free shipping",
		Description: "Shipping fee waived on the next order",
		PointsCost:  100,
		Effect:      "free_shipping",
		Now:         time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (b *RewardBuilder) With(mutate func(*RewardBuilder)) *RewardBuilder {
	mutate(b)
	return b
}

func (b *RewardBuilder) BuildDomain() (*loyalty.Reward, error) {
	return loyalty.NewReward(b.ID, b.Name, b.Description, b.PointsCost, b.Effect, b.Now)
}

func (b *RewardBuilder) MustBuild() *loyalty.Reward {
	r, err := b.BuildDomain()
	if err != nil {
		panic(err)
	}
	return r
}

func (b *RewardBuilder) BuildView() *queries.RewardView {
	return queries.ToRewardView(b.MustBuild())
}

func (b *RewardBuilder) BuildCreateRequestDTO() reqdto.CreateRewardRequest {
	return reqdto.CreateRewardRequest{
		Name:        b.Name,
		Description: &b.Description,
		PointsCost:  b.PointsCost,
		Effect:      b.Effect,
	}
}
