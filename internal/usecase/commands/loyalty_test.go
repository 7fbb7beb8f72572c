//go:build unit

package commands_test

import (
	"context"
	"testing"

	"handicraft-store/internal/domain/loyalty"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeem(t *testing.T) {
	tests := []struct {
		name        string
		balance     int64 // 0 means no account
		cost        int64
		errIs       error
		wantBalance int64
	}{
		{name: "insufficient points", balance: 80, cost: 100, errIs: loyalty.ErrInsufficientPoints, wantBalance: 80},
		{name: "exact balance", balance: 100, cost: 100, wantBalance: 0},
		{name: "leaves remainder", balance: 250, cost: 100, wantBalance: 150},
		{name: "no account yet", cost: 1, errIs: loyalty.ErrInsufficientPoints, wantBalance: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			userID := uuid.New()
			if tt.balance > 0 {
				f.seedPoints(t, userID, tt.balance)
			}
			rewardID := f.createReward(t, tt.cost)

			res, err := f.loyalty.Redeem(context.Background(), userID, rewardID)

			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				assert.Empty(t, f.store.Jobs())
			} else {
				require.NoError(t, err)
				assert.Equal(t, -tt.cost, res.Entry.Delta)
				assert.Equal(t, tt.wantBalance, res.Account.TotalPoints)
				assert.Equal(t, rewardID, res.Reward.ID)
				assert.Equal(t, []shared.NotificationKind{shared.NotificationRewardRedeemed}, f.jobKinds())
			}

			acc, err := f.loyaltyQueries.Account(context.Background(), userID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBalance, acc.TotalPoints)
		})
	}
}

func TestRedeemUnknownReward(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.seedPoints(t, userID, 500)

	_, err := f.loyalty.Redeem(context.Background(), userID, uuid.New())
	require.ErrorIs(t, err, loyalty.ErrRewardNotFound)
}

func TestRewardsAreListed(t *testing.T) {
	f := newFixture(t)
	f.createReward(t, 100)
	f.createReward(t, 300)

	rewards, err := f.loyaltyQueries.Rewards(context.Background())
	require.NoError(t, err)
	require.Len(t, rewards, 2)
	assert.Equal(t, int64(100), rewards[0].PointsCost)
	assert.Equal(t, int64(300), rewards[1].PointsCost)
}
