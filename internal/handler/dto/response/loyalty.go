package response

import (
	"time"

	"handicraft-store/internal/usecase/commands"
	"handicraft-store/internal/usecase/queries"
)

type AccountResponse struct {
	UserID      string    `json:"user_id"`
	TotalPoints int64     `json:"total_points"`
	Tier        string    `json:"tier"`
	Multiplier  string    `json:"multiplier"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromAccountView(v *queries.AccountView) *AccountResponse {
	res := &AccountResponse{}
	mustCopy(res, v)
	return res
}

type PointEntryResponse struct {
	Delta       int64     `json:"delta"`
	Description string    `json:"description"`
	OrderID     *string   `json:"order_id,omitempty"`
	RewardID    *string   `json:"reward_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromPointEntries(items []queries.PointEntryView) []PointEntryResponse {
	res := make([]PointEntryResponse, len(items))
	for i := range items {
		mustCopy(&res[i], &items[i])
	}
	return res
}

type RewardResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PointsCost  int64     `json:"points_cost"`
	Effect      string    `json:"effect"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromRewardView(v *queries.RewardView) *RewardResponse {
	res := &RewardResponse{}
	mustCopy(res, v)
	return res
}

func FromRewardList(items []*queries.RewardView) []*RewardResponse {
	res := make([]*RewardResponse, len(items))
	for i, it := range items {
		res[i] = FromRewardView(it)
	}
	return res
}

type RedeemResponse struct {
	Account *AccountResponse   `json:"account"`
	Entry   PointEntryResponse `json:"entry"`
	Reward  *RewardResponse    `json:"reward"`
}

func FromRedeemResult(r *commands.RedeemResult) *RedeemResponse {
	entries := FromPointEntries([]queries.PointEntryView{r.Entry})
	return &RedeemResponse{
		Account: FromAccountView(r.Account),
		Entry:   entries[0],
		Reward:  FromRewardView(r.Reward),
	}
}
