package loyalty

import "github.com/shopspring/decimal"

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// Lower bounds are inclusive.
const (
	silverThreshold   int64 = 200
	goldThreshold     int64 = 500
	platinumThreshold int64 = 1000
)

func TierFor(points int64) Tier {
	switch {
	case points >= platinumThreshold:
		return TierPlatinum
	case points >= goldThreshold:
		return TierGold
	case points >= silverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

var multipliers = map[Tier]decimal.Decimal{
	TierBronze:   decimal.NewFromInt(1),
	TierSilver:   decimal.RequireFromString("1.5"),
	TierGold:     decimal.NewFromInt(2),
	TierPlatinum: decimal.NewFromInt(3),
}

func (t Tier) Multiplier() decimal.Decimal {
	if m, ok := multipliers[t]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

func (t Tier) String() string { return string(t) }
