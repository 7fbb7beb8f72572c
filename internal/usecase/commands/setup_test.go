//go:build unit

package commands_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/domain/loyalty"
	"handicraft-store/internal/domain/order"
	"handicraft-store/internal/domain/pricing"
	"handicraft-store/internal/infra/cache"
	"handicraft-store/internal/infra/memstore"
	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/usecase/commands"
	"handicraft-store/internal/usecase/queries"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Demo catalog entries seeded into every fixture.
var (
	mochilaID = uuid.MustParse("6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c01") // 180000, large +45000
	potID     = uuid.MustParse("6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c02") // 50000
)

var fixtureStart = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memstore.Store
	clock    *clock.MockClock
	cart     commands.CartCommands
	checkout commands.CheckoutCommands
	orders   commands.OrderCommands
	loyalty  commands.LoyaltyCommands
	admin    commands.CatalogAdminCommands

	cartQueries    queries.CartQueries
	orderQueries   queries.OrderQueries
	loyaltyQueries queries.LoyaltyQueries
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.NewStore()
	for _, p := range memstore.DemoProducts() {
		store.AddProduct(p)
	}
	clk := clock.NewMockClock(fixtureStart)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline, err := pricing.NewPipeline(pricing.Config{
		TaxRate:     decimal.RequireFromString("0.19"),
		ShippingFee: decimal.NewFromInt(15000),
	})
	require.NoError(t, err)
	noCache := cache.NoopCartCache{}

	return &fixture{
		store:          store,
		clock:          clk,
		cart:           commands.NewCartUseCase(store, store, noCache, clk, logger),
		checkout:       commands.NewCheckoutUseCase(store, pipeline, noCache, clk, logger),
		orders:         commands.NewOrderUseCase(store, decimal.NewFromInt(1000), clk, logger),
		loyalty:        commands.NewLoyaltyUseCase(store, clk, logger),
		admin:          commands.NewCatalogAdminUseCase(store, clk, logger),
		cartQueries:    queries.NewCartQueries(store, noCache, pipeline, clk, logger),
		orderQueries:   queries.NewOrderQueries(store),
		loyaltyQueries: queries.NewLoyaltyQueries(store),
	}
}

func (f *fixture) addLine(t *testing.T, userID, productID uuid.UUID, variant string, qty int) {
	t.Helper()
	_, err := f.cart.AddLine(context.Background(), userID, commands.AddLineRequest{
		ProductID: productID,
		VariantID: variant,
		Quantity:  qty,
	})
	require.NoError(t, err)
}

func (f *fixture) createCoupon(t *testing.T, code string, kind coupon.Kind, value, minPurchase int64, uses *int, expiresAt *time.Time) {
	t.Helper()
	_, err := f.admin.CreateCoupon(context.Background(), commands.CreateCouponRequest{
		Code:          code,
		Kind:          string(kind),
		Value:         decimal.NewFromInt(value),
		MinPurchase:   decimal.NewFromInt(minPurchase),
		ExpiresAt:     expiresAt,
		UsesRemaining: uses,
	})
	require.NoError(t, err)
}

func (f *fixture) createReward(t *testing.T, cost int64) uuid.UUID {
	t.Helper()
	r, err := f.admin.CreateReward(context.Background(), commands.CreateRewardRequest{
		Name:       "Free gift wrap",
		PointsCost: cost,
		Effect:     "gift_wrap",
	})
	require.NoError(t, err)
	return r.ID
}

// seedPoints stores an account that already holds points.
func (f *fixture) seedPoints(t *testing.T, userID uuid.UUID, points int64) {
	t.Helper()
	err := f.store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		acc := loyalty.ReconstructAccount(userID, points, nil, fixtureStart, fixtureStart)
		return tx.Loyalty().Save(ctx, acc)
	})
	require.NoError(t, err)
}

func (f *fixture) couponUses(t *testing.T, code string) *int {
	t.Helper()
	var uses *int
	err := f.store.WithinReadOnly(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		c, err := tx.Coupons().FindByCode(ctx, coupon.Code(code))
		if err != nil {
			return err
		}
		uses = c.UsesRemaining()
		return nil
	})
	require.NoError(t, err)
	return uses
}

func (f *fixture) jobKinds() []shared.NotificationKind {
	jobs := f.store.Jobs()
	kinds := make([]shared.NotificationKind, 0, len(jobs))
	for _, j := range jobs {
		kinds = append(kinds, j.Kind)
	}
	return kinds
}

func checkoutRequest() commands.CheckoutRequest {
	return commands.CheckoutRequest{
		ShippingAddress: order.Address{
			Recipient: "Ana Restrepo",
			Line1:     "Calle 10 # 5-20",
			City:      "Bogotá",
			Country:   "CO",
		},
		PaymentMethod: string(order.PaymentCard),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(n int) *int { return &n }
