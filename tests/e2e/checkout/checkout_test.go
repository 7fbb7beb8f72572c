//go:build e2e

package checkout_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"handicraft-store/internal/domain/user"
	reqdto "handicraft-store/internal/handler/dto/request"
	resdto "handicraft-store/internal/handler/dto/response"
	"handicraft-store/tests/common/authtest"
	"handicraft-store/tests/common/dbtest"
	"handicraft-store/tests/common/httptest"
	"handicraft-store/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CheckoutE2ESuite struct {
	e2e.SharedSuite
	jwt *authtest.JWTHelper
}

func TestCheckoutE2ESuite(t *testing.T) {
	suite.Run(t, new(CheckoutE2ESuite))
}

func (s *CheckoutE2ESuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	s.jwt = authtest.NewJWTHelper(s.Config.JWT)
}

func (s *CheckoutE2ESuite) addPots(token string, qty int) {
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/cart/lines",
		reqdto.AddLineRequest{ProductID: dbtest.PotID, Quantity: qty}, token)
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
}

func (s *CheckoutE2ESuite) applyCoupon(token, code string) {
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodPut, "/api/cart/coupon",
		reqdto.ApplyCouponRequest{Code: code}, token)
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
}

func (s *CheckoutE2ESuite) checkout(token string) resdto.CheckoutResponse {
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/checkout", checkoutBody(), token)
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())

	var res resdto.CheckoutResponse
	_ = httptest.DecodeResponseBody(s.T(), w.Body, &res)
	return res
}

func checkoutBody() reqdto.CheckoutRequest {
	return reqdto.CheckoutRequest{
		ShippingAddress: reqdto.AddressRequest{
			Recipient: "Ana Pérez",
			Line1:     "Calle 10 # 5-21",
			City:      "Bogotá",
			Country:   "CO",
		},
		PaymentMethod: "card",
	}
}

func (s *CheckoutE2ESuite) couponUses(code string) *int {
	var uses *int
	err := s.DB.QueryRow(context.Background(),
		"SELECT uses_remaining FROM coupons WHERE code = $1", code).Scan(&uses)
	require.NoError(s.T(), err)
	return uses
}

func (s *CheckoutE2ESuite) TestCheckoutWithCoupon() {
	s.Run("success: coupon applied, consumed and order placed", func() {
		customerID := uuid.New()
		token := s.jwt.GenerateToken(s.T(), customerID, user.RoleCustomer)
		uses := 2
		dbtest.CreateTestCoupon(s.T(), s.DB, "SAVE10", "percent", 10, 50000, &uses)

		s.addPots(token, 2)
		s.applyCoupon(token, "save10")

		res := s.checkout(token)

		require.NotNil(s.T(), res.Order)
		assert.Nil(s.T(), res.CouponRejection)
		assert.Equal(s.T(), "pending", res.Order.Status)
		assert.Equal(s.T(), "100000.00", res.Order.Pricing.Subtotal)
		assert.Equal(s.T(), "10000.00", res.Order.Pricing.DiscountTotal)
		assert.Equal(s.T(), "17100.00", res.Order.Pricing.Tax)
		assert.Equal(s.T(), "122100.00", res.Order.Pricing.Total)

		require.NotNil(s.T(), s.couponUses("SAVE10"))
		assert.Equal(s.T(), 1, *s.couponUses("SAVE10"))
		assert.Equal(s.T(), 1, dbtest.CountNotifications(s.T(), s.DB, "order_placed"))

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/cart", nil, token)
		require.Equal(s.T(), http.StatusOK, w.Code)
		var cart resdto.CartResponse
		_ = httptest.DecodeResponseBody(s.T(), w.Body, &cart)
		assert.Empty(s.T(), cart.Lines)
	})

	s.Run("success: coupon below minimum is reported and the order still goes through", func() {
		token := s.jwt.GenerateToken(s.T(), uuid.New(), user.RoleCustomer)
		dbtest.CreateTestCoupon(s.T(), s.DB, "BIG", "fixed", 20000, 500000, nil)

		s.addPots(token, 1)
		s.applyCoupon(token, "BIG")

		res := s.checkout(token)

		require.NotNil(s.T(), res.CouponRejection)
		assert.Equal(s.T(), "CONFLICT", res.CouponRejection.Kind)
		assert.Equal(s.T(), "0.00", res.Order.Pricing.DiscountTotal)
		assert.Equal(s.T(), "74500.00", res.Order.Pricing.Total)
		assert.Equal(s.T(), 1, dbtest.CountNotifications(s.T(), s.DB, "coupon_rejected"))
	})

	s.Run("success: a retried checkout with the same key returns the same order", func() {
		token := s.jwt.GenerateToken(s.T(), uuid.New(), user.RoleCustomer)
		headers := map[string]string{"Idempotency-Key": uuid.NewString()}
		s.addPots(token, 1)

		first := httptest.PerformRequestWithHeaders(s.T(), s.Router, http.MethodPost, "/api/checkout", checkoutBody(), token, headers)
		require.Equal(s.T(), http.StatusCreated, first.Code, first.Body.String())
		second := httptest.PerformRequestWithHeaders(s.T(), s.Router, http.MethodPost, "/api/checkout", checkoutBody(), token, headers)
		require.Equal(s.T(), http.StatusCreated, second.Code, second.Body.String())

		var a, b resdto.CheckoutResponse
		_ = httptest.DecodeResponseBody(s.T(), first.Body, &a)
		_ = httptest.DecodeResponseBody(s.T(), second.Body, &b)
		assert.False(s.T(), a.Replayed)
		assert.True(s.T(), b.Replayed)
		assert.Equal(s.T(), a.Order.ID, b.Order.ID)
		assert.Equal(s.T(), 1, dbtest.CountNotifications(s.T(), s.DB, "order_placed"))
	})

	s.Run("error: empty cart is rejected", func() {
		token := s.jwt.GenerateToken(s.T(), uuid.New(), user.RoleCustomer)

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/checkout", checkoutBody(), token)

		assert.Equal(s.T(), http.StatusBadRequest, w.Code)
		assert.Equal(s.T(), 0, dbtest.CountNotifications(s.T(), s.DB, "order_placed"))
	})
}

func (s *CheckoutE2ESuite) TestOrderLifecycle() {
	s.Run("success: delivery awards loyalty points once", func() {
		customerID := uuid.New()
		token := s.jwt.GenerateToken(s.T(), customerID, user.RoleCustomer)
		adminToken := s.jwt.GenerateToken(s.T(), uuid.New(), user.RoleAdmin)
		dbtest.CreateLoyaltyAccount(s.T(), s.DB, customerID, 150)

		s.addPots(token, 2)
		orderID := s.checkout(token).Order.ID

		for _, status := range []string{"processing", "shipped", "delivered"} {
			w := httptest.PerformRequest(s.T(), s.Router, http.MethodPut, "/api/admin/orders/"+orderID+"/status",
				reqdto.AdvanceOrderRequest{Status: status}, adminToken)
			require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
		}

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/loyalty", nil, token)
		require.Equal(s.T(), http.StatusOK, w.Code)
		var account resdto.AccountResponse
		_ = httptest.DecodeResponseBody(s.T(), w.Body, &account)
		// bronze at award time: floor(134000 / 1000) * 1 = 134
		assert.Equal(s.T(), int64(284), account.TotalPoints)
		assert.Equal(s.T(), "silver", account.Tier)
		assert.Equal(s.T(), 1, dbtest.CountNotifications(s.T(), s.DB, "points_awarded"))
		assert.Equal(s.T(), 3, dbtest.CountNotifications(s.T(), s.DB, "order_status_changed"))

		w = httptest.PerformRequest(s.T(), s.Router, http.MethodPut, "/api/admin/orders/"+orderID+"/status",
			reqdto.AdvanceOrderRequest{Status: "delivered"}, adminToken)
		assert.Equal(s.T(), http.StatusConflict, w.Code)
	})

	s.Run("error: a shipped order cannot be cancelled", func() {
		token := s.jwt.GenerateToken(s.T(), uuid.New(), user.RoleCustomer)
		adminToken := s.jwt.GenerateToken(s.T(), uuid.New(), user.RoleAdmin)

		s.addPots(token, 1)
		orderID := s.checkout(token).Order.ID
		for _, status := range []string{"processing", "shipped"} {
			w := httptest.PerformRequest(s.T(), s.Router, http.MethodPut, "/api/admin/orders/"+orderID+"/status",
				reqdto.AdvanceOrderRequest{Status: status}, adminToken)
			require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
		}

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/orders/"+orderID+"/cancel", nil, token)

		assert.Equal(s.T(), http.StatusConflict, w.Code)
	})

	s.Run("error: customers cannot advance orders", func() {
		token := s.jwt.GenerateToken(s.T(), uuid.New(), user.RoleCustomer)

		s.addPots(token, 1)
		orderID := s.checkout(token).Order.ID

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPut, "/api/admin/orders/"+orderID+"/status",
			reqdto.AdvanceOrderRequest{Status: "processing"}, token)

		assert.Equal(s.T(), http.StatusForbidden, w.Code)
	})
}

func (s *CheckoutE2ESuite) TestCartCache() {
	s.Run("success: cart view is cached and dropped on write", func() {
		customerID := uuid.New()
		token := s.jwt.GenerateToken(s.T(), customerID, user.RoleCustomer)
		key := "cart:" + customerID.String()
		ctx := context.Background()

		s.addPots(token, 1)
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/cart", nil, token)
		require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
		n, err := s.Redis.Exists(ctx, key).Result()
		require.NoError(s.T(), err)
		assert.Equal(s.T(), int64(1), n)

		s.addPots(token, 2)
		n, err = s.Redis.Exists(ctx, key).Result()
		require.NoError(s.T(), err)
		assert.Equal(s.T(), int64(0), n)

		w = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/cart", nil, token)
		require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
		var cart resdto.CartResponse
		_ = httptest.DecodeResponseBody(s.T(), w.Body, &cart)
		require.Len(s.T(), cart.Lines, 1)
		assert.Equal(s.T(), 3, cart.Lines[0].Quantity)
	})

	s.Run("success: checkout clears the cached cart", func() {
		customerID := uuid.New()
		token := s.jwt.GenerateToken(s.T(), customerID, user.RoleCustomer)

		s.addPots(token, 1)
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/cart", nil, token)
		require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

		s.checkout(token)

		w = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/cart", nil, token)
		require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
		var cart resdto.CartResponse
		_ = httptest.DecodeResponseBody(s.T(), w.Body, &cart)
		assert.Empty(s.T(), cart.Lines)
	})
}

func (s *CheckoutE2ESuite) createReward(adminToken string, cost int64) string {
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/admin/rewards",
		reqdto.CreateRewardRequest{Name: "Gift wrap", PointsCost: cost, Effect: "gift_wrap"}, adminToken)
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	var reward resdto.RewardResponse
	_ = httptest.DecodeResponseBody(s.T(), w.Body, &reward)
	return reward.ID
}

func (s *CheckoutE2ESuite) loyaltyState(userID uuid.UUID) (total int64, credits, debits int) {
	ctx := context.Background()
	require.NoError(s.T(), s.DB.QueryRow(ctx,
		"SELECT total_points FROM loyalty_accounts WHERE user_id = $1", userID).Scan(&total))
	require.NoError(s.T(), s.DB.QueryRow(ctx,
		`SELECT count(*) FILTER (WHERE delta > 0), count(*) FILTER (WHERE delta < 0)
		 FROM loyalty_entries WHERE user_id = $1`, userID).Scan(&credits, &debits))
	return total, credits, debits
}

func (s *CheckoutE2ESuite) TestConcurrentLoyalty() {
	s.Run("success: parallel redemptions never overdraw the account", func() {
		customerID := uuid.New()
		token := s.jwt.GenerateToken(s.T(), customerID, user.RoleCustomer)
		adminToken := s.jwt.GenerateToken(s.T(), uuid.New(), user.RoleAdmin)
		dbtest.CreateLoyaltyAccount(s.T(), s.DB, customerID, 150)
		rewardID := s.createReward(adminToken, 100)

		const attempts = 8
		codes := make([]int, attempts)
		var wg sync.WaitGroup
		for i := range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost,
					"/api/loyalty/rewards/"+rewardID+"/redeem", nil, token)
				codes[i] = w.Code
			}()
		}
		wg.Wait()

		okCount := 0
		for _, code := range codes {
			if code == http.StatusOK {
				okCount++
			} else {
				assert.Equal(s.T(), http.StatusConflict, code)
			}
		}
		assert.Equal(s.T(), 1, okCount)

		total, _, debits := s.loyaltyState(customerID)
		assert.Equal(s.T(), int64(50), total)
		assert.Equal(s.T(), 1, debits)
	})

	s.Run("success: award racing a redemption keeps both entries", func() {
		customerID := uuid.New()
		token := s.jwt.GenerateToken(s.T(), customerID, user.RoleCustomer)
		adminToken := s.jwt.GenerateToken(s.T(), uuid.New(), user.RoleAdmin)
		dbtest.CreateLoyaltyAccount(s.T(), s.DB, customerID, 150)
		rewardID := s.createReward(adminToken, 100)

		s.addPots(token, 2)
		orderID := s.checkout(token).Order.ID
		for _, status := range []string{"processing", "shipped"} {
			w := httptest.PerformRequest(s.T(), s.Router, http.MethodPut, "/api/admin/orders/"+orderID+"/status",
				reqdto.AdvanceOrderRequest{Status: status}, adminToken)
			require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
		}

		var deliverCode, redeemCode int
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			w := httptest.PerformRequest(s.T(), s.Router, http.MethodPut, "/api/admin/orders/"+orderID+"/status",
				reqdto.AdvanceOrderRequest{Status: "delivered"}, adminToken)
			deliverCode = w.Code
		}()
		go func() {
			defer wg.Done()
			w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost,
				"/api/loyalty/rewards/"+rewardID+"/redeem", nil, token)
			redeemCode = w.Code
		}()
		wg.Wait()

		assert.Equal(s.T(), http.StatusOK, deliverCode)
		assert.Equal(s.T(), http.StatusOK, redeemCode)

		// bronze award for 134000 pre-tax spend: 134 points
		total, credits, debits := s.loyaltyState(customerID)
		assert.Equal(s.T(), int64(150+134-100), total)
		assert.Equal(s.T(), 1, credits)
		assert.Equal(s.T(), 1, debits)
	})
}
