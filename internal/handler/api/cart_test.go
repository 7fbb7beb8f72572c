//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"

	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/handler/api"
	resdto "handicraft-store/internal/handler/dto/response"
	"handicraft-store/internal/usecase/commands"
	"handicraft-store/internal/usecase/queries"
	"handicraft-store/tests/common/builder"
	"handicraft-store/tests/common/httptest"
	"handicraft-store/tests/common/testutil"
	commandsmock "handicraft-store/tests/mock/commands"
	queriesmock "handicraft-store/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type CartHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockCartCommands
	mockQueries  *queriesmock.MockCartQueries
	userID       uuid.UUID
	cartView     *queries.CartView
}

func (s *CartHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockCartCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockCartQueries(s.mockCtrl)
	handler := api.NewCartHandler(s.mockCommands, s.mockQueries)

	s.userID = uuid.New()
	s.cartView = builder.NewOrderBuilder().With(func(b *builder.OrderBuilder) { b.UserID = s.userID }).BuildCartView()

	g := s.router.Group("/api/cart", fakeAuth(s.userID))
	g.GET("", handler.Get)
	g.DELETE("", handler.Clear)
	g.POST("/lines", handler.AddLine)
	g.PUT("/lines/:productId", handler.SetQuantity)
	g.DELETE("/lines/:productId", handler.RemoveLine)
	g.PUT("/coupon", handler.ApplyCoupon)
	g.DELETE("/coupon", handler.RemoveCoupon)
	g.PUT("/discount", handler.SetDiscount)
	g.GET("/quote", handler.Quote)
}

func (s *CartHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestCartHandlerSuite(t *testing.T) {
	suite.Run(t, new(CartHandlerTestSuite))
}

type testCaseCart struct {
	name       string
	mutate     func(m map[string]any)
	expectCode int
}

func (s *CartHandlerTestSuite) TestGet() {
	s.Run("success: money is rendered with two decimals", func() {
		s.mockQueries.EXPECT().GetCart(gomock.Any(), s.userID).Return(s.cartView, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/cart", nil, "token")

		var body resdto.CartResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(s.userID.String(), body.UserID)
		s.Equal("100000.00", body.Subtotal)
		s.Equal(2, body.ItemCount)
		s.Require().Len(body.Lines, 1)
		s.Equal("50000.00", body.Lines[0].UnitPrice)
		s.Equal("100000.00", body.Lines[0].LineTotal)
	})

	s.Run("error: 401 without token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/cart", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: unexpected failure is a 500 without detail", func() {
		s.mockQueries.EXPECT().GetCart(gomock.Any(), s.userID).Return(nil, errors.New("connection reset"))

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/cart", nil, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Internal server error")
		s.NotContains(rec.Body.String(), "connection reset")
	})
}

func (s *CartHandlerTestSuite) TestAddLine() {
	url := "/api/cart/lines"
	productID := uuid.New()
	reqBody := map[string]any{"product_id": productID.String(), "variant_id": "large", "quantity": 2}

	s.Run("success: forwards the line to the cart", func() {
		s.mockCommands.EXPECT().
			AddLine(gomock.Any(), s.userID, commands.AddLineRequest{ProductID: productID, VariantID: "large", Quantity: 2}).
			Return(s.cartView, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resdto.CartResponse{})
	})

	s.Run("success: variant is optional", func() {
		s.mockCommands.EXPECT().
			AddLine(gomock.Any(), s.userID, commands.AddLineRequest{ProductID: productID, Quantity: 1}).
			Return(s.cartView, nil)

		body := testutil.DtoMap(s.T(), reqBody, testutil.Field("variant_id", nil), testutil.Field("quantity", 1))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 400 on invalid body", func() {
		cases := []testCaseCart{
			{name: "missing product_id", mutate: testutil.Field("product_id", nil), expectCode: http.StatusBadRequest},
			{name: "malformed product_id", mutate: testutil.Field("product_id", "abc"), expectCode: http.StatusBadRequest},
			{name: "missing quantity", mutate: testutil.Field("quantity", nil), expectCode: http.StatusBadRequest},
			{name: "quantity as string", mutate: testutil.Field("quantity", "two"), expectCode: http.StatusBadRequest},
			{name: "quantity above line maximum", mutate: testutil.Field("quantity", cart.MaxQuantity+1), expectCode: http.StatusBadRequest},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				body := testutil.DtoMap(s.T(), reqBody, tc.mutate)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "token")
				s.Equal(tc.expectCode, rec.Code, rec.Body.String())
			})
		}
	})

	s.Run("error: domain errors map to their status", func() {
		cases := []struct {
			name       string
			err        error
			expectCode int
			expectKind string
		}{
			{name: "unknown product", err: commands.ErrProductNotFound, expectCode: http.StatusNotFound, expectKind: "NOT_FOUND"},
			{name: "negative quantity", err: cart.ErrInvalidQuantity, expectCode: http.StatusBadRequest, expectKind: "VALIDATION"},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().AddLine(gomock.Any(), s.userID, gomock.Any()).Return(nil, tc.err)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "token")
				httptest.AssertErrorKind(s.T(), rec, tc.expectCode, tc.expectKind, tc.err.Error())
			})
		}
	})
}

func (s *CartHandlerTestSuite) TestSetQuantity() {
	productID := uuid.New()
	url := "/api/cart/lines/" + productID.String()

	s.Run("success: quantity below 1 is passed through for clamping", func() {
		s.mockCommands.EXPECT().
			SetQuantity(gomock.Any(), s.userID, commands.SetQuantityRequest{ProductID: productID, Quantity: -3}).
			Return(s.cartView, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, url, map[string]any{"quantity": -3}, "token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 404 when the line is absent", func() {
		s.mockCommands.EXPECT().SetQuantity(gomock.Any(), s.userID, gomock.Any()).Return(nil, cart.ErrLineNotFound)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, url, map[string]any{"quantity": 2}, "token")
		httptest.AssertErrorKind(s.T(), rec, http.StatusNotFound, "NOT_FOUND", "cart line not found")
	})

	s.Run("error: 400 when quantity exceeds the line maximum", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, url, map[string]any{"quantity": cart.MaxQuantity + 1}, "token")
		s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	s.Run("error: 400 on malformed product id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, "/api/cart/lines/nope", map[string]any{"quantity": 2}, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid productId")
	})
}

func (s *CartHandlerTestSuite) TestRemoveLine() {
	productID := uuid.New()

	s.Run("success: variant comes from the query string", func() {
		s.mockCommands.EXPECT().RemoveLine(gomock.Any(), s.userID, productID, "small").Return(s.cartView, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/api/cart/lines/"+productID.String()+"?variant_id=small", nil, "token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})
}

func (s *CartHandlerTestSuite) TestClear() {
	s.mockCommands.EXPECT().Clear(gomock.Any(), s.userID).Return(nil)

	rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/api/cart", nil, "token")
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *CartHandlerTestSuite) TestApplyCoupon() {
	url := "/api/cart/coupon"

	s.Run("success", func() {
		s.mockCommands.EXPECT().ApplyCoupon(gomock.Any(), s.userID, "save10").Return(s.cartView, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, url, map[string]any{"code": "save10"}, "token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 404 for an unknown code", func() {
		s.mockCommands.EXPECT().ApplyCoupon(gomock.Any(), s.userID, "NOPE").Return(nil, coupon.ErrCouponNotFound)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, url, map[string]any{"code": "NOPE"}, "token")
		httptest.AssertErrorKind(s.T(), rec, http.StatusNotFound, "NOT_FOUND", "")
	})

	s.Run("error: 400 when code is missing", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, url, map[string]any{}, "token")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("remove coupon", func() {
		s.mockCommands.EXPECT().RemoveCoupon(gomock.Any(), s.userID).Return(s.cartView, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})
}

func (s *CartHandlerTestSuite) TestSetDiscount() {
	url := "/api/cart/discount"

	s.Run("success: accepts numbers and numeric strings", func() {
		for _, pct := range []any{12.5, "12.5"} {
			s.mockCommands.EXPECT().
				SetDiscount(gomock.Any(), s.userID, gomock.Cond(func(x any) bool {
					return x.(decimal.Decimal).Equal(decimal.RequireFromString("12.5"))
				})).
				Return(s.cartView, nil)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, url, map[string]any{"percent": pct}, "token")
			httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
		}
	})

	s.Run("error: 400 when out of range", func() {
		s.mockCommands.EXPECT().SetDiscount(gomock.Any(), s.userID, gomock.Any()).Return(nil, cart.ErrInvalidDiscountPercent)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, url, map[string]any{"percent": 150}, "token")
		httptest.AssertErrorKind(s.T(), rec, http.StatusBadRequest, "VALIDATION", cart.ErrInvalidDiscountPercent.Reason())
	})
}

func (s *CartHandlerTestSuite) TestQuote() {
	s.Run("success: includes the coupon rejection", func() {
		code := "SAVE10"
		view := &queries.QuoteView{
			Pricing: queries.PricingView{
				Subtotal:              decimal.NewFromInt(40000),
				SubtotalAfterDiscount: decimal.NewFromInt(40000),
				Shipping:              decimal.NewFromInt(15000),
				Tax:                   decimal.NewFromInt(7600),
				Total:                 decimal.NewFromInt(62600),
			},
			TaxRate:         decimal.RequireFromString("0.075"),
			CouponCode:      &code,
			CouponRejection: &queries.RejectionView{Kind: "CONFLICT", Reason: coupon.ReasonBelowMinimum},
		}
		s.mockQueries.EXPECT().Quote(gomock.Any(), s.userID).Return(view, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/cart/quote", nil, "token")

		var body resdto.QuoteResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("62600.00", body.Pricing.Total)
		s.Equal("0.00", body.Pricing.CouponDiscount)
		s.Equal("0.075", body.TaxRate)
		s.Require().NotNil(body.CouponRejection)
		s.Equal(coupon.ReasonBelowMinimum, body.CouponRejection.Reason)
	})
}
