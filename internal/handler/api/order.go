package api

import (
	"net/http"

	reqdto "handicraft-store/internal/handler/dto/request"
	resdto "handicraft-store/internal/handler/dto/response"
	"handicraft-store/internal/handler/httperr"
	"handicraft-store/internal/usecase/commands"
	"handicraft-store/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	checkout commands.CheckoutCommands
	cmds     commands.OrderCommands
	q        queries.OrderQueries
}

func NewOrderHandler(checkout commands.CheckoutCommands, cmds commands.OrderCommands, q queries.OrderQueries) *OrderHandler {
	return &OrderHandler{checkout: checkout, cmds: cmds, q: q}
}

// @Summary Checkout
// @Description Price the cart, snapshot it into a pending order and clear the cart. An inapplicable coupon does not fail checkout; its reason is returned as coupon_rejection.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Retries with the same key return the first order"
// @Param request body reqdto.CheckoutRequest true "Checkout request"
// @Success 201 {object} resdto.CheckoutResponse
// @Failure 409 {object} httperr.Response
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /api/checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	key, ok := optionalIdempotencyKey(c)
	if !ok {
		return
	}
	var req reqdto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	cmd := req.ToCommand()
	cmd.IdempotencyKey = key
	result, err := h.checkout.Checkout(c.Request.Context(), userID, cmd)
	if err != nil {
		httperr.Handle(c, err, "Checkout failed")
		return
	}
	c.JSON(http.StatusCreated, resdto.FromCheckoutResult(result))
}

// @Summary List own orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.OrderResponse
// @Router /api/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.q.ListByUser(c.Request.Context(), userID)
	if err != nil {
		httperr.Handle(c, err, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, resdto.FromOrderList(items))
}

// @Summary Get order
// @Description Get an order by ID. Customers only see their own orders.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} resdto.OrderResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	actorID, role, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), actorID, role, id)
	if err != nil {
		httperr.Handle(c, err, "Order not found")
		return
	}
	c.JSON(http.StatusOK, resdto.FromOrderView(view))
}

// @Summary Cancel order
// @Description Cancel a pending order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} resdto.OrderResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	actorID, role, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.cmds.Cancel(c.Request.Context(), actorID, role, id)
	if err != nil {
		httperr.Handle(c, err, "Cancel failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromOrderView(view))
}

// @Summary Advance order status
// @Description Move an order one step along pending, processing, shipped, delivered. Delivery awards loyalty points once.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body reqdto.AdvanceOrderRequest true "Target status"
// @Success 200 {object} resdto.OrderResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /api/admin/orders/{id}/status [put]
func (h *OrderHandler) Advance(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req reqdto.AdvanceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	view, err := h.cmds.Advance(c.Request.Context(), id, req.Status)
	if err != nil {
		httperr.Handle(c, err, "Status change failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromOrderView(view))
}

// @Summary Order statistics
// @Description Totals across all orders, cancelled included
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.OrderStatsResponse
// @Router /api/admin/orders/stats [get]
func (h *OrderHandler) Stats(c *gin.Context) {
	view, err := h.q.Stats(c.Request.Context())
	if err != nil {
		httperr.Handle(c, err, "Failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, resdto.FromOrderStats(view))
}
