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

type CartHandler struct {
	cmds commands.CartCommands
	q    queries.CartQueries
}

func NewCartHandler(cmds commands.CartCommands, q queries.CartQueries) *CartHandler {
	return &CartHandler{cmds: cmds, q: q}
}

// @Summary Get cart
// @Description Get the caller's cart with recomputed line totals and subtotal
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.CartResponse
// @Failure 401 {object} httperr.Response
// @Router /api/cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	view, err := h.q.GetCart(c.Request.Context(), userID)
	if err != nil {
		httperr.Handle(c, err, "Failed to load cart")
		return
	}
	c.JSON(http.StatusOK, resdto.FromCartView(view))
}

// @Summary Add cart line
// @Description Add a product (optionally a variant) to the cart; prices come from the catalog. Adding an existing line increases its quantity.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.AddLineRequest true "Line to add"
// @Success 200 {object} resdto.CartResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/cart/lines [post]
func (h *CartHandler) AddLine(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req reqdto.AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	view, err := h.cmds.AddLine(c.Request.Context(), userID, req.ToCommand())
	if err != nil {
		httperr.Handle(c, err, "Add to cart failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromCartView(view))
}

// @Summary Set line quantity
// @Description Set the quantity of an existing line; values below 1 are clamped to 1
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param productId path string true "Product ID"
// @Param request body reqdto.SetQuantityRequest true "New quantity"
// @Success 200 {object} resdto.CartResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/cart/lines/{productId} [put]
func (h *CartHandler) SetQuantity(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	var req reqdto.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	view, err := h.cmds.SetQuantity(c.Request.Context(), userID, req.ToCommand(productID))
	if err != nil {
		httperr.Handle(c, err, "Update quantity failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromCartView(view))
}

// @Summary Remove cart line
// @Description Remove a line; removing an absent line is a no-op
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param productId path string true "Product ID"
// @Param variant_id query string false "Variant ID"
// @Success 200 {object} resdto.CartResponse
// @Failure 400 {object} httperr.Response
// @Router /api/cart/lines/{productId} [delete]
func (h *CartHandler) RemoveLine(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	view, err := h.cmds.RemoveLine(c.Request.Context(), userID, productID, c.Query("variant_id"))
	if err != nil {
		httperr.Handle(c, err, "Remove line failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromCartView(view))
}

// @Summary Clear cart
// @Description Remove every line together with the coupon and cart discount
// @Tags cart
// @Security BearerAuth
// @Success 204 "No Content"
// @Router /api/cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.cmds.Clear(c.Request.Context(), userID); err != nil {
		httperr.Handle(c, err, "Clear cart failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Apply coupon
// @Description Attach a coupon code to the cart. An inapplicable coupon is stored and reported by the quote.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.ApplyCouponRequest true "Coupon code"
// @Success 200 {object} resdto.CartResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/cart/coupon [put]
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req reqdto.ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	view, err := h.cmds.ApplyCoupon(c.Request.Context(), userID, req.Code)
	if err != nil {
		httperr.Handle(c, err, "Apply coupon failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromCartView(view))
}

// @Summary Remove coupon
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.CartResponse
// @Router /api/cart/coupon [delete]
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	view, err := h.cmds.RemoveCoupon(c.Request.Context(), userID)
	if err != nil {
		httperr.Handle(c, err, "Remove coupon failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromCartView(view))
}

// @Summary Set cart discount
// @Description Set the cart-level discount percent (0-100)
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.SetDiscountRequest true "Discount percent"
// @Success 200 {object} resdto.CartResponse
// @Failure 400 {object} httperr.Response
// @Router /api/cart/discount [put]
func (h *CartHandler) SetDiscount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req reqdto.SetDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	view, err := h.cmds.SetDiscount(c.Request.Context(), userID, req.Percent)
	if err != nil {
		httperr.Handle(c, err, "Set discount failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromCartView(view))
}

// @Summary Price quote
// @Description Run the pricing pipeline on the current cart without placing an order
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.QuoteResponse
// @Router /api/cart/quote [get]
func (h *CartHandler) Quote(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	view, err := h.q.Quote(c.Request.Context(), userID)
	if err != nil {
		httperr.Handle(c, err, "Quote failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromQuoteView(view))
}
