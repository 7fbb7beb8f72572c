package api

import (
	"net/http"

	reqdto "handicraft-store/internal/handler/dto/request"
	resdto "handicraft-store/internal/handler/dto/response"
	"handicraft-store/internal/handler/httperr"
	"handicraft-store/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	cmds commands.CatalogAdminCommands
}

func NewAdminHandler(cmds commands.CatalogAdminCommands) *AdminHandler {
	return &AdminHandler{cmds: cmds}
}

// @Summary Create coupon
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateCouponRequest true "Coupon"
// @Success 201 {object} resdto.CouponResponse
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/admin/coupons [post]
func (h *AdminHandler) CreateCoupon(c *gin.Context) {
	var req reqdto.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	view, err := h.cmds.CreateCoupon(c.Request.Context(), req.ToCommand())
	if err != nil {
		httperr.Handle(c, err, "Create coupon failed")
		return
	}
	c.JSON(http.StatusCreated, resdto.FromCouponView(view))
}

// @Summary Create reward
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateRewardRequest true "Reward"
// @Success 201 {object} resdto.RewardResponse
// @Failure 400 {object} httperr.Response
// @Router /api/admin/rewards [post]
func (h *AdminHandler) CreateReward(c *gin.Context) {
	var req reqdto.CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	view, err := h.cmds.CreateReward(c.Request.Context(), req.ToCommand())
	if err != nil {
		httperr.Handle(c, err, "Create reward failed")
		return
	}
	c.JSON(http.StatusCreated, resdto.FromRewardView(view))
}
