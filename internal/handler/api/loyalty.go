package api

import (
	"net/http"

	resdto "handicraft-store/internal/handler/dto/response"
	"handicraft-store/internal/handler/httperr"
	"handicraft-store/internal/usecase/commands"
	"handicraft-store/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type LoyaltyHandler struct {
	cmds commands.LoyaltyCommands
	q    queries.LoyaltyQueries
}

func NewLoyaltyHandler(cmds commands.LoyaltyCommands, q queries.LoyaltyQueries) *LoyaltyHandler {
	return &LoyaltyHandler{cmds: cmds, q: q}
}

// @Summary Loyalty account
// @Description Points balance and current tier. Users without history get a bronze account with zero points.
// @Tags loyalty
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.AccountResponse
// @Router /api/loyalty [get]
func (h *LoyaltyHandler) Account(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	view, err := h.q.Account(c.Request.Context(), userID)
	if err != nil {
		httperr.Handle(c, err, "Failed to load account")
		return
	}
	c.JSON(http.StatusOK, resdto.FromAccountView(view))
}

// @Summary Points history
// @Description Point entries, oldest first
// @Tags loyalty
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.PointEntryResponse
// @Router /api/loyalty/history [get]
func (h *LoyaltyHandler) History(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.q.History(c.Request.Context(), userID)
	if err != nil {
		httperr.Handle(c, err, "Failed to load history")
		return
	}
	c.JSON(http.StatusOK, resdto.FromPointEntries(items))
}

// @Summary List rewards
// @Tags loyalty
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.RewardResponse
// @Router /api/loyalty/rewards [get]
func (h *LoyaltyHandler) Rewards(c *gin.Context) {
	items, err := h.q.Rewards(c.Request.Context())
	if err != nil {
		httperr.Handle(c, err, "Failed to list rewards")
		return
	}
	c.JSON(http.StatusOK, resdto.FromRewardList(items))
}

// @Summary Redeem reward
// @Description Spend points on a reward. Fails with 409 when the balance is insufficient.
// @Tags loyalty
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reward ID"
// @Success 200 {object} resdto.RedeemResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/loyalty/rewards/{id}/redeem [post]
func (h *LoyaltyHandler) Redeem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	rewardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.cmds.Redeem(c.Request.Context(), userID, rewardID)
	if err != nil {
		httperr.Handle(c, err, "Redeem failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromRedeemResult(result))
}
