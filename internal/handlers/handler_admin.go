package handlers

import (
	"net/http"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	portssvc "github.com/SscSPs/booking_settlement/internal/core/ports/services"
	"github.com/SscSPs/booking_settlement/internal/dto"
	"github.com/SscSPs/booking_settlement/internal/middleware"
	"github.com/gin-gonic/gin"
)

// registerAdminRoutes registers admin-only maintenance routes.
func registerAdminRoutes(rg *gin.RouterGroup, settlement portssvc.SettlementSvc) {
	admin := rg.Group("/admin", middleware.RequireRoles(domain.RoleAdmin))
	{
		admin.PUT("/listings/:listingID/deposit-policy", upsertDepositPolicy(settlement))
	}
}

// upsertDepositPolicy godoc
// @Summary Set a listing's deposit policy
// @Description Seeds the listing projection used when placing deposit holds.
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   listingID path string true "Listing ID"
// @Param   policy body dto.UpsertDepositPolicyRequest true "Deposit policy"
// @Success 200 {object} dto.DepositPolicyResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 403 {object} dto.ErrorResponse "Admin only"
// @Security BearerAuth
// @Router /admin/listings/{listingID}/deposit-policy [put]
func upsertDepositPolicy(settlement portssvc.SettlementSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.UpsertDepositPolicyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		caller, ok := callerOrAbort(c)
		if !ok {
			return
		}
		policy, err := settlement.UpsertDepositPolicy(c.Request.Context(), c.Param("listingID"), req, caller)
		if err != nil {
			respondError(c, err, "save deposit policy")
			return
		}
		c.JSON(http.StatusOK, dto.ToDepositPolicyResponse(policy))
	}
}
