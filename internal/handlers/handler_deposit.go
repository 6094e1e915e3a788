package handlers

import (
	"net/http"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	portssvc "github.com/SscSPs/booking_settlement/internal/core/ports/services"
	"github.com/SscSPs/booking_settlement/internal/dto"
	"github.com/SscSPs/booking_settlement/internal/middleware"
	"github.com/gin-gonic/gin"
)

// depositHandler handles HTTP requests related to security deposits.
type depositHandler struct {
	settlement portssvc.SettlementSvc
}

func newDepositHandler(settlement portssvc.SettlementSvc) *depositHandler {
	return &depositHandler{settlement: settlement}
}

// registerDepositRoutes registers routes related to security deposits.
func registerDepositRoutes(rg *gin.RouterGroup, settlement portssvc.SettlementSvc) {
	h := newDepositHandler(settlement)

	deposits := rg.Group("/deposits")
	{
		deposits.GET("/:depositID", h.getDeposit)
		deposits.POST("/:depositID/confirm", middleware.RequireRoles(domain.RoleAdmin, domain.RoleSystem), h.confirmDeposit)
		deposits.POST("/:depositID/capture", h.captureDeposit)
		deposits.POST("/:depositID/release", h.releaseDeposit)
		deposits.POST("/:depositID/discard", middleware.RequireRoles(domain.RoleAdmin), h.discardDeposit)
	}
}

// getDeposit godoc
// @Summary Get a security deposit
// @Tags deposits
// @Produce  json
// @Param   depositID path string true "Deposit ID"
// @Success 200 {object} dto.DepositResponse
// @Failure 404 {object} dto.ErrorResponse "Deposit not found"
// @Security BearerAuth
// @Router /deposits/{depositID} [get]
func (h *depositHandler) getDeposit(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	deposit, err := h.settlement.GetDeposit(c.Request.Context(), c.Param("depositID"), caller)
	if err != nil {
		respondError(c, err, "retrieve security deposit")
		return
	}
	c.JSON(http.StatusOK, dto.ToDepositResponse(deposit))
}

// confirmDeposit godoc
// @Summary Confirm a hold authorization out of band
// @Tags deposits
// @Accept  json
// @Produce  json
// @Param   depositID path string true "Deposit ID"
// @Param   confirmation body dto.ConfirmDepositRequest true "Processor hold reference"
// @Success 200 {object} dto.DepositResponse
// @Failure 409 {object} dto.ErrorResponse "Invalid transition"
// @Security BearerAuth
// @Router /deposits/{depositID}/confirm [post]
func (h *depositHandler) confirmDeposit(c *gin.Context) {
	var req dto.ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	deposit, err := h.settlement.ConfirmDepositAuthorization(c.Request.Context(), c.Param("depositID"), req.HoldReference, caller)
	if err != nil {
		respondError(c, err, "confirm security deposit")
		return
	}
	c.JSON(http.StatusOK, dto.ToDepositResponse(deposit))
}

// captureDeposit godoc
// @Summary Capture part or all of a security deposit
// @Description Host of the booking or admin only. The captured share minus the platform fee is credited to the host wallet.
// @Tags deposits
// @Accept  json
// @Produce  json
// @Param   depositID path string true "Deposit ID"
// @Param   capture body dto.CaptureDepositRequest true "Amount to capture"
// @Success 200 {object} dto.DepositResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid amount"
// @Failure 403 {object} dto.ErrorResponse "Not authorized"
// @Failure 409 {object} dto.ErrorResponse "Invalid transition or concurrent modification"
// @Failure 502 {object} dto.ErrorResponse "Processor capture failed"
// @Security BearerAuth
// @Router /deposits/{depositID}/capture [post]
func (h *depositHandler) captureDeposit(c *gin.Context) {
	var req dto.CaptureDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	deposit, err := h.settlement.CaptureDeposit(c.Request.Context(), c.Param("depositID"), req.AmountCents, caller)
	if err != nil {
		respondError(c, err, "capture security deposit")
		return
	}
	c.JSON(http.StatusOK, dto.ToDepositResponse(deposit))
}

// releaseDeposit godoc
// @Summary Release a security deposit hold
// @Tags deposits
// @Produce  json
// @Param   depositID path string true "Deposit ID"
// @Success 200 {object} dto.DepositResponse
// @Failure 403 {object} dto.ErrorResponse "Not authorized"
// @Failure 409 {object} dto.ErrorResponse "Invalid transition"
// @Failure 502 {object} dto.ErrorResponse "Processor release failed"
// @Security BearerAuth
// @Router /deposits/{depositID}/release [post]
func (h *depositHandler) releaseDeposit(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	deposit, err := h.settlement.ReleaseDeposit(c.Request.Context(), c.Param("depositID"), caller)
	if err != nil {
		respondError(c, err, "release security deposit")
		return
	}
	c.JSON(http.StatusOK, dto.ToDepositResponse(deposit))
}

// discardDeposit godoc
// @Summary Discard a FAILED deposit so a new hold can be placed
// @Tags deposits
// @Produce  json
// @Param   depositID path string true "Deposit ID"
// @Success 200 {object} dto.DepositResponse
// @Failure 409 {object} dto.ErrorResponse "Deposit is not FAILED"
// @Security BearerAuth
// @Router /deposits/{depositID}/discard [post]
func (h *depositHandler) discardDeposit(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	deposit, err := h.settlement.DiscardFailedDeposit(c.Request.Context(), c.Param("depositID"), caller)
	if err != nil {
		respondError(c, err, "discard security deposit")
		return
	}
	c.JSON(http.StatusOK, dto.ToDepositResponse(deposit))
}
