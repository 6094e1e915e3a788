package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/booking_settlement/internal/core/ports/services"
	"github.com/SscSPs/booking_settlement/internal/dto"
	"github.com/gin-gonic/gin"
)

// walletHandler handles HTTP requests related to host wallets.
type walletHandler struct {
	settlement portssvc.SettlementSvc
}

func newWalletHandler(settlement portssvc.SettlementSvc) *walletHandler {
	return &walletHandler{settlement: settlement}
}

// registerWalletRoutes registers routes related to host wallets.
func registerWalletRoutes(rg *gin.RouterGroup, settlement portssvc.SettlementSvc) {
	h := newWalletHandler(settlement)

	wallets := rg.Group("/wallets/:hostID")
	{
		wallets.GET("/balance", h.getBalance)
		wallets.GET("/entries", h.listEntries)
	}
}

// getBalance godoc
// @Summary Get a host's verified wallet balance
// @Description The cached balance is checked against the ledger sum. A mismatch freezes the wallet and returns DataIntegrityError.
// @Tags wallets
// @Produce  json
// @Param   hostID path string true "Host ID"
// @Param   currency query string true "Currency code"
// @Success 200 {object} dto.WalletBalanceResponse
// @Failure 403 {object} dto.ErrorResponse "Not authorized"
// @Failure 409 {object} dto.ErrorResponse "Wallet integrity failure"
// @Security BearerAuth
// @Router /wallets/{hostID}/balance [get]
func (h *walletHandler) getBalance(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	balance, err := h.settlement.GetWalletBalance(c.Request.Context(), c.Param("hostID"), c.Query("currency"), caller)
	if err != nil {
		respondError(c, err, "retrieve wallet balance")
		return
	}
	c.JSON(http.StatusOK, dto.ToWalletBalanceResponse(balance))
}

// listEntries godoc
// @Summary List a host's wallet ledger entries
// @Description Newest first, with token-based pagination.
// @Tags wallets
// @Produce  json
// @Param   hostID path string true "Host ID"
// @Param   limit query int false "Page size (max 100)"
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListWalletEntriesResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid pagination"
// @Failure 403 {object} dto.ErrorResponse "Not authorized"
// @Security BearerAuth
// @Router /wallets/{hostID}/entries [get]
func (h *walletHandler) listEntries(c *gin.Context) {
	var params dto.ListWalletEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	resp, err := h.settlement.ListWalletEntries(c.Request.Context(), c.Param("hostID"), params, caller)
	if err != nil {
		respondError(c, err, "list wallet entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}
