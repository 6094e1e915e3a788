package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	portssvc "github.com/SscSPs/booking_settlement/internal/core/ports/services"
	"github.com/SscSPs/booking_settlement/internal/dto"
	"github.com/SscSPs/booking_settlement/internal/middleware"
	"github.com/gin-gonic/gin"
)

// bookingHandler handles HTTP requests related to bookings and their payouts.
type bookingHandler struct {
	settlement portssvc.SettlementSvc
}

func newBookingHandler(settlement portssvc.SettlementSvc) *bookingHandler {
	return &bookingHandler{settlement: settlement}
}

// registerBookingRoutes registers routes related to bookings.
func registerBookingRoutes(rg *gin.RouterGroup, settlement portssvc.SettlementSvc) {
	h := newBookingHandler(settlement)

	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.createBooking)
		bookings.GET("/:bookingID", h.getBooking)
		bookings.PATCH("/:bookingID/status", middleware.RequireRoles(domain.RoleAdmin, domain.RoleSystem), h.updateBookingStatus)
		bookings.POST("/:bookingID/deposit", h.createDeposit)
		bookings.POST("/:bookingID/payout", h.triggerPayout)
	}
}

// createBooking godoc
// @Summary Create a booking and charge the guest
// @Description Creates a PENDING booking with its fee split and starts the processor charge. The booking is confirmed when the payment webhook arrives.
// @Tags bookings
// @Accept  json
// @Produce  json
// @Param   booking body dto.CreateBookingRequest true "Booking details"
// @Success 201 {object} dto.BookingResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Only guests can book"
// @Failure 502 {object} dto.ErrorResponse "Processor charge failed"
// @Security BearerAuth
// @Router /bookings [post]
func (h *bookingHandler) createBooking(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	booking, err := h.settlement.CreateBookingPayment(c.Request.Context(), req, caller)
	if err != nil {
		respondError(c, err, "create booking")
		return
	}

	logger.Info("Booking created", slog.String("booking_id", booking.BookingID), slog.String("status", string(booking.Status)))
	c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

// getBooking godoc
// @Summary Get a booking
// @Tags bookings
// @Produce  json
// @Param   bookingID path string true "Booking ID"
// @Success 200 {object} dto.BookingResponse
// @Failure 403 {object} dto.ErrorResponse "Not a party to the booking"
// @Failure 404 {object} dto.ErrorResponse "Booking not found"
// @Security BearerAuth
// @Router /bookings/{bookingID} [get]
func (h *bookingHandler) getBooking(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	booking, err := h.settlement.GetBooking(c.Request.Context(), c.Param("bookingID"), caller)
	if err != nil {
		respondError(c, err, "retrieve booking")
		return
	}
	c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

// updateBookingStatus godoc
// @Summary Cancel or complete a booking
// @Description Applies a status decided by external policy. Only CANCELLED and COMPLETED are accepted.
// @Tags bookings
// @Accept  json
// @Produce  json
// @Param   bookingID path string true "Booking ID"
// @Param   status body dto.UpdateBookingStatusRequest true "Target status"
// @Success 200 {object} dto.BookingResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Failure 409 {object} dto.ErrorResponse "Invalid transition or concurrent modification"
// @Security BearerAuth
// @Router /bookings/{bookingID}/status [patch]
func (h *bookingHandler) updateBookingStatus(c *gin.Context) {
	var req dto.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	booking, err := h.settlement.UpdateBookingStatus(c.Request.Context(), c.Param("bookingID"), domain.BookingStatus(req.Status), caller)
	if err != nil {
		respondError(c, err, "update booking status")
		return
	}
	c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

// createDeposit godoc
// @Summary Place the security deposit hold for a booking
// @Description Uses the listing's deposit policy amount. The hold is AUTHORIZED once the processor confirms it.
// @Tags deposits
// @Produce  json
// @Param   bookingID path string true "Booking ID"
// @Success 201 {object} dto.DepositResponse
// @Failure 409 {object} dto.ErrorResponse "Duplicate deposit or booking not payable"
// @Failure 422 {object} dto.ErrorResponse "Deposit policy disabled"
// @Failure 502 {object} dto.ErrorResponse "Processor hold failed"
// @Security BearerAuth
// @Router /bookings/{bookingID}/deposit [post]
func (h *bookingHandler) createDeposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	deposit, err := h.settlement.CreateDeposit(c.Request.Context(), c.Param("bookingID"), caller)
	if err != nil {
		respondError(c, err, "create security deposit")
		return
	}

	logger.Info("Security deposit hold created", slog.String("deposit_id", deposit.DepositID), slog.String("booking_id", deposit.BookingID))
	c.JSON(http.StatusCreated, dto.ToDepositResponse(deposit))
}

// triggerPayout godoc
// @Summary Pay out the host share of a booking
// @Description Transfers what the booking still owes the host, its payout plus any captured deposit share, and debits the wallet. Repeating the call once everything is paid returns the booking unchanged.
// @Tags payouts
// @Produce  json
// @Param   bookingID path string true "Booking ID"
// @Success 200 {object} dto.PayoutResponse
// @Failure 409 {object} dto.ErrorResponse "Booking not completed or dispute open"
// @Failure 422 {object} dto.ErrorResponse "Insufficient wallet balance"
// @Failure 502 {object} dto.ErrorResponse "Processor transfer failed"
// @Security BearerAuth
// @Router /bookings/{bookingID}/payout [post]
func (h *bookingHandler) triggerPayout(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	booking, err := h.settlement.TriggerPayout(c.Request.Context(), c.Param("bookingID"), caller)
	if err != nil {
		respondError(c, err, "trigger payout")
		return
	}

	logger.Info("Payout recorded", slog.String("booking_id", booking.BookingID), slog.String("transfer_ref", booking.PayoutTransferID))
	c.JSON(http.StatusOK, dto.ToPayoutResponse(booking))
}
