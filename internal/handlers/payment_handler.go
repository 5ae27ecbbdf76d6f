package handlers

import (
	"net/http"

	"booking-system/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

type PaymentHandler struct {
	auth     *services.AuthService
	payments *services.PaymentService
}

func NewPaymentHandler(auth *services.AuthService, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		auth:     auth,
		payments: payments,
	}
}

type simulatePaymentRequest struct {
	TicketID      string `json:"ticket_id"`
	ReservationID string `json:"reservation_id"`
}

// Simulate confirms a mock payment for a ticket, or for a reservation's
// ticket (issuing one if the reservation has none yet).
func (h *PaymentHandler) Simulate(e *core.RequestEvent) error {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return errorResponse(err)
	}

	var req simulatePaymentRequest
	if err := e.BindBody(&req); err != nil {
		return errorResponse(err)
	}

	receipt, err := h.payments.Confirm(e.Request.Context(), user, req.TicketID, req.ReservationID)
	if err != nil {
		return errorResponse(err)
	}
	return e.JSON(http.StatusOK, receipt)
}

func (h *PaymentHandler) GetReceipt(e *core.RequestEvent) error {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return errorResponse(err)
	}

	receipt, err := h.payments.GetReceipt(e.Request.Context(), user, e.Request.PathValue("ticketId"))
	if err != nil {
		return errorResponse(err)
	}
	return e.JSON(http.StatusOK, receipt)
}
