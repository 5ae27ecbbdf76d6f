package handlers

import (
	"net/http"

	"booking-system/internal/services"
	"booking-system/internal/status"
	"booking-system/models"

	"github.com/pocketbase/pocketbase/core"
	qrcode "github.com/skip2/go-qrcode"
)

type ReservationHandler struct {
	auth         *services.AuthService
	reservations *services.ReservationService
	tickets      *services.TicketService
}

func NewReservationHandler(auth *services.AuthService, reservations *services.ReservationService, tickets *services.TicketService) *ReservationHandler {
	return &ReservationHandler{
		auth:         auth,
		reservations: reservations,
		tickets:      tickets,
	}
}

type createReservationRequest struct {
	Offer    string `json:"offer"`
	Date     string `json:"date"`
	Quantity int    `json:"quantity"`
}

func (h *ReservationHandler) Create(e *core.RequestEvent) error {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return errorResponse(err)
	}

	var req createReservationRequest
	if err := e.BindBody(&req); err != nil {
		return errorResponse(err)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	reservation, err := h.reservations.Create(user, req.Offer, req.Date, req.Quantity)
	if err != nil {
		return errorResponse(err)
	}

	return e.JSON(http.StatusOK, services.ReservationFromRecord(reservation))
}

func (h *ReservationHandler) List(e *core.RequestEvent) error {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return errorResponse(err)
	}

	records, err := h.reservations.List(user)
	if err != nil {
		return errorResponse(err)
	}

	out := make([]models.Reservation, 0, len(records))
	for _, r := range records {
		out = append(out, services.ReservationFromRecord(r))
	}
	return e.JSON(http.StatusOK, out)
}

func (h *ReservationHandler) Get(e *core.RequestEvent) error {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return errorResponse(err)
	}

	reservation, err := h.reservations.GetOwned(e.Request.PathValue("id"), user, false)
	if err != nil {
		return errorResponse(err)
	}
	return e.JSON(http.StatusOK, services.ReservationFromRecord(reservation))
}

func (h *ReservationHandler) Update(e *core.RequestEvent) error {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return errorResponse(err)
	}

	var patch models.ReservationPatch
	if err := e.BindBody(&patch); err != nil {
		return errorResponse(err)
	}

	reservation, err := h.reservations.Update(e.Request.PathValue("id"), user, false, patch)
	if err != nil {
		return errorResponse(err)
	}
	return e.JSON(http.StatusOK, services.ReservationFromRecord(reservation))
}

func (h *ReservationHandler) Delete(e *core.RequestEvent) error {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return errorResponse(err)
	}

	if err := h.reservations.Delete(e.Request.PathValue("id"), user, false); err != nil {
		return errorResponse(err)
	}
	return e.JSON(http.StatusOK, map[string]string{"message": "reservation deleted"})
}

func (h *ReservationHandler) Stats(e *core.RequestEvent) error {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return errorResponse(err)
	}

	stats, err := h.reservations.Stats(user)
	if err != nil {
		return errorResponse(err)
	}
	return e.JSON(http.StatusOK, stats)
}

// QRCode renders the proof of purchase for a paid reservation as a PNG.
// Unpaid reservations have no proof and come back not found.
func (h *ReservationHandler) QRCode(e *core.RequestEvent) error {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return errorResponse(err)
	}

	reservation, err := h.reservations.GetOwned(e.Request.PathValue("id"), user, false)
	if err != nil {
		return errorResponse(err)
	}

	ticket, err := h.tickets.LatestForReservation(user, reservation.Id)
	if err != nil {
		return errorResponse(err)
	}
	if !ticket.GetBool("is_paid") || ticket.GetString("qr_payload") == "" {
		return errorResponse(status.ErrNotFound)
	}

	png, err := qrcode.Encode(ticket.GetString("qr_payload"), qrcode.Medium, 256)
	if err != nil {
		return errorResponse(err)
	}
	return e.Blob(http.StatusOK, "image/png", png)
}
