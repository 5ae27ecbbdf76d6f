package handlers

import (
	"net/http"

	"booking-system/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

type TicketHandler struct {
	auth    *services.AuthService
	tickets *services.TicketService
}

func NewTicketHandler(auth *services.AuthService, tickets *services.TicketService) *TicketHandler {
	return &TicketHandler{
		auth:    auth,
		tickets: tickets,
	}
}

type createTicketRequest struct {
	OfferID       string `json:"offer_id"`
	ReservationID string `json:"reservation_id"`
}

type ticketView struct {
	ID            string  `json:"id"`
	OfferID       string  `json:"offer_id"`
	OfferName     string  `json:"offer_name,omitempty"`
	ReservationID string  `json:"reservation_id,omitempty"`
	IsPaid        bool    `json:"is_paid"`
	PaymentStatus string  `json:"payment_status"`
	QRPayload     string  `json:"qr_payload,omitempty"`
	Amount        float64 `json:"amount"`
	IsUsed        bool    `json:"is_used"`
}

// Create issues a ticket. The offer may come from the query string or the
// body; the query form matches the older client generation.
func (h *TicketHandler) Create(e *core.RequestEvent) error {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return errorResponse(err)
	}

	var req createTicketRequest
	if err := e.BindBody(&req); err != nil {
		return errorResponse(err)
	}
	if q := e.Request.URL.Query().Get("offer_id"); q != "" {
		req.OfferID = q
	}

	ticket, err := h.tickets.Issue(user, req.OfferID, req.ReservationID)
	if err != nil {
		return errorResponse(err)
	}

	return e.JSON(http.StatusOK, h.view(ticket))
}

func (h *TicketHandler) My(e *core.RequestEvent) error {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return errorResponse(err)
	}

	records, err := h.tickets.ListByUser(user)
	if err != nil {
		return errorResponse(err)
	}

	out := make([]ticketView, 0, len(records))
	for _, r := range records {
		out = append(out, h.view(r))
	}
	return e.JSON(http.StatusOK, out)
}

func (h *TicketHandler) Delete(e *core.RequestEvent) error {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return errorResponse(err)
	}

	if err := h.tickets.Delete(e.Request.PathValue("id"), user); err != nil {
		return errorResponse(err)
	}
	return e.JSON(http.StatusOK, map[string]string{"message": "ticket deleted"})
}

func (h *TicketHandler) view(r *core.Record) ticketView {
	public := services.TicketFromRecord(r).PublicView()
	return ticketView{
		ID:            public.ID,
		OfferID:       public.OfferID,
		OfferName:     h.tickets.OfferName(public.OfferID),
		ReservationID: public.ReservationID,
		IsPaid:        public.IsPaid,
		PaymentStatus: public.PaymentStatus,
		QRPayload:     public.QRPayload,
		Amount:        public.Amount,
		IsUsed:        public.IsUsed,
	}
}
