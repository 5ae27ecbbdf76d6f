package handlers

import (
	"net/http"

	"booking-system/internal/services"
	"booking-system/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

type AdminHandler struct {
	app          core.App
	auth         *services.AuthService
	reservations *services.ReservationService
	offers       *services.OfferService
}

func NewAdminHandler(app core.App, auth *services.AuthService, reservations *services.ReservationService, offers *services.OfferService) *AdminHandler {
	return &AdminHandler{
		app:          app,
		auth:         auth,
		reservations: reservations,
		offers:       offers,
	}
}

// requireAdmin resolves the caller and rejects non-admins before any admin
// operation runs.
func (h *AdminHandler) requireAdmin(e *core.RequestEvent) (*core.Record, error) {
	user, err := h.auth.UserFromRequest(e)
	if err != nil {
		return nil, err
	}
	if err := h.auth.RequireAdmin(user); err != nil {
		return nil, err
	}
	return user, nil
}

type adminStats struct {
	TotalUsers          int     `json:"total_users"`
	TotalReservations   int     `json:"total_reservations"`
	PendingReservations int     `json:"pending_reservations"`
	PaidTickets         int     `json:"paid_tickets"`
	Revenue             float64 `json:"revenue"`
}

func (h *AdminHandler) Stats(e *core.RequestEvent) error {
	if _, err := h.requireAdmin(e); err != nil {
		return errorResponse(err)
	}

	var stats adminStats
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM users", &stats.TotalUsers},
		{"SELECT COUNT(*) FROM reservations", &stats.TotalReservations},
		{"SELECT COUNT(*) FROM reservations WHERE status = 'pending_payment'", &stats.PendingReservations},
		{"SELECT COUNT(*) FROM tickets WHERE is_paid = TRUE", &stats.PaidTickets},
	}
	for _, c := range counts {
		if err := h.app.DB().NewQuery(c.query).Row(c.dest); err != nil {
			return errorResponse(err)
		}
	}

	// Revenue is summed in decimal space so float drift never reaches the
	// reported total.
	var amounts []float64
	if err := h.app.DB().
		NewQuery("SELECT amount FROM tickets WHERE is_paid = TRUE").
		Column(&amounts); err != nil {
		return errorResponse(err)
	}
	revenue := decimal.Zero
	for _, a := range amounts {
		revenue = revenue.Add(decimal.NewFromFloat(a))
	}
	stats.Revenue = revenue.InexactFloat64()

	return e.JSON(http.StatusOK, stats)
}

type adminReservationView struct {
	models.Reservation
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *AdminHandler) ListReservations(e *core.RequestEvent) error {
	if _, err := h.requireAdmin(e); err != nil {
		return errorResponse(err)
	}

	records, err := h.reservations.ListAll()
	if err != nil {
		return errorResponse(err)
	}

	out := make([]adminReservationView, 0, len(records))
	for _, r := range records {
		view := adminReservationView{Reservation: services.ReservationFromRecord(r)}
		if owner, err := h.app.FindRecordById("users", r.GetString("user_id")); err == nil {
			view.Username = owner.GetString("username")
			view.Email = owner.GetString("email")
		}
		out = append(out, view)
	}
	return e.JSON(http.StatusOK, out)
}

// UpdateReservation lets an administrator edit any reservation. Status
// changes go through the override path, which permits regressions the
// normal rule forbids.
func (h *AdminHandler) UpdateReservation(e *core.RequestEvent) error {
	admin, err := h.requireAdmin(e)
	if err != nil {
		return errorResponse(err)
	}

	var patch models.ReservationPatch
	if err := e.BindBody(&patch); err != nil {
		return errorResponse(err)
	}

	reservation, err := h.reservations.AdminUpdate(e.Request.PathValue("id"), admin, patch)
	if err != nil {
		return errorResponse(err)
	}
	return e.JSON(http.StatusOK, services.ReservationFromRecord(reservation))
}

func (h *AdminHandler) DeleteReservation(e *core.RequestEvent) error {
	admin, err := h.requireAdmin(e)
	if err != nil {
		return errorResponse(err)
	}

	if err := h.reservations.Delete(e.Request.PathValue("id"), admin, true); err != nil {
		return errorResponse(err)
	}
	return e.JSON(http.StatusOK, map[string]string{"message": "reservation deleted"})
}

type createOfferRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Capacity    int     `json:"capacity"`
}

func (h *AdminHandler) CreateOffer(e *core.RequestEvent) error {
	if _, err := h.requireAdmin(e); err != nil {
		return errorResponse(err)
	}

	var req createOfferRequest
	if err := e.BindBody(&req); err != nil {
		return errorResponse(err)
	}

	offer, err := h.offers.Create(req.Name, req.Description, decimal.NewFromFloat(req.Price), req.Capacity)
	if err != nil {
		return errorResponse(err)
	}
	return e.JSON(http.StatusCreated, services.OfferFromRecord(offer))
}

func (h *AdminHandler) UpdateOffer(e *core.RequestEvent) error {
	if _, err := h.requireAdmin(e); err != nil {
		return errorResponse(err)
	}

	var patch services.OfferPatch
	if err := e.BindBody(&patch); err != nil {
		return errorResponse(err)
	}

	offer, err := h.offers.Update(e.Request.PathValue("id"), patch)
	if err != nil {
		return errorResponse(err)
	}
	return e.JSON(http.StatusOK, services.OfferFromRecord(offer))
}
