package models

// Reservation statuses. Transitions only move forward: a reservation can
// never return to pending_payment once decided, and cancelled is terminal.
const (
	ReservationPending   = "pending_payment"
	ReservationConfirmed = "confirmed"
	ReservationRejected  = "rejected"
	ReservationCancelled = "cancelled"
)

// statusRank orders statuses for the forward-only rule. confirmed and
// rejected share a rank: one decided reservation cannot become the other.
var statusRank = map[string]int{
	ReservationPending:   1,
	ReservationConfirmed: 2,
	ReservationRejected:  2,
	ReservationCancelled: 3,
}

func ValidReservationStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether a reservation may move from to the given
// status under the normal forward-only rule. Admin overrides bypass this.
func CanTransition(from, to string) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

type Reservation struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Offer    string `json:"offer"`
	Date     string `json:"date"`
	Quantity int    `json:"quantity"`
	Status   string `json:"status"`
}

// ReservationPatch is a partial update. Nil fields are left untouched;
// each set field is applied by name so the invariant checks (offer
// validity, status transition rules) stay explicit in the service.
type ReservationPatch struct {
	Date     *string `json:"date"`
	Offer    *string `json:"offer"`
	Quantity *int    `json:"quantity"`
	Status   *string `json:"status"`
}

func (p *ReservationPatch) IsEmpty() bool {
	return p.Date == nil && p.Offer == nil && p.Quantity == nil && p.Status == nil
}
