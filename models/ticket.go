package models

import (
	"fmt"
	"time"
)

// Ticket payment statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

type Ticket struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	OfferID       string     `json:"offer_id"`
	ReservationID string     `json:"reservation_id,omitempty"`
	FinalKey      string     `json:"final_key,omitempty"`
	QRPayload     string     `json:"qr_payload,omitempty"`
	IsPaid        bool       `json:"is_paid"`
	PaymentStatus string     `json:"payment_status"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	Amount        float64    `json:"amount"`
	IsUsed        bool       `json:"is_used"`
}

// ProofPayload derives the scannable proof string for a paid ticket.
// It is a pure function of the ticket id and its final key.
func ProofPayload(ticketID, finalKey string) string {
	return fmt.Sprintf("TKT-%s-%s", ticketID, finalKey)
}

// PublicView returns a copy safe to serve to the owner. The proof material
// (final key and qr payload) must never be observable before payment clears.
func (t Ticket) PublicView() Ticket {
	if !t.IsPaid {
		t.FinalKey = ""
		t.QRPayload = ""
	}
	return t
}
