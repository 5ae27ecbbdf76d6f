package models

import (
	"time"
)

type PaymentReceipt struct {
	ReceiptID     string     `json:"receipt_id"`
	TicketID      string     `json:"ticket_id"`
	ReservationID string     `json:"reservation_id,omitempty"`
	UserID        string     `json:"user_id"`
	PaymentStatus string     `json:"payment_status"`
	Paid          bool       `json:"paid"`
	QRPayload     string     `json:"qr_payload,omitempty"`
	Amount        float64    `json:"amount"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
}
