package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"pending to confirmed", ReservationPending, ReservationConfirmed, true},
		{"pending to rejected", ReservationPending, ReservationRejected, true},
		{"pending to cancelled", ReservationPending, ReservationCancelled, true},
		{"confirmed to cancelled", ReservationConfirmed, ReservationCancelled, true},
		{"rejected to cancelled", ReservationRejected, ReservationCancelled, true},
		{"confirmed back to pending", ReservationConfirmed, ReservationPending, false},
		{"rejected back to pending", ReservationRejected, ReservationPending, false},
		{"confirmed to rejected", ReservationConfirmed, ReservationRejected, false},
		{"rejected to confirmed", ReservationRejected, ReservationConfirmed, false},
		{"cancelled to confirmed", ReservationCancelled, ReservationConfirmed, false},
		{"cancelled to pending", ReservationCancelled, ReservationPending, false},
		{"same status pending", ReservationPending, ReservationPending, false},
		{"same status cancelled", ReservationCancelled, ReservationCancelled, false},
		{"unknown source", "draft", ReservationConfirmed, false},
		{"unknown target", ReservationPending, "archived", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidReservationStatus(t *testing.T) {
	for _, s := range []string{ReservationPending, ReservationConfirmed, ReservationRejected, ReservationCancelled} {
		assert.True(t, ValidReservationStatus(s), s)
	}
	assert.False(t, ValidReservationStatus(""))
	assert.False(t, ValidReservationStatus("Confirmed"))
}

func TestReservationPatchIsEmpty(t *testing.T) {
	empty := ReservationPatch{}
	assert.True(t, empty.IsEmpty())

	quantity := 2
	patch := ReservationPatch{Quantity: &quantity}
	assert.False(t, patch.IsEmpty())
}

func TestProofPayload(t *testing.T) {
	payload := ProofPayload("tkt123", "SECRET_AB12CD")
	assert.Equal(t, "TKT-tkt123-SECRET_AB12CD", payload)

	// Deterministic for the same inputs.
	assert.Equal(t, payload, ProofPayload("tkt123", "SECRET_AB12CD"))
}

func TestTicketPublicView(t *testing.T) {
	unpaid := Ticket{
		ID:        "t1",
		FinalKey:  "SECRET_AB12CD",
		QRPayload: "TKT-t1-SECRET_AB12CD",
		IsPaid:    false,
	}
	view := unpaid.PublicView()
	assert.Empty(t, view.FinalKey)
	assert.Empty(t, view.QRPayload)
	// Source value stays intact.
	assert.Equal(t, "SECRET_AB12CD", unpaid.FinalKey)

	paid := unpaid
	paid.IsPaid = true
	view = paid.PublicView()
	assert.Equal(t, "SECRET_AB12CD", view.FinalKey)
	assert.Equal(t, "TKT-t1-SECRET_AB12CD", view.QRPayload)
}
