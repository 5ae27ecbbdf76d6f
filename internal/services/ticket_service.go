package services

import (
	"fmt"
	"log/slog"

	"booking-system/internal/status"
	"booking-system/models"
	"booking-system/monitoring"
	"booking-system/utils"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// TicketService converts reservations (or bare offer picks) into payable
// tickets. Capacity accounting lives here and nowhere else.
type TicketService struct {
	app  core.App
	auth *AuthService
}

func NewTicketService(app core.App, auth *AuthService) *TicketService {
	return &TicketService{
		app:  app,
		auth: auth,
	}
}

// Issue creates a ticket against an offer, optionally bound to one of the
// caller's reservations. The capacity decrement is a single conditional
// update in the same transaction as the insert: both apply or neither does.
func (s *TicketService) Issue(user *core.Record, offerID, reservationID string) (*core.Record, error) {
	offer, err := s.app.FindRecordById("offers", offerID)
	if err != nil || !offer.GetBool("is_active") {
		return nil, fmt.Errorf("%w: offer %s", status.ErrNotFound, offerID)
	}

	if reservationID != "" {
		reservation, err := s.app.FindRecordById("reservations", reservationID)
		if err != nil || reservation.GetString("user_id") != user.Id {
			return nil, fmt.Errorf("%w: reservation %s", status.ErrNotFound, reservationID)
		}
	}

	finalKey, err := s.deriveFinalKey(user)
	if err != nil {
		return nil, err
	}

	var ticket *core.Record
	err = s.app.RunInTransaction(func(txApp core.App) error {
		// Decrement only while capacity remains. Checking rows-affected
		// instead of read-modify-write keeps concurrent issues from
		// driving capacity negative.
		result, err := txApp.DB().
			NewQuery("UPDATE offers SET capacity = capacity - 1 WHERE id = {:id} AND capacity > 0").
			Bind(dbx.Params{"id": offer.Id}).
			Execute()
		if err != nil {
			return fmt.Errorf("decrement capacity: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("decrement capacity: %w", err)
		}
		if affected == 0 {
			return status.ErrCapacityExhausted
		}

		collection, err := txApp.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}

		ticket = core.NewRecord(collection)
		ticket.Set("user_id", user.Id)
		ticket.Set("offer_id", offer.Id)
		ticket.Set("reservation_id", reservationID)
		ticket.Set("final_key", finalKey)
		ticket.Set("qr_payload", "")
		ticket.Set("is_paid", false)
		ticket.Set("payment_status", models.PaymentPending)
		ticket.Set("amount", offer.GetFloat("price"))
		ticket.Set("is_used", false)

		// The unique index on final_key rejects a collision outright;
		// a collision means the key derivation broke, so surface it.
		if err := txApp.Save(ticket); err != nil {
			return fmt.Errorf("save ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		monitoring.TrackIssueFailure(offer.GetString("name"))
		return nil, err
	}

	monitoring.TrackTicketIssued(offer.GetString("name"))
	slog.Info("ticket issued", "ticket", ticket.Id, "offer", offer.GetString("name"), "user", user.Id)
	return ticket, nil
}

// IssueOrReuse returns the live ticket bound to the reservation, issuing a
// fresh one only when none exists. Client retries of the payment flow hit
// the reuse path instead of minting duplicates.
func (s *TicketService) IssueOrReuse(user *core.Record, reservationID string) (*core.Record, error) {
	reservation, err := s.app.FindRecordById("reservations", reservationID)
	if err != nil || reservation.GetString("user_id") != user.Id {
		return nil, fmt.Errorf("%w: reservation %s", status.ErrNotFound, reservationID)
	}

	if existing, err := s.LatestForReservation(user, reservation.Id); err == nil {
		return existing, nil
	}

	offer, err := resolveActiveOffer(s.app, reservation.GetString("offer"))
	if err != nil {
		return nil, err
	}

	return s.Issue(user, offer.Id, reservation.Id)
}

// LatestForReservation returns the newest of the caller's tickets bound to
// the reservation.
func (s *TicketService) LatestForReservation(user *core.Record, reservationID string) (*core.Record, error) {
	tickets, err := s.app.FindRecordsByFilter(
		"tickets",
		"reservation_id = {:reservation} && user_id = {:user}",
		"-created",
		1,
		0,
		dbx.Params{"reservation": reservationID, "user": user.Id},
	)
	if err != nil || len(tickets) == 0 {
		return nil, status.ErrNotFound
	}
	return tickets[0], nil
}

// GetOwned loads a ticket for the caller under the same no-leak rule as
// reservations.
func (s *TicketService) GetOwned(id string, caller *core.Record) (*core.Record, error) {
	ticket, err := s.app.FindRecordById("tickets", id)
	if err != nil || ticket.GetString("user_id") != caller.Id {
		return nil, status.ErrNotFound
	}
	return ticket, nil
}

// Delete removes one of the caller's tickets.
func (s *TicketService) Delete(id string, caller *core.Record) error {
	ticket, err := s.GetOwned(id, caller)
	if err != nil {
		return err
	}
	return s.app.Delete(ticket)
}

// ListByUser returns the caller's tickets, newest first.
func (s *TicketService) ListByUser(user *core.Record) ([]*core.Record, error) {
	return s.app.FindRecordsByFilter(
		"tickets",
		"user_id = {:user}",
		"-created",
		500,
		0,
		dbx.Params{"user": user.Id},
	)
}

// OfferName resolves an offer id for display; missing offers degrade to an
// empty name rather than failing a listing.
func (s *TicketService) OfferName(offerID string) string {
	offer, err := s.app.FindRecordById("offers", offerID)
	if err != nil {
		return ""
	}
	return offer.GetString("name")
}

// deriveFinalKey combines the stable per-user secret with a fresh random
// component. Uniqueness is enforced by the store's unique index.
func (s *TicketService) deriveFinalKey(user *core.Record) (string, error) {
	secret, err := s.auth.UserSecret(user)
	if err != nil {
		return "", fmt.Errorf("user secret: %w", err)
	}
	random, err := utils.GenerateCode(5)
	if err != nil {
		return "", fmt.Errorf("random component: %w", err)
	}
	return secret + "_" + random, nil
}

// TicketFromRecord converts a stored record to its API shape.
func TicketFromRecord(r *core.Record) models.Ticket {
	ticket := models.Ticket{
		ID:            r.Id,
		UserID:        r.GetString("user_id"),
		OfferID:       r.GetString("offer_id"),
		ReservationID: r.GetString("reservation_id"),
		FinalKey:      r.GetString("final_key"),
		QRPayload:     r.GetString("qr_payload"),
		IsPaid:        r.GetBool("is_paid"),
		PaymentStatus: r.GetString("payment_status"),
		Amount:        r.GetFloat("amount"),
		IsUsed:        r.GetBool("is_used"),
	}
	if paidAt := r.GetDateTime("payment_date"); !paidAt.IsZero() {
		t := paidAt.Time()
		ticket.PaymentDate = &t
	}
	return ticket
}
