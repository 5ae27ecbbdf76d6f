package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"booking-system/config"
	"booking-system/internal/status"
	"booking-system/models"
	"booking-system/monitoring"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

// PaymentService marks tickets paid. Confirm is deliberately not
// idempotent: a second confirmation of the same ticket is a client error,
// since a duplicate confirm can indicate a double charge upstream.
type PaymentService struct {
	Redis    *redis.Client
	cfg      *config.Config
	tickets  *TicketService
	notifier *Notifier
}

func NewPaymentService(redisClient *redis.Client, cfg *config.Config, tickets *TicketService, notifier *Notifier) *PaymentService {
	return &PaymentService{
		Redis:    redisClient,
		cfg:      cfg,
		tickets:  tickets,
		notifier: notifier,
	}
}

// Confirm resolves the target ticket (directly, or via the reservation with
// issue-or-reuse), then applies the paid transition, proof payload, amount
// backfill and the reservation status bump as one transaction. Store-level
// busy errors are retried a bounded number of times; domain errors never are.
func (s *PaymentService) Confirm(ctx context.Context, user *core.Record, ticketID, reservationID string) (*models.PaymentReceipt, error) {
	started := time.Now()

	var ticket *core.Record
	var err error
	switch {
	case ticketID != "":
		ticket, err = s.tickets.GetOwned(ticketID, user)
	case reservationID != "":
		ticket, err = s.tickets.IssueOrReuse(user, reservationID)
	default:
		err = fmt.Errorf("%w: ticket_id or reservation_id is required", status.ErrValidation)
	}
	if err != nil {
		monitoring.TrackPayment("rejected")
		return nil, err
	}

	if ticket.GetBool("is_paid") {
		monitoring.TrackPayment("already_paid")
		return nil, status.ErrAlreadyPaid
	}

	// The final key is derived up front; the per-user secret write is not
	// part of the payment's atomic unit, only the ticket fields are.
	finalKey := ticket.GetString("final_key")
	if finalKey == "" {
		finalKey, err = s.tickets.deriveFinalKey(user)
		if err != nil {
			return nil, err
		}
	}

	var receipt *models.PaymentReceipt
	backoff := retry.WithMaxRetries(s.cfg.PaymentMaxRetries, retry.NewConstant(s.cfg.PaymentRetryDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		txErr := s.tickets.app.RunInTransaction(func(txApp core.App) error {
			fresh, err := txApp.FindRecordById("tickets", ticket.Id)
			if err != nil {
				return status.ErrNotFound
			}
			// Authoritative check: the loser of a concurrent confirm
			// lands here, not on a double-applied payment.
			if fresh.GetBool("is_paid") {
				return status.ErrAlreadyPaid
			}

			now := time.Now().UTC()
			payload := models.ProofPayload(fresh.Id, finalKey)

			fresh.Set("final_key", finalKey)
			fresh.Set("qr_payload", payload)
			fresh.Set("is_paid", true)
			fresh.Set("payment_status", models.PaymentPaid)
			fresh.Set("payment_date", now)

			amount := decimal.NewFromFloat(fresh.GetFloat("amount"))
			if amount.IsZero() {
				offer, err := txApp.FindRecordById("offers", fresh.GetString("offer_id"))
				if err != nil {
					return fmt.Errorf("backfill amount: %w", err)
				}
				amount = decimal.NewFromFloat(offer.GetFloat("price"))
				fresh.Set("amount", amount.InexactFloat64())
			}

			if err := txApp.Save(fresh); err != nil {
				return fmt.Errorf("save ticket: %w", err)
			}

			if resID := fresh.GetString("reservation_id"); resID != "" {
				reservation, err := txApp.FindRecordById("reservations", resID)
				if err != nil {
					return fmt.Errorf("load bound reservation: %w", err)
				}
				if reservation.GetString("status") != models.ReservationConfirmed {
					if err := transitionReservation(txApp, reservation, models.ReservationConfirmed); err != nil {
						return err
					}
				}
			}

			amt, _ := amount.Float64()
			receipt = &models.PaymentReceipt{
				ReceiptID:     uuid.NewString(),
				TicketID:      fresh.Id,
				ReservationID: fresh.GetString("reservation_id"),
				UserID:        user.Id,
				PaymentStatus: models.PaymentPaid,
				Paid:          true,
				QRPayload:     payload,
				Amount:        amt,
				PaymentDate:   &now,
			}
			return nil
		})
		if txErr == nil {
			return nil
		}
		if isDomainError(txErr) {
			return txErr
		}
		// Store-level contention (sqlite busy/locked); worth another try.
		return retry.RetryableError(txErr)
	})
	if err != nil {
		if errors.Is(err, status.ErrAlreadyPaid) {
			monitoring.TrackPayment("already_paid")
		} else {
			monitoring.TrackPayment("error")
		}
		return nil, err
	}

	if err := s.cacheReceipt(ctx, receipt); err != nil {
		slog.Warn("receipt cache write failed", "ticket", receipt.TicketID, "error", err)
	}
	s.notifier.NotifyPaymentSuccess(ctx, user.Id, receipt)

	monitoring.TrackPayment("confirmed")
	monitoring.TrackConfirmDuration(time.Since(started))
	slog.Info("payment confirmed", "ticket", receipt.TicketID, "reservation", receipt.ReservationID, "user", user.Id)
	return receipt, nil
}

// GetReceipt serves a receipt from the cache, falling back to the store.
// Only the paying user may read it; a foreign or unpaid ticket is not found.
func (s *PaymentService) GetReceipt(ctx context.Context, user *core.Record, ticketID string) (*models.PaymentReceipt, error) {
	if cached, err := s.Redis.HGetAll(ctx, receiptKey(ticketID)).Result(); err == nil && len(cached) > 0 {
		if cached["user_id"] != user.Id {
			return nil, status.ErrNotFound
		}
		return receiptFromCache(cached), nil
	}

	ticket, err := s.tickets.GetOwned(ticketID, user)
	if err != nil {
		return nil, err
	}
	if !ticket.GetBool("is_paid") {
		return nil, status.ErrNotFound
	}

	view := TicketFromRecord(ticket)
	return &models.PaymentReceipt{
		TicketID:      view.ID,
		ReservationID: view.ReservationID,
		UserID:        view.UserID,
		PaymentStatus: view.PaymentStatus,
		Paid:          view.IsPaid,
		QRPayload:     view.QRPayload,
		Amount:        view.Amount,
		PaymentDate:   view.PaymentDate,
	}, nil
}

func receiptKey(ticketID string) string {
	return fmt.Sprintf("receipt:%s", ticketID)
}

// cacheReceipt stores the receipt as a Redis hash with a TTL so repeated
// receipt reads skip the store. Field order is fixed.
func (s *PaymentService) cacheReceipt(ctx context.Context, r *models.PaymentReceipt) error {
	key := receiptKey(r.TicketID)

	paidAt := ""
	if r.PaymentDate != nil {
		paidAt = r.PaymentDate.Format(time.RFC3339)
	}

	if err := s.Redis.HSet(ctx, key,
		"receipt_id", r.ReceiptID,
		"ticket_id", r.TicketID,
		"reservation_id", r.ReservationID,
		"user_id", r.UserID,
		"payment_status", r.PaymentStatus,
		"qr_payload", r.QRPayload,
		"amount", strconv.FormatFloat(r.Amount, 'f', -1, 64),
		"payment_date", paidAt,
	).Err(); err != nil {
		return err
	}

	return s.Redis.Expire(ctx, key, s.cfg.ReceiptTTL).Err()
}

func receiptFromCache(data map[string]string) *models.PaymentReceipt {
	amount, _ := strconv.ParseFloat(data["amount"], 64)
	receipt := &models.PaymentReceipt{
		ReceiptID:     data["receipt_id"],
		TicketID:      data["ticket_id"],
		ReservationID: data["reservation_id"],
		UserID:        data["user_id"],
		PaymentStatus: data["payment_status"],
		Paid:          data["payment_status"] == models.PaymentPaid,
		QRPayload:     data["qr_payload"],
		Amount:        amount,
	}
	if t, err := time.Parse(time.RFC3339, data["payment_date"]); err == nil {
		receipt.PaymentDate = &t
	}
	return receipt
}

// isDomainError separates business outcomes from store-level failures; only
// the latter are retried.
func isDomainError(err error) bool {
	return errors.Is(err, status.ErrAlreadyPaid) ||
		errors.Is(err, status.ErrNotFound) ||
		errors.Is(err, status.ErrValidation) ||
		errors.Is(err, status.ErrConflict) ||
		errors.Is(err, status.ErrCapacityExhausted)
}
