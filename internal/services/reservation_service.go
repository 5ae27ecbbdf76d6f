package services

import (
	"fmt"
	"log/slog"
	"time"

	"booking-system/internal/status"
	"booking-system/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

const dateLayout = "2006-01-02"

// ReservationService owns the reservation ledger: creation, owner-scoped
// reads and mutations, cascade deletion and status transitions.
type ReservationService struct {
	app core.App
}

func NewReservationService(app core.App) *ReservationService {
	return &ReservationService{app: app}
}

// resolveActiveOffer maps an offer name to its record. Inactive and unknown
// offers are indistinguishable to the caller.
func resolveActiveOffer(app core.App, name string) (*core.Record, error) {
	offer, err := app.FindFirstRecordByFilter(
		"offers",
		"name = {:name} && is_active = true",
		dbx.Params{"name": name},
	)
	if err != nil || offer == nil {
		return nil, fmt.Errorf("%w: unknown offer %q", status.ErrValidation, name)
	}
	return offer, nil
}

// Create records a non-binding request. The offer must resolve, but
// capacity is neither checked nor reserved here; that happens only when a
// ticket is issued.
func (s *ReservationService) Create(user *core.Record, offerName, date string, quantity int) (*core.Record, error) {
	if offerName == "" {
		return nil, fmt.Errorf("%w: offer is required", status.ErrValidation)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", status.ErrValidation)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", status.ErrValidation, date)
	}

	if _, err := resolveActiveOffer(s.app, offerName); err != nil {
		return nil, err
	}

	collection, err := s.app.FindCollectionByNameOrId("reservations")
	if err != nil {
		return nil, err
	}

	reservation := core.NewRecord(collection)
	reservation.Set("user_id", user.Id)
	reservation.Set("offer", offerName)
	reservation.Set("date", date)
	reservation.Set("quantity", quantity)
	reservation.Set("status", models.ReservationPending)

	if err := s.app.Save(reservation); err != nil {
		return nil, fmt.Errorf("save reservation: %w", err)
	}

	return reservation, nil
}

// List returns the caller's reservations, newest first.
func (s *ReservationService) List(user *core.Record) ([]*core.Record, error) {
	return s.app.FindRecordsByFilter(
		"reservations",
		"user_id = {:user}",
		"-created",
		500,
		0,
		dbx.Params{"user": user.Id},
	)
}

// GetOwned loads a reservation for the caller. Missing and not-owned both
// come back as the same not-found error so existence never leaks.
func (s *ReservationService) GetOwned(id string, caller *core.Record, asAdmin bool) (*core.Record, error) {
	reservation, err := s.app.FindRecordById("reservations", id)
	if err != nil {
		return nil, status.ErrNotFound
	}
	if !asAdmin && reservation.GetString("user_id") != caller.Id {
		return nil, status.ErrNotFound
	}
	return reservation, nil
}

// Update applies a typed patch field by field. Offer changes revalidate the
// catalog; status changes follow the normal forward-only rule.
func (s *ReservationService) Update(id string, caller *core.Record, asAdmin bool, patch models.ReservationPatch) (*core.Record, error) {
	reservation, err := s.GetOwned(id, caller, asAdmin)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return reservation, nil
	}
	if err := applyReservationPatch(s.app, reservation, patch); err != nil {
		return nil, err
	}
	return reservation, nil
}

// applyReservationPatch validates and applies the set fields against the
// given app handle, then saves.
func applyReservationPatch(app core.App, reservation *core.Record, patch models.ReservationPatch) error {
	if patch.Date != nil {
		if _, err := time.Parse(dateLayout, *patch.Date); err != nil {
			return fmt.Errorf("%w: invalid date %q", status.ErrValidation, *patch.Date)
		}
		reservation.Set("date", *patch.Date)
	}
	if patch.Offer != nil {
		if _, err := resolveActiveOffer(app, *patch.Offer); err != nil {
			return err
		}
		reservation.Set("offer", *patch.Offer)
	}
	if patch.Quantity != nil {
		if *patch.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1", status.ErrValidation)
		}
		reservation.Set("quantity", *patch.Quantity)
	}
	if patch.Status != nil && *patch.Status != reservation.GetString("status") {
		if !models.CanTransition(reservation.GetString("status"), *patch.Status) {
			return fmt.Errorf("%w: %s -> %s", status.ErrConflict, reservation.GetString("status"), *patch.Status)
		}
		reservation.Set("status", *patch.Status)
	}

	if err := app.Save(reservation); err != nil {
		return fmt.Errorf("save reservation: %w", err)
	}
	return nil
}

// Delete removes the reservation and every ticket bound to it in one
// transaction; no orphan ticket rows may survive.
func (s *ReservationService) Delete(id string, caller *core.Record, asAdmin bool) error {
	reservation, err := s.GetOwned(id, caller, asAdmin)
	if err != nil {
		return err
	}

	return s.app.RunInTransaction(func(txApp core.App) error {
		tickets, err := txApp.FindRecordsByFilter(
			"tickets",
			"reservation_id = {:reservation}",
			"",
			0,
			0,
			dbx.Params{"reservation": reservation.Id},
		)
		if err != nil {
			return fmt.Errorf("find bound tickets: %w", err)
		}
		for _, ticket := range tickets {
			if err := txApp.Delete(ticket); err != nil {
				return fmt.Errorf("delete bound ticket %s: %w", ticket.Id, err)
			}
		}
		return txApp.Delete(reservation)
	})
}

// transitionReservation applies the forward-only rule against the given app
// handle so the payment confirmer can run it inside its own transaction.
// Same-status calls and any backward movement are conflicts; nothing no-ops
// silently.
func transitionReservation(app core.App, reservation *core.Record, newStatus string) error {
	current := reservation.GetString("status")
	if !models.ValidReservationStatus(newStatus) {
		return fmt.Errorf("%w: unknown status %q", status.ErrValidation, newStatus)
	}
	if !models.CanTransition(current, newStatus) {
		return fmt.Errorf("%w: %s -> %s", status.ErrConflict, current, newStatus)
	}
	reservation.Set("status", newStatus)
	return app.Save(reservation)
}

// AdminUpdate applies an administrator's patch as one atomic unit. Status
// changes take the override path, which permits regressions the normal rule
// forbids; a rejected field edit rolls the override back with it.
func (s *ReservationService) AdminUpdate(id string, admin *core.Record, patch models.ReservationPatch) (*core.Record, error) {
	var reservation *core.Record
	err := s.app.RunInTransaction(func(txApp core.App) error {
		var err error
		reservation, err = txApp.FindRecordById("reservations", id)
		if err != nil {
			return status.ErrNotFound
		}

		if patch.Status != nil {
			if err := overrideReservationStatus(txApp, reservation, admin, *patch.Status); err != nil {
				return err
			}
			patch.Status = nil
		}
		if patch.IsEmpty() {
			return nil
		}
		return applyReservationPatch(txApp, reservation, patch)
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// overrideReservationStatus sets any status, including regressions, except
// out of the terminal cancelled state. Treated as an escalation and logged
// as such.
func overrideReservationStatus(app core.App, reservation *core.Record, admin *core.Record, newStatus string) error {
	current := reservation.GetString("status")
	if !models.ValidReservationStatus(newStatus) {
		return fmt.Errorf("%w: unknown status %q", status.ErrValidation, newStatus)
	}
	if current == models.ReservationCancelled || current == newStatus {
		return fmt.Errorf("%w: %s -> %s", status.ErrConflict, current, newStatus)
	}

	slog.Warn("admin status override",
		"reservation", reservation.Id,
		"admin", admin.Id,
		"from", current,
		"to", newStatus,
	)

	reservation.Set("status", newStatus)
	if err := app.Save(reservation); err != nil {
		return fmt.Errorf("save reservation: %w", err)
	}
	return nil
}

// ListAll returns every reservation, newest first. Admin surface only.
func (s *ReservationService) ListAll() ([]*core.Record, error) {
	return s.app.FindRecordsByFilter("reservations", "id != ''", "-created", 0, 0)
}

// Stats summarizes the caller's ledger.
func (s *ReservationService) Stats(user *core.Record) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	err := s.app.DB().
		NewQuery("SELECT status, COUNT(*) AS n FROM reservations WHERE user_id = {:user} GROUP BY status").
		Bind(dbx.Params{"user": user.Id}).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}

	stats := map[string]int{"total": 0, "pending": 0, "confirmed": 0}
	for _, row := range rows {
		stats["total"] += row.N
		switch row.Status {
		case models.ReservationPending:
			stats["pending"] += row.N
		case models.ReservationConfirmed:
			stats["confirmed"] += row.N
		}
	}
	return stats, nil
}

// ReservationFromRecord converts a stored record to its API shape.
func ReservationFromRecord(r *core.Record) models.Reservation {
	return models.Reservation{
		ID:       r.Id,
		UserID:   r.GetString("user_id"),
		Offer:    r.GetString("offer"),
		Date:     r.GetDateTime("date").Time().Format(dateLayout),
		Quantity: r.GetInt("quantity"),
		Status:   r.GetString("status"),
	}
}
