package services

import (
	"context"
	"testing"
	"time"

	"booking-system/config"
	"booking-system/internal/status"
	"booking-system/models"

	_ "booking-system/migrations"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workflowEnv struct {
	app          *tests.TestApp
	auth         *AuthService
	offers       *OfferService
	reservations *ReservationService
	tickets      *TicketService
	payments     *PaymentService
}

// setupWorkflow boots a scratch app with the real migrations applied, so the
// tests run against the same collections and indexes as production.
func setupWorkflow(t *testing.T) *workflowEnv {
	t.Helper()

	app, err := tests.NewTestApp(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	cfg := &config.Config{
		JWTSecret:         "test-secret",
		TokenTTL:          time.Hour,
		BcryptCost:        4,
		PaymentMaxRetries: 2,
		PaymentRetryDelay: time.Millisecond,
		ReceiptTTL:        time.Hour,
	}

	// Receipt cache writes are best effort, so the unprimed mock is enough.
	redisClient, _ := redismock.NewClientMock()

	auth := NewAuthService(app, cfg)
	tickets := NewTicketService(app, auth)

	return &workflowEnv{
		app:          app,
		auth:         auth,
		offers:       NewOfferService(app),
		reservations: NewReservationService(app),
		tickets:      tickets,
		payments:     NewPaymentService(redisClient, cfg, tickets, NewNotifier(nil)),
	}
}

func (env *workflowEnv) register(t *testing.T, username, email string) *core.Record {
	t.Helper()
	user, err := env.auth.Register(username, email, "pa55word")
	require.NoError(t, err)
	return user
}

func TestIssueStopsAtZeroCapacity(t *testing.T) {
	env := setupWorkflow(t)
	alice := env.register(t, "alice", "alice@example.com")

	offer, err := env.offers.Create("Last Seat", "single unit", decimal.NewFromInt(10), 1)
	require.NoError(t, err)

	ticket, err := env.tickets.Issue(alice, offer.Id, "")
	require.NoError(t, err)
	assert.False(t, ticket.GetBool("is_paid"))
	assert.Empty(t, ticket.GetString("qr_payload"))
	assert.Equal(t, 10.0, ticket.GetFloat("amount"))

	_, err = env.tickets.Issue(alice, offer.Id, "")
	assert.ErrorIs(t, err, status.ErrCapacityExhausted)

	fresh, err := env.app.FindRecordById("offers", offer.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.GetInt("capacity"))
}

func TestIssueRejectsInactiveOffer(t *testing.T) {
	env := setupWorkflow(t)
	alice := env.register(t, "alice", "alice@example.com")

	offer, err := env.offers.Create("Retired", "", decimal.NewFromInt(5), 10)
	require.NoError(t, err)
	offer.Set("is_active", false)
	require.NoError(t, env.app.Save(offer))

	_, err = env.tickets.Issue(alice, offer.Id, "")
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestConfirmIsNotIdempotent(t *testing.T) {
	env := setupWorkflow(t)
	alice := env.register(t, "alice", "alice@example.com")

	reservation, err := env.reservations.Create(alice, "Solo", "2026-09-15", 1)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationPending, reservation.GetString("status"))

	receipt, err := env.payments.Confirm(context.Background(), alice, "", reservation.Id)
	require.NoError(t, err)
	assert.True(t, receipt.Paid)
	assert.Equal(t, models.PaymentPaid, receipt.PaymentStatus)
	assert.Equal(t, 25.0, receipt.Amount)
	require.NotNil(t, receipt.PaymentDate)

	// Proof material appears exactly at payment and is a pure function of
	// the ticket id and its final key.
	ticket, err := env.app.FindRecordById("tickets", receipt.TicketID)
	require.NoError(t, err)
	assert.True(t, ticket.GetBool("is_paid"))
	assert.Equal(t,
		models.ProofPayload(ticket.Id, ticket.GetString("final_key")),
		ticket.GetString("qr_payload"),
	)
	assert.Equal(t, receipt.QRPayload, ticket.GetString("qr_payload"))

	confirmed, err := env.app.FindRecordById("reservations", reservation.Id)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, confirmed.GetString("status"))

	_, err = env.payments.Confirm(context.Background(), alice, receipt.TicketID, "")
	assert.ErrorIs(t, err, status.ErrAlreadyPaid)

	// Addressing by reservation reuses the paid ticket and fails the same way.
	_, err = env.payments.Confirm(context.Background(), alice, "", reservation.Id)
	assert.ErrorIs(t, err, status.ErrAlreadyPaid)
}

func TestDeleteReservationCascadesTickets(t *testing.T) {
	env := setupWorkflow(t)
	alice := env.register(t, "alice", "alice@example.com")

	reservation, err := env.reservations.Create(alice, "Duo", "2026-10-01", 2)
	require.NoError(t, err)

	ticket, err := env.tickets.IssueOrReuse(alice, reservation.Id)
	require.NoError(t, err)

	require.NoError(t, env.reservations.Delete(reservation.Id, alice, false))

	_, err = env.app.FindRecordById("tickets", ticket.Id)
	assert.Error(t, err, "bound ticket must not survive the reservation")
	_, err = env.app.FindRecordById("reservations", reservation.Id)
	assert.Error(t, err)
}

func TestOwnershipIsolation(t *testing.T) {
	env := setupWorkflow(t)
	alice := env.register(t, "alice", "alice@example.com")
	bob := env.register(t, "bob", "bob@example.com")

	reservation, err := env.reservations.Create(alice, "Solo", "2026-09-15", 1)
	require.NoError(t, err)
	ticket, err := env.tickets.IssueOrReuse(alice, reservation.Id)
	require.NoError(t, err)

	ctx := context.Background()
	quantity := 2

	_, err = env.reservations.GetOwned(reservation.Id, bob, false)
	assert.ErrorIs(t, err, status.ErrNotFound)
	_, err = env.reservations.Update(reservation.Id, bob, false, models.ReservationPatch{Quantity: &quantity})
	assert.ErrorIs(t, err, status.ErrNotFound)
	assert.ErrorIs(t, env.reservations.Delete(reservation.Id, bob, false), status.ErrNotFound)

	_, err = env.tickets.GetOwned(ticket.Id, bob)
	assert.ErrorIs(t, err, status.ErrNotFound)
	_, err = env.tickets.IssueOrReuse(bob, reservation.Id)
	assert.ErrorIs(t, err, status.ErrNotFound)

	_, err = env.payments.Confirm(ctx, bob, ticket.Id, "")
	assert.ErrorIs(t, err, status.ErrNotFound)
	_, err = env.payments.GetReceipt(ctx, bob, ticket.Id)
	assert.ErrorIs(t, err, status.ErrNotFound)

	// The owner still sees everything.
	_, err = env.reservations.GetOwned(reservation.Id, alice, false)
	assert.NoError(t, err)
	_, err = env.tickets.GetOwned(ticket.Id, alice)
	assert.NoError(t, err)
}

func TestTransitionReservationForwardOnly(t *testing.T) {
	env := setupWorkflow(t)
	alice := env.register(t, "alice", "alice@example.com")

	reservation, err := env.reservations.Create(alice, "Solo", "2026-09-15", 1)
	require.NoError(t, err)

	require.NoError(t, transitionReservation(env.app, reservation, models.ReservationConfirmed))

	err = transitionReservation(env.app, reservation, models.ReservationPending)
	assert.ErrorIs(t, err, status.ErrConflict)
	err = transitionReservation(env.app, reservation, models.ReservationConfirmed)
	assert.ErrorIs(t, err, status.ErrConflict, "same-status must not no-op silently")
	err = transitionReservation(env.app, reservation, "archived")
	assert.ErrorIs(t, err, status.ErrValidation)
}

func TestAdminUpdateAtomicOverride(t *testing.T) {
	env := setupWorkflow(t)
	alice := env.register(t, "alice", "alice@example.com")
	admin := env.register(t, "root", "root@example.com")
	admin.Set("is_admin", true)
	require.NoError(t, env.app.Save(admin))

	reservation, err := env.reservations.Create(alice, "Solo", "2026-09-15", 1)
	require.NoError(t, err)

	// A rejected field edit rolls the status override back with it.
	confirmed := models.ReservationConfirmed
	badDate := "not-a-date"
	_, err = env.reservations.AdminUpdate(reservation.Id, admin, models.ReservationPatch{
		Status: &confirmed,
		Date:   &badDate,
	})
	assert.ErrorIs(t, err, status.ErrValidation)

	fresh, err := env.app.FindRecordById("reservations", reservation.Id)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationPending, fresh.GetString("status"))

	// The override path permits a regression the normal rule forbids.
	require.NoError(t, transitionReservation(env.app, fresh, models.ReservationConfirmed))
	pending := models.ReservationPending
	updated, err := env.reservations.AdminUpdate(reservation.Id, admin, models.ReservationPatch{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationPending, updated.GetString("status"))
}

func TestRegisterDuplicateIdentity(t *testing.T) {
	env := setupWorkflow(t)
	env.register(t, "alice", "alice@example.com")

	// The unique index decides, so a duplicate fails regardless of timing.
	_, err := env.auth.Register("someone", "alice@example.com", "pa55word")
	assert.ErrorIs(t, err, status.ErrEmailTaken)

	_, err = env.auth.Register("alice", "other@example.com", "pa55word")
	assert.ErrorIs(t, err, status.ErrValidation)
}
