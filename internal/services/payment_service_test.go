package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"booking-system/config"
	"booking-system/internal/status"
	"booking-system/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestPaymentService() (*PaymentService, redismock.ClientMock) {
	db, redisMock := redismock.NewClientMock()
	service := &PaymentService{
		Redis: db,
		cfg:   &config.Config{ReceiptTTL: 24 * time.Hour},
	}
	return service, redisMock
}

func TestCacheReceipt(t *testing.T) {
	service, redisMock := setupTestPaymentService()
	defer redisMock.ClearExpect()

	paidAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	receipt := &models.PaymentReceipt{
		ReceiptID:     "rcpt-1",
		TicketID:      "tkt-1",
		ReservationID: "res-1",
		UserID:        "user-1",
		PaymentStatus: models.PaymentPaid,
		Paid:          true,
		QRPayload:     "TKT-tkt-1-KEY_AB12CD",
		Amount:        50,
		PaymentDate:   &paidAt,
	}

	redisMock.ExpectHSet("receipt:tkt-1",
		"receipt_id", "rcpt-1",
		"ticket_id", "tkt-1",
		"reservation_id", "res-1",
		"user_id", "user-1",
		"payment_status", models.PaymentPaid,
		"qr_payload", "TKT-tkt-1-KEY_AB12CD",
		"amount", "50",
		"payment_date", "2026-03-14T10:30:00Z",
	).SetVal(8)
	redisMock.ExpectExpire("receipt:tkt-1", 24*time.Hour).SetVal(true)

	err := service.cacheReceipt(context.Background(), receipt)
	require.NoError(t, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCacheReceiptRedisDown(t *testing.T) {
	service, redisMock := setupTestPaymentService()
	defer redisMock.ClearExpect()

	redisMock.ExpectHSet("receipt:tkt-1",
		"receipt_id", "",
		"ticket_id", "tkt-1",
		"reservation_id", "",
		"user_id", "user-1",
		"payment_status", models.PaymentPaid,
		"qr_payload", "",
		"amount", "0",
		"payment_date", "",
	).SetErr(errors.New("connection refused"))

	err := service.cacheReceipt(context.Background(), &models.PaymentReceipt{
		TicketID:      "tkt-1",
		UserID:        "user-1",
		PaymentStatus: models.PaymentPaid,
	})
	assert.Error(t, err)
}

func TestReceiptFromCache(t *testing.T) {
	receipt := receiptFromCache(map[string]string{
		"receipt_id":     "rcpt-1",
		"ticket_id":      "tkt-1",
		"reservation_id": "res-1",
		"user_id":        "user-1",
		"payment_status": models.PaymentPaid,
		"qr_payload":     "TKT-tkt-1-KEY_AB12CD",
		"amount":         "50.5",
		"payment_date":   "2026-03-14T10:30:00Z",
	})

	assert.Equal(t, "rcpt-1", receipt.ReceiptID)
	assert.Equal(t, "tkt-1", receipt.TicketID)
	assert.True(t, receipt.Paid)
	assert.Equal(t, 50.5, receipt.Amount)
	require.NotNil(t, receipt.PaymentDate)
	assert.Equal(t, time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC), receipt.PaymentDate.UTC())
}

func TestReceiptFromCachePendingWithoutDate(t *testing.T) {
	receipt := receiptFromCache(map[string]string{
		"ticket_id":      "tkt-2",
		"payment_status": models.PaymentPending,
		"amount":         "not-a-number",
		"payment_date":   "",
	})

	assert.False(t, receipt.Paid)
	assert.Zero(t, receipt.Amount)
	assert.Nil(t, receipt.PaymentDate)
}

func TestIsDomainError(t *testing.T) {
	domain := []error{
		status.ErrAlreadyPaid,
		status.ErrNotFound,
		status.ErrValidation,
		status.ErrConflict,
		status.ErrCapacityExhausted,
	}
	for _, err := range domain {
		assert.True(t, isDomainError(err), err.Error())
	}

	// Store failures are not domain outcomes and stay retryable.
	assert.False(t, isDomainError(errors.New("database is locked")))
	// Wrapped sentinels still classify.
	assert.True(t, isDomainError(errors.Join(errors.New("tx"), status.ErrAlreadyPaid)))
}

func TestReceiptKey(t *testing.T) {
	assert.Equal(t, "receipt:tkt-9", receiptKey("tkt-9"))
}
