package services

import (
	"context"
	"fmt"
	"log/slog"

	"booking-system/models"
	"booking-system/utils"

	pubnub "github.com/pubnub/go"
)

// Notifier pushes realtime payment events to the paying user's channel.
// Delivery is best effort: a broken publisher must never fail a payment
// that already committed, so failures only trip the breaker and log.
type Notifier struct {
	pn *pubnub.PubNub
	cb *utils.CircuitBreaker
}

func NewNotifier(pn *pubnub.PubNub) *Notifier {
	return &Notifier{
		pn: pn,
		cb: utils.NewCircuitBreaker("pubnub-publish"),
	}
}

func (n *Notifier) NotifyPaymentSuccess(ctx context.Context, userID string, receipt *models.PaymentReceipt) {
	if n == nil || n.pn == nil {
		return
	}

	channel := fmt.Sprintf("user-%s", userID)
	err := n.cb.Execute(ctx, func() error {
		_, _, err := n.pn.Publish().
			Channel(channel).
			Message(map[string]any{
				"type":       "payment_success",
				"receipt_id": receipt.ReceiptID,
				"ticket_id":  receipt.TicketID,
				"amount":     receipt.Amount,
			}).
			Execute()
		return err
	})
	if err != nil {
		slog.Warn("payment notification dropped", "user", userID, "ticket", receipt.TicketID, "error", err)
	}
}
