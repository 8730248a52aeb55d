// Package notify is the outbound notification boundary. Actual delivery
// (SMS, push) is an external collaborator; the default implementation
// records the event in the service log so no settlement outcome is silent.
package notify

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

type WithdrawalEvent struct {
	TransactionID string
	UserID        uint64
	Amount        decimal.Decimal
	Destination   string
	Status        string
}

type Notifier interface {
	WithdrawalSettled(ctx context.Context, ev WithdrawalEvent)
}

type LogNotifier struct{}

var _ Notifier = LogNotifier{}

func (LogNotifier) WithdrawalSettled(_ context.Context, ev WithdrawalEvent) {
	slog.Info("withdrawal settled",
		"transactionId", ev.TransactionID,
		"userId", ev.UserID,
		"amount", ev.Amount.StringFixed(2),
		"destination", ev.Destination,
		"status", ev.Status,
	)
}
