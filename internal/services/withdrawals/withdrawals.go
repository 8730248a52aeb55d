// Package withdrawals handles the two-phase withdrawal flow: a request
// writes a pending transaction with a settle-at timestamp, and a background
// worker settles due rows later. The pending rows double as a durable queue;
// anything left over from before a restart is picked up on the next pass.
package withdrawals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spinbank/internal/infra/pgutils"
	"spinbank/internal/notify"
	"spinbank/internal/repos/transactions"
	pgtransactions "spinbank/internal/repos/transactions/postgres"
	"spinbank/internal/repos/users"
	pgusers "spinbank/internal/repos/users/postgres"
	"spinbank/internal/token"
)

var ErrInvalidAmount = errors.New("amount must be positive with at most 2 decimals")
var ErrMissingDestination = errors.New("destination required")

const maxTokenAttempts = 3

type Service struct {
	users    users.Users
	txns     transactions.Transactions
	notifier notify.Notifier
	delay    time.Duration
	now      func() time.Time
	runTx    func(ctx context.Context, fn func(*sql.Tx) error) error
}

func New(db *sql.DB, notifier notify.Notifier, delay time.Duration) *Service {
	return &Service{
		users:    pgusers.New(db),
		txns:     pgtransactions.New(db),
		notifier: notifier,
		delay:    delay,
		now:      func() time.Time { return time.Now().UTC() },
		runTx: func(ctx context.Context, fn func(*sql.Tx) error) error {
			return pgutils.WithTx(ctx, db, fn)
		},
	}
}

// Request validates the withdrawal and records it as pending. The balance is
// only checked, not debited; the debit happens at settlement time, so the
// funds stay spendable until then. No transaction row is written when the
// request-time check fails.
func (s *Service) Request(ctx context.Context, userID uint64, amount decimal.Decimal, destination string) (*transactions.Transaction, error) {
	if !amount.IsPositive() || amount.Exponent() < -2 {
		return nil, ErrInvalidAmount
	}

	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, ErrMissingDestination
	}

	var rec *transactions.Transaction

	var err error
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		settleAt := s.now().Add(s.delay)

		candidate := &transactions.Transaction{
			ID:          token.Transaction(),
			UserID:      userID,
			Type:        transactions.TypeWithdrawal,
			Status:      transactions.StatusPending,
			Amount:      amount,
			Description: "withdrawal to " + destination,
			Destination: destination,
			SettleAt:    &settleAt,
		}

		err = s.runTx(ctx, func(tx *sql.Tx) error {
			err := s.users.Exists(tx, userID)
			if err != nil {
				return err
			}

			balance, err := s.users.LockAndGetBalance(tx, userID)
			if err != nil {
				return err
			}

			if balance.LessThan(amount) {
				return users.ErrInsufficientFunds
			}

			return s.txns.Insert(tx, candidate)
		})
		if errors.Is(err, transactions.ErrDuplicateTransaction) {
			continue
		}

		rec = candidate

		break
	}
	if err != nil {
		return nil, fmt.Errorf("request withdrawal: %w", err)
	}

	return rec, nil
}

// SettleDue settles every due pending withdrawal, one per database
// transaction. A withdrawal completes when the balance still covers it and
// fails otherwise; the balance is untouched on failure. Notifications go out
// after the commit so a rolled-back settlement is never announced.
func (s *Service) SettleDue(ctx context.Context) (int, error) {
	settled := 0

	for {
		var ev *notify.WithdrawalEvent

		err := s.runTx(ctx, func(tx *sql.Tx) error {
			rec, err := s.txns.NextDueWithdrawal(tx, s.now())
			if err != nil {
				return err
			}

			if rec == nil {
				return nil
			}

			balance, err := s.users.LockAndGetBalance(tx, rec.UserID)
			if err != nil {
				return err
			}

			status := transactions.StatusFailed
			if balance.GreaterThanOrEqual(rec.Amount) {
				err = s.users.DecreaseBalance(tx, rec.UserID, rec.Amount)
				if err != nil {
					return err
				}

				status = transactions.StatusCompleted
			}

			err = s.txns.SettleWithdrawal(tx, rec.ID, status)
			if err != nil {
				return err
			}

			ev = &notify.WithdrawalEvent{
				TransactionID: rec.ID,
				UserID:        rec.UserID,
				Amount:        rec.Amount,
				Destination:   rec.Destination,
				Status:        string(status),
			}

			return nil
		})
		if err != nil {
			return settled, fmt.Errorf("settle due withdrawals: %w", err)
		}

		if ev == nil {
			return settled, nil
		}

		s.notifier.WithdrawalSettled(ctx, *ev)

		settled++
	}
}
