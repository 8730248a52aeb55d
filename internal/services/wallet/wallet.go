// Package wallet covers the money-in side of the ledger: deposits,
// balance reads, and the transaction history listing.
package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"spinbank/internal/infra/pgutils"
	"spinbank/internal/repos/transactions"
	pgtransactions "spinbank/internal/repos/transactions/postgres"
	"spinbank/internal/repos/users"
	pgusers "spinbank/internal/repos/users/postgres"
	"spinbank/internal/token"
)

var ErrInvalidAmount = errors.New("amount must be positive with at most 2 decimals")
var ErrMissingExternalID = errors.New("external transaction id required")

const (
	// maxHistoryLimit caps ListTransactions regardless of what the caller asks for.
	maxHistoryLimit = 50

	// maxTokenAttempts bounds id regeneration on unique-violation conflicts.
	maxTokenAttempts = 3
)

type Service struct {
	users users.Users
	txns  transactions.Transactions
	runTx func(ctx context.Context, fn func(*sql.Tx) error) error
}

func New(db *sql.DB) *Service {
	return &Service{
		users: pgusers.New(db),
		txns:  pgtransactions.New(db),
		runTx: func(ctx context.Context, fn func(*sql.Tx) error) error {
			return pgutils.WithTx(ctx, db, fn)
		},
	}
}

// Deposit credits the user's balance and records a completed deposit
// transaction. The external payment id is treated as already verified by the
// gateway and is only kept for traceability.
func (s *Service) Deposit(ctx context.Context, userID uint64, amount decimal.Decimal, externalTxID string) (decimal.Decimal, error) {
	if !validAmount(amount) {
		return decimal.Zero, ErrInvalidAmount
	}

	externalTxID = strings.TrimSpace(externalTxID)
	if externalTxID == "" {
		return decimal.Zero, ErrMissingExternalID
	}

	var newBalance decimal.Decimal

	var err error
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		rec := &transactions.Transaction{
			ID:          token.Transaction(),
			UserID:      userID,
			Type:        transactions.TypeDeposit,
			Status:      transactions.StatusCompleted,
			Amount:      amount,
			Description: "deposit, external id " + externalTxID,
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

			err = s.users.IncreaseBalance(tx, userID, amount)
			if err != nil {
				return err
			}

			err = s.txns.Insert(tx, rec)
			if err != nil {
				return err
			}

			newBalance = balance.Add(amount)

			return nil
		})
		if errors.Is(err, transactions.ErrDuplicateTransaction) {
			continue // fresh id next attempt
		}

		break
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("deposit: %w", err)
	}

	return newBalance, nil
}

func (s *Service) GetBalance(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	return s.users.GetBalance(ctx, userID)
}

// ListTransactions returns the user's history, newest first, capped at 50.
func (s *Service) ListTransactions(ctx context.Context, userID uint64, limit int) ([]transactions.Transaction, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	_, err := s.users.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	recs, err := s.txns.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return recs, nil
}

func validAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Exponent() >= -2
}
