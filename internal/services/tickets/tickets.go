// Package tickets sells game tickets. A purchase debits the balance, records
// one game_purchase transaction, and mints the requested number of tickets,
// all inside a single database transaction so a failure at any step leaves
// the balance and the ticket table untouched.
package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"spinbank/internal/infra/pgutils"
	"spinbank/internal/repos/games"
	pggames "spinbank/internal/repos/games/postgres"
	ticketrepo "spinbank/internal/repos/tickets"
	pgtickets "spinbank/internal/repos/tickets/postgres"
	"spinbank/internal/repos/transactions"
	pgtransactions "spinbank/internal/repos/transactions/postgres"
	"spinbank/internal/repos/users"
	pgusers "spinbank/internal/repos/users/postgres"
	"spinbank/internal/token"
)

var ErrInvalidQuantity = errors.New("quantity must be between 1 and 100")

const (
	maxPerPurchase   = 100
	maxTokenAttempts = 3
)

type PurchaseResult struct {
	TransactionID string
	Balance       decimal.Decimal
	Tickets       []ticketrepo.Ticket
}

type Service struct {
	users   users.Users
	txns    transactions.Transactions
	games   games.Games
	tickets ticketrepo.Tickets
	runTx   func(ctx context.Context, fn func(*sql.Tx) error) error
}

func New(db *sql.DB) *Service {
	return &Service{
		users:   pgusers.New(db),
		txns:    pgtransactions.New(db),
		games:   pggames.New(db),
		tickets: pgtickets.New(db),
		runTx: func(ctx context.Context, fn func(*sql.Tx) error) error {
			return pgutils.WithTx(ctx, db, fn)
		},
	}
}

// Purchase buys qty tickets for one game. All tickets of a purchase share one
// draw date (purchase time + the game's duration). On an id or code
// collision the whole transaction rolls back and is retried with fresh
// tokens; existing rows are never overwritten.
func (s *Service) Purchase(ctx context.Context, userID, gameID uint64, qty int) (*PurchaseResult, error) {
	if qty < 1 || qty > maxPerPurchase {
		return nil, ErrInvalidQuantity
	}

	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if !game.Active {
		return nil, games.ErrGameNotActive
	}

	total := game.Price.Mul(decimal.NewFromInt(int64(qty)))

	var result *PurchaseResult

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		// Truncated to the store's timestamp precision so the shared
		// draw date matches what later batch lookups read back.
		purchaseDate := time.Now().UTC().Truncate(time.Microsecond)
		drawDate := purchaseDate.AddDate(0, 0, game.DurationDays)

		rec := &transactions.Transaction{
			ID:          token.Transaction(),
			UserID:      userID,
			Type:        transactions.TypeGamePurchase,
			Status:      transactions.StatusCompleted,
			Amount:      total,
			Description: fmt.Sprintf("purchase of %d ticket(s) for game %q", qty, game.Name),
		}

		minted := make([]ticketrepo.Ticket, 0, qty)

		err = s.runTx(ctx, func(tx *sql.Tx) error {
			err := s.users.Exists(tx, userID)
			if err != nil {
				return err
			}

			balance, err := s.users.LockAndGetBalance(tx, userID)
			if err != nil {
				return err
			}

			err = s.users.DecreaseBalance(tx, userID, total)
			if err != nil {
				return err
			}

			err = s.txns.Insert(tx, rec)
			if err != nil {
				return err
			}

			for i := 0; i < qty; i++ {
				t := ticketrepo.Ticket{
					UserID:        userID,
					GameID:        gameID,
					Code:          token.TicketCode(),
					TransactionID: rec.ID,
					PurchaseDate:  purchaseDate,
					DrawDate:      drawDate,
					Status:        ticketrepo.StatusActive,
				}

				err = s.tickets.Insert(tx, &t)
				if err != nil {
					return err
				}

				minted = append(minted, t)
			}

			result = &PurchaseResult{
				TransactionID: rec.ID,
				Balance:       balance.Sub(total),
				Tickets:       minted,
			}

			return nil
		})
		if errors.Is(err, transactions.ErrDuplicateTransaction) ||
			errors.Is(err, ticketrepo.ErrDuplicateCode) {
			continue // regenerate all tokens and retry
		}

		break
	}
	if err != nil {
		return nil, fmt.Errorf("purchase tickets: %w", err)
	}

	return result, nil
}
