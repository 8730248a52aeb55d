// Package draws settles draw-game tickets once their draw date passes.
// Tickets minted by one purchase share a draw date and form one batch; a
// single winner per batch takes the game's prize pool, the rest lose.
package draws

import (
	"context"
	cryptorand "crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
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

type Service struct {
	users   users.Users
	txns    transactions.Transactions
	games   games.Games
	tickets ticketrepo.Tickets
	now     func() time.Time
	runTx   func(ctx context.Context, fn func(*sql.Tx) error) error
}

func New(db *sql.DB) *Service {
	return &Service{
		users:   pgusers.New(db),
		txns:    pgtransactions.New(db),
		games:   pggames.New(db),
		tickets: pgtickets.New(db),
		now:     func() time.Time { return time.Now().UTC() },
		runTx: func(ctx context.Context, fn func(*sql.Tx) error) error {
			return pgutils.WithTx(ctx, db, fn)
		},
	}
}

// SettleDueDraws settles due ticket batches, one batch per database
// transaction, until none remain. It returns the number of tickets settled.
func (s *Service) SettleDueDraws(ctx context.Context) (int, error) {
	settled := 0

	for {
		var done bool

		err := s.runTx(ctx, func(tx *sql.Tx) error {
			claimed, err := s.tickets.NextDue(tx, s.now())
			if err != nil {
				return err
			}

			if claimed == nil {
				done = true
				return nil
			}

			batch, err := s.tickets.LockBatch(tx, claimed.GameID, claimed.DrawDate)
			if err != nil {
				return err
			}

			// A competing worker may have settled the batch while we
			// waited for the locks.
			if len(batch) == 0 {
				return nil
			}

			n, err := s.settleBatch(ctx, tx, claimed.GameID, batch)
			if err != nil {
				return err
			}

			settled += n

			return nil
		})
		if err != nil {
			return settled, fmt.Errorf("settle due draws: %w", err)
		}

		if done {
			return settled, nil
		}
	}
}

func (s *Service) settleBatch(ctx context.Context, tx *sql.Tx, gameID uint64, batch []ticketrepo.Ticket) (int, error) {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return 0, err
	}

	idx, err := winnerIndex(len(batch))
	if err != nil {
		return 0, err
	}

	winner := batch[idx]
	prize := game.PrizePool

	if prize.IsPositive() {
		_, err = s.users.LockAndGetBalance(tx, winner.UserID)
		if err != nil {
			return 0, err
		}

		err = s.users.IncreaseBalance(tx, winner.UserID, prize)
		if err != nil {
			return 0, err
		}

		err = s.txns.Insert(tx, &transactions.Transaction{
			ID:          token.Transaction(),
			UserID:      winner.UserID,
			Type:        transactions.TypePrizeWon,
			Status:      transactions.StatusCompleted,
			Amount:      prize,
			Description: fmt.Sprintf("draw prize, game %q ticket %s", game.Name, winner.Code),
		})
		if err != nil {
			return 0, err
		}
	}

	for _, t := range batch {
		if t.ID == winner.ID {
			err = s.tickets.Settle(tx, t.ID, ticketrepo.StatusWon, decimal.NewNullDecimal(prize))
		} else {
			err = s.tickets.Settle(tx, t.ID, ticketrepo.StatusLost, decimal.NullDecimal{})
		}
		if err != nil {
			return 0, err
		}
	}

	return len(batch), nil
}

func winnerIndex(n int) (int, error) {
	v, err := cryptorand.Int(cryptorand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("draw winner: %w", err)
	}

	return int(v.Int64()), nil
}
