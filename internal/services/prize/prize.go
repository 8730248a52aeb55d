// Package prize runs the wheel game: one spin draws a position uniformly
// from the game's prize list and credits the prize amount, if any.
package prize

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"spinbank/internal/infra/pgutils"
	"spinbank/internal/repos/games"
	pggames "spinbank/internal/repos/games/postgres"
	"spinbank/internal/repos/transactions"
	pgtransactions "spinbank/internal/repos/transactions/postgres"
	"spinbank/internal/repos/users"
	pgusers "spinbank/internal/repos/users/postgres"
	"spinbank/internal/token"
)

var ErrNotSpinnable = errors.New("game does not support spins")
var ErrNoPrizes = errors.New("game has no prize list")

const maxTokenAttempts = 3

type Result struct {
	Position int
	Amount   decimal.Decimal
	Balance  decimal.Decimal
}

type Service struct {
	users users.Users
	txns  transactions.Transactions
	games games.Games
	runTx func(ctx context.Context, fn func(*sql.Tx) error) error

	// pick draws a uniform index in [0,n); swapped out in tests.
	pick func(n int) int
}

func New(db *sql.DB) *Service {
	return &Service{
		users: pgusers.New(db),
		txns:  pgtransactions.New(db),
		games: pggames.New(db),
		runTx: func(ctx context.Context, fn func(*sql.Tx) error) error {
			return pgutils.WithTx(ctx, db, fn)
		},
		pick: rand.Intn,
	}
}

// Spin draws one prize. Every position is equally likely regardless of its
// amount. A zero-amount position is a losing spin: nothing is credited and
// no transaction row is written.
func (s *Service) Spin(ctx context.Context, userID, gameID uint64) (*Result, error) {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.Kind != games.KindWheel {
		return nil, ErrNotSpinnable
	}

	if !game.Active {
		return nil, games.ErrGameNotActive
	}

	if len(game.Prizes) == 0 {
		return nil, ErrNoPrizes
	}

	won := game.Prizes[s.pick(len(game.Prizes))]

	if !won.Amount.IsPositive() {
		balance, err := s.users.GetBalance(ctx, userID)
		if err != nil {
			return nil, err
		}

		return &Result{Position: won.Position, Amount: decimal.Zero, Balance: balance}, nil
	}

	var newBalance decimal.Decimal

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		rec := &transactions.Transaction{
			ID:          token.Transaction(),
			UserID:      userID,
			Type:        transactions.TypePrizeWon,
			Status:      transactions.StatusCompleted,
			Amount:      won.Amount,
			Description: fmt.Sprintf("wheel prize, game %q position %d", game.Name, won.Position),
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

			err = s.users.IncreaseBalance(tx, userID, won.Amount)
			if err != nil {
				return err
			}

			err = s.txns.Insert(tx, rec)
			if err != nil {
				return err
			}

			newBalance = balance.Add(won.Amount)

			return nil
		})
		if errors.Is(err, transactions.ErrDuplicateTransaction) {
			continue
		}

		break
	}
	if err != nil {
		return nil, fmt.Errorf("spin: %w", err)
	}

	return &Result{Position: won.Position, Amount: won.Amount, Balance: newBalance}, nil
}
