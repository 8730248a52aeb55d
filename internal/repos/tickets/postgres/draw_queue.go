package tickets

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"spinbank/internal/repos/tickets"
)

// NextDue claims one active draw-game ticket whose draw_date has passed.
// SKIP LOCKED keeps competing workers off rows another worker already holds.
func (r *ticketsRepo) NextDue(tx *sql.Tx, now time.Time) (*tickets.Ticket, error) {
	var t tickets.Ticket

	err := tx.QueryRow(`
		SELECT t.id, t.user_id, t.game_id, t.code, t.transaction_id,
		       t.purchase_date, t.draw_date, t.status, t.prize_won, t.created_at
		FROM tickets t
		JOIN games g ON g.id = t.game_id
		WHERE t.status = 'active'
		  AND t.draw_date <= $1
		  AND g.kind = 'draw'
		ORDER BY t.draw_date
		LIMIT 1
		FOR UPDATE OF t SKIP LOCKED
	`, now).Scan(&t.ID, &t.UserID, &t.GameID, &t.Code, &t.TransactionID,
		&t.PurchaseDate, &t.DrawDate, &t.Status, &t.PrizeWon, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("next due ticket: %w", err)
	}

	return &t, nil
}

// LockBatch locks every still-active ticket of one draw batch. The FOR UPDATE
// re-evaluates the status predicate after any lock wait, so tickets settled by
// a competing worker drop out and the caller may get an empty batch.
func (r *ticketsRepo) LockBatch(tx *sql.Tx, gameID uint64, drawDate time.Time) ([]tickets.Ticket, error) {
	rows, err := tx.Query(`
		SELECT id, user_id, game_id, code, transaction_id,
		       purchase_date, draw_date, status, prize_won, created_at
		FROM tickets
		WHERE game_id = $1
		  AND draw_date = $2
		  AND status = 'active'
		ORDER BY id
		FOR UPDATE
	`, gameID, drawDate)
	if err != nil {
		return nil, fmt.Errorf("lock ticket batch: %w", err)
	}
	defer rows.Close()

	var out []tickets.Ticket

	for rows.Next() {
		var t tickets.Ticket

		err = rows.Scan(&t.ID, &t.UserID, &t.GameID, &t.Code, &t.TransactionID,
			&t.PurchaseDate, &t.DrawDate, &t.Status, &t.PrizeWon, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}

		out = append(out, t)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}

	return out, nil
}

func (r *ticketsRepo) Settle(tx *sql.Tx, ticketID uint64, status tickets.Status, prize decimal.NullDecimal) error {
	res, err := tx.Exec(`
		UPDATE tickets
		SET status = $2, prize_won = $3
		WHERE id = $1
		  AND status = 'active'
	`, ticketID, status, prize)
	if err != nil {
		return fmt.Errorf("settle ticket: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("settle ticket %d: not active", ticketID)
	}

	return nil
}
