package tickets

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"spinbank/internal/repos/tickets"
)

var _ tickets.Tickets = (*ticketsRepo)(nil)

type ticketsRepo struct{ db *sql.DB }

func New(db *sql.DB) *ticketsRepo {
	return &ticketsRepo{db: db}
}

func (r *ticketsRepo) Insert(tx *sql.Tx, t *tickets.Ticket) error {
	err := tx.QueryRow(`
		INSERT INTO tickets (user_id, game_id, code, transaction_id, purchase_date, draw_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, t.UserID, t.GameID, t.Code, t.TransactionID,
		t.PurchaseDate, t.DrawDate, t.Status,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return tickets.ErrDuplicateCode
			}
		}

		return fmt.Errorf("insert ticket: %w", err)
	}

	return nil
}
