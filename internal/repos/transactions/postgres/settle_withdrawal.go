package transactions

import (
	"database/sql"
	"fmt"

	"spinbank/internal/repos/transactions"
)

// SettleWithdrawal moves a pending withdrawal to a terminal status.
// The status guard makes the transition happen at most once.
func (r *transactionsRepo) SettleWithdrawal(tx *sql.Tx, id string, status transactions.Status) error {
	res, err := tx.Exec(`
		UPDATE transactions
		SET status = $2
		WHERE id = $1
		  AND type = 'withdrawal'
		  AND status = 'pending'
	`, id, status)
	if err != nil {
		return fmt.Errorf("settle withdrawal: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return transactions.ErrNotPending
	}

	return nil
}
