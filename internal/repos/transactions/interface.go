package transactions

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrDuplicateTransaction = errors.New("duplicate transaction")
var ErrNotPending = errors.New("transaction is not pending")

type Type string

const (
	TypeDeposit      Type = "deposit"
	TypeWithdrawal   Type = "withdrawal"
	TypeGamePurchase Type = "game_purchase"
	TypePrizeWon     Type = "prize_won"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Transaction is one row of the append-only money-movement log.
// Rows are never updated after insert, except for the single
// pending -> completed/failed transition of a withdrawal.
type Transaction struct {
	ID          string
	UserID      uint64
	Type        Type
	Status      Status
	Amount      decimal.Decimal
	Description string
	Destination string
	SettleAt    *time.Time
	CreatedAt   time.Time
}

type Transactions interface {
	Insert(tx *sql.Tx, rec *Transaction) error
	ListByUser(ctx context.Context, userID uint64, limit int) ([]Transaction, error)
	SettleWithdrawal(tx *sql.Tx, id string, status Status) error
	NextDueWithdrawal(tx *sql.Tx, now time.Time) (*Transaction, error)
}
