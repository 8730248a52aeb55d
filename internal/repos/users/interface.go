package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrUserNotFound = errors.New("user not found")

type Users interface {
	Exists(tx *sql.Tx, userID uint64) error
	GetBalance(ctx context.Context, userID uint64) (decimal.Decimal, error)
	LockAndGetBalance(tx *sql.Tx, userID uint64) (decimal.Decimal, error)
	IncreaseBalance(tx *sql.Tx, userID uint64, amount decimal.Decimal) error
	DecreaseBalance(tx *sql.Tx, userID uint64, amount decimal.Decimal) error
}
