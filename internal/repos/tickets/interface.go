package tickets

import (
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrDuplicateCode = errors.New("duplicate ticket code")

type Status string

const (
	StatusActive Status = "active"
	StatusWon    Status = "won"
	StatusLost   Status = "lost"
)

type Ticket struct {
	ID            uint64
	UserID        uint64
	GameID        uint64
	Code          string
	TransactionID string
	PurchaseDate  time.Time
	DrawDate      time.Time
	Status        Status
	PrizeWon      decimal.NullDecimal
	CreatedAt     time.Time
}

type Tickets interface {
	Insert(tx *sql.Tx, t *Ticket) error
	NextDue(tx *sql.Tx, now time.Time) (*Ticket, error)
	LockBatch(tx *sql.Tx, gameID uint64, drawDate time.Time) ([]Ticket, error)
	Settle(tx *sql.Tx, ticketID uint64, status Status, prize decimal.NullDecimal) error
}
