package games

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrGameNotFound = errors.New("game not found")
var ErrGameNotActive = errors.New("game is not active")

type Kind string

const (
	KindWheel Kind = "wheel"
	KindDraw  Kind = "draw"
)

// Prize is one slot of a wheel game's prize list, ordered by position.
type Prize struct {
	Position int
	Amount   decimal.Decimal
}

type Game struct {
	ID           uint64
	Name         string
	Kind         Kind
	Price        decimal.Decimal
	PrizePool    decimal.Decimal
	DurationDays int
	SpinsPerDay  int
	Active       bool
	CreatedAt    time.Time
	Prizes       []Prize
}

type Games interface {
	GetByID(ctx context.Context, gameID uint64) (*Game, error)
	ListActive(ctx context.Context) ([]Game, error)
}
