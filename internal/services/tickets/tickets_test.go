package tickets

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinbank/internal/infra/pgtestutil"
	"spinbank/internal/repos/games"
	ticketrepo "spinbank/internal/repos/tickets"
	"spinbank/internal/repos/users"
)

func seedUser(t *testing.T, db *sql.DB, balance string) uint64 {
	t.Helper()

	var id uint64
	err := db.QueryRow(`INSERT INTO users (balance) VALUES ($1) RETURNING id`, balance).Scan(&id)
	require.NoError(t, err, "seed user")

	return id
}

func seedGame(t *testing.T, db *sql.DB, price string, durationDays int, active bool) uint64 {
	t.Helper()

	var id uint64
	err := db.QueryRow(`
		INSERT INTO games (name, kind, price, prize_pool, duration_days, active)
		VALUES ('Weekly Draw', 'draw', $1, 100.00, $2, $3)
		RETURNING id
	`, price, durationDays, active).Scan(&id)
	require.NoError(t, err, "seed game")

	return id
}

func TestPurchase_MintsTicketsAtomically(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	userID := seedUser(t, db, "20.00")
	gameID := seedGame(t, db, "5.00", 7, true)

	svc := New(db)

	result, err := svc.Purchase(context.Background(), userID, gameID, 3)
	require.NoError(t, err)

	assert.True(t, result.Balance.Equal(decimal.RequireFromString("5.00")),
		"balance after 3x5.00: %s", result.Balance)
	require.Len(t, result.Tickets, 3)

	drawDate := result.Tickets[0].DrawDate
	codes := map[string]bool{}
	for _, tk := range result.Tickets {
		assert.True(t, strings.HasPrefix(tk.Code, "tkt_"), "code %q", tk.Code)
		assert.Equal(t, ticketrepo.StatusActive, tk.Status)
		assert.Equal(t, result.TransactionID, tk.TransactionID)
		assert.True(t, tk.DrawDate.Equal(drawDate), "all tickets share one draw date")
		codes[tk.Code] = true
	}
	assert.Len(t, codes, 3, "codes must be distinct")

	var txnCount int
	err = db.QueryRow(`
		SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND type = 'game_purchase'
	`, userID).Scan(&txnCount)
	require.NoError(t, err)
	assert.Equal(t, 1, txnCount, "one purchase transaction for the whole batch")

	var amount decimal.Decimal
	err = db.QueryRow(`SELECT amount FROM transactions WHERE id = $1`, result.TransactionID).Scan(&amount)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("15.00")))
}

func TestPurchase_InsufficientFundsChangesNothing(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	userID := seedUser(t, db, "4.00")
	gameID := seedGame(t, db, "5.00", 7, true)

	svc := New(db)

	_, err := svc.Purchase(context.Background(), userID, gameID, 1)
	assert.ErrorIs(t, err, users.ErrInsufficientFunds)

	var balance decimal.Decimal
	require.NoError(t, db.QueryRow(`SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance))
	assert.True(t, balance.Equal(decimal.RequireFromString("4.00")))

	var tickets, txns int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tickets`).Scan(&tickets))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&txns))
	assert.Zero(t, tickets, "no tickets on a failed purchase")
	assert.Zero(t, txns, "no transaction row on a failed purchase")
}

func TestPurchase_Validation(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	userID := seedUser(t, db, "100.00")
	activeID := seedGame(t, db, "1.00", 7, true)
	inactiveID := seedGame(t, db, "1.00", 7, false)

	svc := New(db)

	_, err := svc.Purchase(context.Background(), userID, activeID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Purchase(context.Background(), userID, activeID, 101)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Purchase(context.Background(), userID, 424242, 1)
	assert.ErrorIs(t, err, games.ErrGameNotFound)

	_, err = svc.Purchase(context.Background(), userID, inactiveID, 1)
	assert.ErrorIs(t, err, games.ErrGameNotActive)

	_, err = svc.Purchase(context.Background(), 999_999, activeID, 1)
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}
