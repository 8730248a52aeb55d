package users

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spinbank/internal/infra/pgtestutil"
)

func TestUsers_IncreaseBalance_Basic(t *testing.T) {
	t.Parallel()

	type seedFn func(db *sql.DB, t *testing.T)
	type tc struct {
		name        string
		seed        seedFn
		userID      uint64
		amount      string
		wantBalance string
	}

	upsert := func(db *sql.DB, id uint64, bal string, t *testing.T) {
		_, err := db.Exec(`
			INSERT INTO users (id, balance) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance
		`, id, bal)
		if err != nil {
			t.Fatalf("seed upsert user(%d): %v", id, err)
		}
	}

	tests := []tc{
		{
			name:        "increase_from_zero",
			seed:        func(db *sql.DB, t *testing.T) { upsert(db, 101, "0", t) },
			userID:      101,
			amount:      "2.50",
			wantBalance: "2.50",
		},
		{
			name:        "increase_from_positive",
			seed:        func(db *sql.DB, t *testing.T) { upsert(db, 102, "10.00", t) },
			userID:      102,
			amount:      "5.00",
			wantBalance: "15.00",
		},
		{
			name:        "increase_large_balance",
			seed:        func(db *sql.DB, t *testing.T) { upsert(db, 103, "9000000000000.00", t) },
			userID:      103,
			amount:      "1.23",
			wantBalance: "9000000000001.23",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			if tt.seed != nil {
				tt.seed(db, t)
			}

			repo := New(db)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer func() { _ = tx.Rollback() }()

			err = repo.IncreaseBalance(tx, tt.userID, decimal.RequireFromString(tt.amount))
			if err != nil {
				t.Fatalf("increase balance: %v", err)
			}

			err = tx.Commit()
			if err != nil {
				t.Fatalf("commit: %v", err)
			}

			got, err := repo.GetBalance(ctx, tt.userID)
			if err != nil {
				t.Fatalf("get balance: %v", err)
			}
			want := decimal.RequireFromString(tt.wantBalance)
			if !got.Equal(want) {
				t.Fatalf("balance mismatch: want %s, got %s", want, got)
			}
		})
	}
}

func TestUsers_IncreaseBalance_ConcurrentAdds(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	_, err := db.Exec(`INSERT INTO users (id, balance) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, 777, "0")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	repo := New(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errCh := make(chan error, 2)
	doneCh := make(chan struct{}, 2)

	worker := func(amount string) {
		defer func() { doneCh <- struct{}{} }()

		tx, e := db.BeginTx(ctx, nil)
		if e != nil {
			errCh <- e
			return
		}
		defer func() { _ = tx.Rollback() }()

		e = repo.IncreaseBalance(tx, 777, decimal.RequireFromString(amount))
		if e != nil {
			errCh <- e
			return
		}
		e = tx.Commit()
		if e != nil {
			errCh <- e
			return
		}
	}

	go worker("10.00")
	go worker("25.00")

	for i := 0; i < 2; i++ {
		select {
		case e := <-errCh:
			if e != nil {
				t.Fatalf("worker error: %v", e)
			}
		case <-doneCh:
			// ok
		case <-ctx.Done():
			t.Fatalf("timeout waiting for workers")
		}
	}

	got, err := repo.GetBalance(ctx, 777)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	want := decimal.RequireFromString("35.00")
	if !got.Equal(want) {
		t.Fatalf("final balance mismatch: want %s, got %s", want, got)
	}
}
