package users

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"

	"spinbank/internal/infra/pgtestutil"
)

func TestUsers_GetBalance_TableDriven(t *testing.T) {
	t.Parallel()

	type tc struct {
		name        string
		seed        func(db *sql.DB, t *testing.T)
		userID      uint64
		wantBalance string
		wantErr     bool
	}

	tests := []tc{
		{
			name: "ok_user_exists",
			seed: func(db *sql.DB, t *testing.T) {
				_, err := db.Exec(`INSERT INTO users (id, balance) VALUES (1, 10.00)`)
				if err != nil {
					t.Fatalf("seed user: %v", err)
				}
			},
			userID:      1,
			wantBalance: "10.00",
			wantErr:     false,
		},
		{
			name:        "error_user_not_found",
			seed:        nil, // no seed -> user missing
			userID:      999,
			wantBalance: "0",
			wantErr:     true,
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

			ctx := context.Background()

			gotBalance, err := repo.GetBalance(ctx, tt.userID)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got nil (balance=%s)", gotBalance)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := decimal.RequireFromString(tt.wantBalance)
			if !gotBalance.Equal(want) {
				t.Fatalf("balance: want %s, got %s", want, gotBalance)
			}
		})
	}
}
