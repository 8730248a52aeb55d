package games

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"spinbank/internal/repos/games"
)

var _ games.Games = (*gamesRepo)(nil)

type gamesRepo struct{ db *sql.DB }

func New(db *sql.DB) *gamesRepo {
	return &gamesRepo{db: db}
}

func (r *gamesRepo) GetByID(ctx context.Context, gameID uint64) (*games.Game, error) {
	var g games.Game

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, kind, price, prize_pool, duration_days, spins_per_day, active, created_at
		FROM games
		WHERE id = $1
	`, gameID).Scan(&g.ID, &g.Name, &g.Kind, &g.Price, &g.PrizePool,
		&g.DurationDays, &g.SpinsPerDay, &g.Active, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, games.ErrGameNotFound
		}

		return nil, fmt.Errorf("get game: %w", err)
	}

	g.Prizes, err = r.loadPrizes(ctx, g.ID)
	if err != nil {
		return nil, err
	}

	return &g, nil
}

func (r *gamesRepo) ListActive(ctx context.Context) ([]games.Game, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, price, prize_pool, duration_days, spins_per_day, active, created_at
		FROM games
		WHERE active
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	defer rows.Close()

	var out []games.Game

	for rows.Next() {
		var g games.Game

		err = rows.Scan(&g.ID, &g.Name, &g.Kind, &g.Price, &g.PrizePool,
			&g.DurationDays, &g.SpinsPerDay, &g.Active, &g.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}

		out = append(out, g)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}

	for i := range out {
		out[i].Prizes, err = r.loadPrizes(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (r *gamesRepo) loadPrizes(ctx context.Context, gameID uint64) ([]games.Prize, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT position, amount
		FROM game_prizes
		WHERE game_id = $1
		ORDER BY position
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("load prizes: %w", err)
	}
	defer rows.Close()

	var out []games.Prize

	for rows.Next() {
		var p games.Prize

		err = rows.Scan(&p.Position, &p.Amount)
		if err != nil {
			return nil, fmt.Errorf("scan prize: %w", err)
		}

		out = append(out, p)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate prizes: %w", err)
	}

	return out, nil
}
