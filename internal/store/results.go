// Package store records finished games in Postgres. The service runs fine
// without it; a nil *Results is a no-op recorder.
package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/timopomer/splendor-ai/internal/room"
)

//go:embed schema.sql
var schema string

const recordTimeout = 5 * time.Second

// Results writes one row per finished game plus a row per seat.
type Results struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

// Open connects, pings, and applies the schema.
func Open(ctx context.Context, databaseURL string, log *logrus.Logger) (*Results, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect results db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping results db: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply results schema: %w", err)
	}
	return &Results{pool: pool, log: log}, nil
}

func (r *Results) Close() {
	if r != nil && r.pool != nil {
		r.pool.Close()
	}
}

// RecordGame persists one finished game. It is shaped to sit behind the
// room manager's game-end hook: it never blocks a table and a write
// failure is logged, not surfaced.
func (r *Results) RecordGame(res room.GameResult) {
	if r == nil || r.pool == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.insert(ctx, res); err != nil {
		r.log.WithFields(logrus.Fields{
			"game": res.GameID, "room": res.RoomCode,
		}).WithError(err).Error("failed to record game result")
	}
}

func (r *Results) insert(ctx context.Context, res room.GameResult) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO games (game_id, room_code, num_players, winner_seat, turns, finished_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			res.GameID, res.RoomCode, res.NumPlayers, res.Winner, res.Turns, res.FinishedAt)
		if err != nil {
			return err
		}
		for _, s := range res.Seats {
			_, err := tx.Exec(ctx,
				`INSERT INTO game_seats (game_id, seat, kind, name, policy, points, cards, nobles)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				res.GameID, s.Seat, string(s.Kind), s.Name, s.PolicyID, s.Points, s.Cards, s.Nobles)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
