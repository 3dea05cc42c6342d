package repository

import (
	"context"
	"database/sql"

	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

// Schema do histórico. Valores em wei como NUMERIC para não perder precisão.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS bet_outcomes (
		game        TEXT NOT NULL,
		request_id  TEXT NOT NULL,
		player      TEXT NOT NULL,
		stake_wei   NUMERIC(78,0) NOT NULL,
		payout_wei  NUMERIC(78,0) NOT NULL,
		choice      BIGINT NOT NULL,
		outcome     BIGINT NOT NULL,
		won         BOOLEAN NOT NULL,
		result      TEXT NOT NULL,
		resolved_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (game, request_id)
	)`,
	`CREATE INDEX IF NOT EXISTS bet_outcomes_player_idx ON bet_outcomes (lower(player), resolved_at DESC)`,
}

// PostgresRepo persiste o histórico de apostas liquidadas
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// InsertOutcome ignora reentregas do Kafka: devolve false se o resultado já existia
func (r *PostgresRepo) InsertOutcome(ctx context.Context, e events.BetResolved) (bool, error) {
	const q = `
		INSERT INTO bet_outcomes
		  (game, request_id, player, stake_wei, payout_wei, choice, outcome, won, result, resolved_at)
		VALUES
		  ($1,$2,$3,$4::numeric,$5::numeric,$6,$7,$8,$9,$10)
		ON CONFLICT (game, request_id) DO NOTHING
	`
	res, err := r.DB.ExecContext(ctx, q,
		e.Game, e.RequestID, e.Player, e.StakeWei, e.PayoutWei,
		int64(e.Choice), int64(e.Outcome), e.Won, e.Result, e.Ts,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
