package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/radieske/wager-settlement-core/internal/outcome-service/dto"
	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

type ReadRepo struct {
	DB *sql.DB
}

const selectOutcome = `
	SELECT game, request_id, player, stake_wei::text, payout_wei::text, choice, outcome, won, result, resolved_at
	FROM bet_outcomes
`

func (r *ReadRepo) ListByPlayer(ctx context.Context, game, player string, limit int) ([]events.BetResolved, error) {
	return r.query(ctx, selectOutcome+`
		WHERE game = $1 AND lower(player) = lower($2)
		ORDER BY resolved_at DESC
		LIMIT $3`, game, player, limit)
}

func (r *ReadRepo) ListRecent(ctx context.Context, game string, limit int) ([]events.BetResolved, error) {
	return r.query(ctx, selectOutcome+`
		WHERE game = $1
		ORDER BY resolved_at DESC
		LIMIT $2`, game, limit)
}

func (r *ReadRepo) query(ctx context.Context, q string, args ...any) ([]events.BetResolved, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.BetResolved
	for rows.Next() {
		var e events.BetResolved
		var choice, outcome int64
		if err := rows.Scan(&e.Game, &e.RequestID, &e.Player, &e.StakeWei, &e.PayoutWei,
			&choice, &outcome, &e.Won, &e.Result, &e.Ts); err != nil {
			return nil, err
		}
		e.Choice, e.Outcome = uint64(choice), uint64(outcome)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Summary soma no banco; net = pago - apostado, em ether
func (r *ReadRepo) Summary(ctx context.Context, game, player string) (dto.PlayerSummary, error) {
	const q = `
		SELECT
		  COUNT(*),
		  COUNT(*) FILTER (WHERE result = 'won'),
		  COUNT(*) FILTER (WHERE result = 'lost'),
		  COUNT(*) FILTER (WHERE result IN ('refunded','stuck_refund')),
		  COALESCE(SUM(stake_wei), 0)::text,
		  COALESCE(SUM(payout_wei), 0)::text
		FROM bet_outcomes
		WHERE game = $1 AND lower(player) = lower($2)
	`
	s := dto.PlayerSummary{Game: game, Player: player}
	var staked, paid string
	if err := r.DB.QueryRowContext(ctx, q, game, player).
		Scan(&s.Games, &s.Wins, &s.Losses, &s.Refunds, &staked, &paid); err != nil {
		return dto.PlayerSummary{}, err
	}

	st, err := decimal.NewFromString(staked)
	if err != nil {
		return dto.PlayerSummary{}, fmt.Errorf("sum stake: %w", err)
	}
	pd, err := decimal.NewFromString(paid)
	if err != nil {
		return dto.PlayerSummary{}, fmt.Errorf("sum payout: %w", err)
	}
	s.TotalStaked = st.Shift(-18).String()
	s.TotalPaid = pd.Shift(-18).String()
	s.Net = pd.Sub(st).Shift(-18).String()
	return s, nil
}
