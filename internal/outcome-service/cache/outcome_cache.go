package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	pcache "github.com/radieske/wager-settlement-core/internal/outcome-projector/cache"
	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

// Cache lê o que o outcome-projector grava no Redis
type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

func (c *Cache) Latest(ctx context.Context, game, player string) (events.BetResolved, bool, error) {
	var e events.BetResolved
	b, err := c.R.Get(ctx, pcache.LatestKey(game, player)).Bytes()
	if errors.Is(err, redis.Nil) {
		return e, false, nil
	}
	if err != nil {
		return e, false, err
	}
	return e, true, json.Unmarshal(b, &e)
}

// Recent devolve no máximo limit itens, o mais novo primeiro. Lista vazia = miss.
func (c *Cache) Recent(ctx context.Context, game string, limit int) ([]events.BetResolved, error) {
	raw, err := c.R.LRange(ctx, pcache.RecentKey(game), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]events.BetResolved, 0, len(raw))
	for _, s := range raw {
		var e events.BetResolved
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
