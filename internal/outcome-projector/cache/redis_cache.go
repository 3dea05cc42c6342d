package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

// RecentLimit é quantos resultados por jogo ficam na lista "recent"
const RecentLimit = 50

// RedisCache guarda o último resultado por jogador e os recentes por jogo
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// LatestKey e RecentKey são lidas também pelo outcome-service
func LatestKey(game, player string) string {
	return "outcome:latest:" + game + ":" + strings.ToLower(player)
}

func RecentKey(game string) string { return "outcome:recent:" + game }

// Store grava o último resultado do jogador e empurra na lista do jogo, numa pipeline só
func (r *RedisCache) Store(ctx context.Context, e events.BetResolved) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	pipe := r.Client.TxPipeline()
	pipe.Set(ctx, LatestKey(e.Game, e.Player), b, r.TTL)
	pipe.LPush(ctx, RecentKey(e.Game), b)
	pipe.LTrim(ctx, RecentKey(e.Game), 0, RecentLimit-1)
	_, err = pipe.Exec(ctx)
	return err
}
