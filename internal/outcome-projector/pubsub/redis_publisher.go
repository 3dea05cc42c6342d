package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.r.Publish(ctx, channel, payload).Err()
}

// OutcomeUpdate é o envelope que o WS do outcome-service repassa aos clientes
type OutcomeUpdate struct {
	Game    string `json:"game"`
	Player  string `json:"player"`
	Payload any    `json:"payload"`
}
