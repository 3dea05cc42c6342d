package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/internal/outcome-projector/cache"
	"github.com/radieske/wager-settlement-core/internal/outcome-projector/consumer"
	"github.com/radieske/wager-settlement-core/internal/outcome-projector/pubsub"
	"github.com/radieske/wager-settlement-core/internal/outcome-projector/repository"
	sharedcache "github.com/radieske/wager-settlement-core/internal/shared/cache"
	"github.com/radieske/wager-settlement-core/internal/shared/config"
	"github.com/radieske/wager-settlement-core/internal/shared/db"
	"github.com/radieske/wager-settlement-core/internal/shared/kafka"
	"github.com/radieske/wager-settlement-core/internal/shared/logger"
	"github.com/radieske/wager-settlement-core/internal/shared/metrics"
	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

func main() {
	cfg := config.LoadFor("outcome-projector")
	log, err := logger.New("outcome-projector", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.EnsureSchema(ctx, pg, repository.Schema...); err != nil {
		log.Fatal("outcome schema", zap.Error(err))
	}

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	rcache := cache.NewRedisCache(redisClient, 24*time.Hour)
	repo := repository.NewPostgresRepo(pg)

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetResolved, "outcome-projector")
	defer reader.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "outcome_proj_messages_consumed_total", Help: "mensagens consumidas"})
	cached := prometheus.NewCounter(prometheus.CounterOpts{Name: "outcome_proj_cache_sets_total", Help: "sets no cache"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "outcome_proj_db_writes_total", Help: "resultados novos gravados"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "outcome_proj_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, cached, persist, errorsBy)

	broadcaster := pubsub.NewRedisBroadcaster(redisClient)
	broadcast := func(ev events.BetResolved) {
		b, _ := json.Marshal(pubsub.OutcomeUpdate{Game: ev.Game, Player: ev.Player, Payload: ev})

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		if err := broadcaster.Publish(ctx, cfg.RedisPubSubChannel, b); err != nil {
			log.Warn("ws broadcast publish failed", zap.Error(err))
		}
	}

	proc := &consumer.Processor{
		Log:            log,
		Reader:         reader,
		Repo:           repo,
		Cache:          rcache,
		OnConsumed:     func() { consumed.Inc() },
		OnCached:       func() { cached.Inc() },
		OnPersist:      func() { persist.Inc() },
		OnError:        func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
		OnAfterPersist: broadcast,
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Checks(map[string]metrics.HealthFunc{
		"pg":    pg.PingContext,
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}))
	defer metricsSrv.Close()

	log.Info("outcome-projector started", zap.String("consume", cfg.TopicBetResolved))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("outcome-projector stopped")
}
