package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	mrand "math/rand/v2"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/internal/oracle-simulator/fulfill"
	"github.com/radieske/wager-settlement-core/internal/oracle-simulator/worker"
	"github.com/radieske/wager-settlement-core/internal/shared/config"
	"github.com/radieske/wager-settlement-core/internal/shared/kafka"
	"github.com/radieske/wager-settlement-core/internal/shared/logger"
	"github.com/radieske/wager-settlement-core/internal/shared/metrics"
)

func main() {
	cfg := config.LoadFor("oracle-simulator")
	log, err := logger.New("oracle-simulator", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ocfg, err := config.LoadOracle()
	if err != nil {
		log.Fatal("oracle config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Kafka consumer: pedidos de aleatoriedade do settlement
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRandomnessRequested, ocfg.GroupID)
	defer reader.Close()

	// atraso uniforme em [MinDelay, MaxDelay]
	delay := func() time.Duration {
		spread := ocfg.MaxDelay - ocfg.MinDelay
		if spread <= 0 {
			return ocfg.MinDelay
		}
		return ocfg.MinDelay + mrand.N(spread)
	}

	w := &worker.Worker{
		Log:     log,
		Source:  reader,
		Fulfill: fulfill.New(cfg.SettlementURL, ocfg.FulfillRoute, ocfg.Token),
		Metrics: worker.NewMetrics(),
		Entropy: rand.Reader,
		Delay:   delay,
		Drop:    func() bool { return ocfg.DropRate > 0 && mrand.Float64() < ocfg.DropRate },
		Retries: ocfg.Retries,
		Backoff: 300 * time.Millisecond,
		Sleep:   worker.SleepCtx,
		Now:     time.Now,
	}
	if cfg.TopicRandomnessRequestedDLQ != "" {
		dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRandomnessRequestedDLQ)
		defer dlq.Close()
		w.DLQ = dlq
	}
	w.Metrics.MustRegister(prometheus.DefaultRegisterer)

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Checks(map[string]metrics.HealthFunc{
		"kafka": func(ctx context.Context) error { return kafka.Ping(ctx, cfg.KafkaBrokers) },
	}))
	defer metricsSrv.Close()

	log.Info("oracle-simulator started",
		zap.String("consume", cfg.TopicRandomnessRequested),
		zap.String("settlement", cfg.SettlementURL),
		zap.Duration("min_delay", ocfg.MinDelay),
		zap.Duration("max_delay", ocfg.MaxDelay),
		zap.Float64("drop_rate", ocfg.DropRate),
	)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped", zap.Error(err))
	}
}
