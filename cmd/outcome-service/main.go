package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	ocache "github.com/radieske/wager-settlement-core/internal/outcome-service/cache"
	httpapi "github.com/radieske/wager-settlement-core/internal/outcome-service/http"
	"github.com/radieske/wager-settlement-core/internal/outcome-service/repo"
	"github.com/radieske/wager-settlement-core/internal/outcome-service/ws"
	"github.com/radieske/wager-settlement-core/internal/shared/cache"
	"github.com/radieske/wager-settlement-core/internal/shared/config"
	"github.com/radieske/wager-settlement-core/internal/shared/db"
	"github.com/radieske/wager-settlement-core/internal/shared/logger"
	"github.com/radieske/wager-settlement-core/internal/shared/metrics"
)

func main() {
	// carrega config
	cfg := config.LoadFor("outcome-service")

	// inicia logger
	log, err := logger.New("outcome-service", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", "outcome-service"), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// conecta com db Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	// conecta com cache Redis
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	// hub do feed ao vivo, alimentado pelo pub/sub do projector
	hub := ws.NewHub(log, func(*http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, log, redisClient, cfg.RedisPubSubChannel, hub)

	api := &httpapi.API{
		Log:      log,
		ReadRepo: &repo.ReadRepo{DB: pg},
		Cache:    ocache.New(redisClient),
		WS:       hub.HandleWS,
	}
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// healthz: valida dependências críticas
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Checks(map[string]metrics.HealthFunc{
		"postgres": pg.PingContext,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}))

	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api srv", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
