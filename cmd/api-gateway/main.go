package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	gateway "github.com/radieske/wager-settlement-core/internal/api-gateway"
	"github.com/radieske/wager-settlement-core/internal/shared/config"
	"github.com/radieske/wager-settlement-core/internal/shared/logger"
	"github.com/radieske/wager-settlement-core/internal/shared/metrics"
)

func main() {
	cfg := config.LoadFor("api-gateway")
	log, err := logger.New("api-gateway", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, err := gateway.New(log, gateway.Targets{
		Settlement: cfg.SettlementURL,
		Wallet:     cfg.WalletURL,
		Outcome:    cfg.OutcomeURL,
	})
	if err != nil {
		log.Fatal("gateway routes", zap.Error(err))
	}
	prometheus.MustRegister(gateway.Requests)
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, nil)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("api-gateway listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("gateway failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
