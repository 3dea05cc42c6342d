package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/internal/settlement"
	shttp "github.com/radieske/wager-settlement-core/internal/settlement-service/http"
	smetrics "github.com/radieske/wager-settlement-core/internal/settlement-service/metrics"
	"github.com/radieske/wager-settlement-core/internal/settlement-service/monitor"
	"github.com/radieske/wager-settlement-core/internal/settlement-service/producer"
	"github.com/radieske/wager-settlement-core/internal/settlement-service/wallet"
	"github.com/radieske/wager-settlement-core/internal/shared/config"
	"github.com/radieske/wager-settlement-core/internal/shared/kafka"
	"github.com/radieske/wager-settlement-core/internal/shared/logger"
	"github.com/radieske/wager-settlement-core/internal/shared/metrics"
	"github.com/radieske/wager-settlement-core/internal/shared/money"
)

func main() {
	cfg := config.LoadFor("settlement-service")

	log, err := logger.New("settlement-service", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	scfg, err := config.LoadSettlement()
	if err != nil {
		log.Fatal("settlement config", zap.Error(err))
	}
	ownerAddr := common.HexToAddress(scfg.OwnerAddress)
	oracleAddr := common.HexToAddress(scfg.OracleAddress)

	log.Info("starting service",
		zap.String("service", "settlement-service"),
		zap.String("env", cfg.Env),
		zap.Strings("games", scfg.Games),
		zap.Duration("stuck_timeout", scfg.StuckTimeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Um writer por tópico; key = request_id
	requests := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRandomnessRequested)
	placed := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	resolved := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetResolved)
	house := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicHouseBalance)
	defer requests.Close()
	defer placed.Close()
	defer resolved.Close()
	defer house.Close()

	walletClient := wallet.New(cfg.WalletURL)
	publisher := producer.NewKafkaPublisher(placed, resolved, house)
	randomness := producer.NewRandomnessRequester(requests)

	collectors := smetrics.New()
	collectors.MustRegister(prometheus.DefaultRegisterer)

	oracleCfg := settlement.OracleConfig{
		KeyHash:              common.HexToHash(scfg.KeyHash),
		SubscriptionID:       scfg.SubscriptionID,
		CallbackGasLimit:     scfg.CallbackGasLimit,
		RequestConfirmations: scfg.RequestConfirmations,
		NumWords:             scfg.NumWords,
	}

	var engines []*settlement.Engine
	var sources []monitor.StuckSource
	for _, game := range scfg.Games {
		e, err := buildEngine(log, scfg, game, oracleCfg, ownerAddr, oracleAddr, randomness, walletClient, publisher, collectors)
		if err != nil {
			log.Fatal("engine init", zap.String("game", game), zap.Error(err))
		}
		engines = append(engines, e)
		sources = append(sources, e)
	}

	mon := &monitor.StuckMonitor{
		Log:      log,
		Sources:  sources,
		Interval: scfg.StuckScanInterval,
		OnScan: func(game string, stuck int) {
			collectors.StuckBets.WithLabelValues(game).Set(float64(stuck))
		},
	}
	go func() {
		if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("stuck monitor stopped", zap.Error(err))
		}
	}()

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Checks(map[string]metrics.HealthFunc{
		"kafka": func(ctx context.Context) error { return kafka.Ping(ctx, cfg.KafkaBrokers) },
	}))

	ids := shttp.Identities{
		Owner:       ownerAddr,
		Oracle:      oracleAddr,
		AdminToken:  scfg.AdminToken,
		OracleToken: scfg.OracleToken,
	}
	api := shttp.New(log, walletClient, ids, engines...)

	// Fundo inicial da casa (ambiente local): sai da carteira do owner como o POST /funds
	if seed, err := money.ParseEther(scfg.InitialHouseEth); err != nil {
		log.Fatal("INITIAL_HOUSE_FUNDS", zap.Error(err))
	} else if !seed.IsZero() {
		for _, e := range engines {
			if _, err := api.FundHouse(ctx, e.Game(), seed); err != nil {
				log.Warn("initial house funding skipped", zap.String("game", e.Game()), zap.Error(err))
			}
		}
	}

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort, // ex: 8083
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api srv", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}

func buildEngine(
	log *zap.Logger,
	scfg config.Settlement,
	game string,
	oracleCfg settlement.OracleConfig,
	owner, oracle common.Address,
	randomness settlement.RandomnessRequester,
	transfers settlement.FundsTransferer,
	publisher settlement.EventPublisher,
	collectors *smetrics.Collectors,
) (*settlement.Engine, error) {
	policy, err := settlement.PolicyByName(game)
	if err != nil {
		return nil, err
	}
	limits, err := scfg.Limits(game)
	if err != nil {
		return nil, err
	}
	minBet, err := money.ParseEther(limits.Min)
	if err != nil {
		return nil, fmt.Errorf("min bet: %w", err)
	}
	maxBet, err := money.ParseEther(limits.Max)
	if err != nil {
		return nil, fmt.Errorf("max bet: %w", err)
	}

	return settlement.NewEngine(log, policy,
		settlement.Config{MinBet: minBet, MaxBet: maxBet, StuckTimeout: scfg.StuckTimeout, Oracle: oracleCfg},
		settlement.NewAccessControl(owner, oracle),
		randomness,
		transfers,
		settlement.WithEventPublisher(publisher),
		settlement.WithHooks(collectors.Hooks()),
	)
}
