package metrics

import (
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/radieske/wager-settlement-core/internal/settlement"
)

// Collectors agrupa as métricas do settlement-service
type Collectors struct {
	BetsPlaced       *prometheus.CounterVec
	BetsResolved     *prometheus.CounterVec
	Rejections       *prometheus.CounterVec
	TransferFailures *prometheus.CounterVec
	HouseBalance     *prometheus.GaugeVec
	PendingBets      *prometheus.GaugeVec
	StuckBets        *prometheus.GaugeVec
}

func New() *Collectors {
	return &Collectors{
		BetsPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_bets_placed_total", Help: "apostas aceitas",
		}, []string{"game"}),
		BetsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_bets_resolved_total", Help: "apostas liquidadas por resultado",
		}, []string{"game", "result"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_rejections_total", Help: "chamadas rejeitadas por operação e tipo",
		}, []string{"game", "op", "kind"}),
		TransferFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_transfer_failures_total", Help: "transferências que abortaram a liquidação",
		}, []string{"game"}),
		HouseBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "settlement_house_balance_ether", Help: "saldo da casa (aproximado, float)",
		}, []string{"game"}),
		PendingBets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "settlement_pending_bets", Help: "apostas aguardando aleatoriedade",
		}, []string{"game"}),
		StuckBets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "settlement_stuck_bets", Help: "apostas além do timeout sem callback",
		}, []string{"game"}),
	}
}

func (c *Collectors) MustRegister(r prometheus.Registerer) {
	r.MustRegister(c.BetsPlaced, c.BetsResolved, c.Rejections, c.TransferFailures, c.HouseBalance, c.PendingBets, c.StuckBets)
}

// Hooks liga os callbacks do engine às métricas
func (c *Collectors) Hooks() settlement.Hooks {
	return settlement.Hooks{
		OnPlaced: func(game string) {
			c.BetsPlaced.WithLabelValues(game).Inc()
			c.PendingBets.WithLabelValues(game).Inc()
		},
		OnResolved: func(game string, r settlement.Result) {
			c.BetsResolved.WithLabelValues(game, string(r)).Inc()
			c.PendingBets.WithLabelValues(game).Dec()
		},
		OnRejected: func(game, op string, k settlement.Kind) {
			c.Rejections.WithLabelValues(game, op, string(k)).Inc()
		},
		OnTransferFailed: func(game string) {
			c.TransferFailures.WithLabelValues(game).Inc()
		},
		OnHouseBalance: func(game string, balance *uint256.Int) {
			c.HouseBalance.WithLabelValues(game).Set(weiToEther(balance))
		},
	}
}

func weiToEther(wei *uint256.Int) float64 {
	return wei.Float64() / 1e18
}
