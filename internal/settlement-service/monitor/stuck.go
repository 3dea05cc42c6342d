package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/internal/settlement"
)

// StuckSource é o pedaço do engine que o monitor precisa
type StuckSource interface {
	Game() string
	StuckBets() []settlement.Bet
}

// StuckMonitor varre periodicamente as apostas sem callback além do timeout.
// Não resolve nada: a recuperação continua sendo ação do operador.
type StuckMonitor struct {
	Log      *zap.Logger
	Sources  []StuckSource
	Interval time.Duration

	OnScan func(game string, stuck int) // métricas
}

func (m *StuckMonitor) Run(ctx context.Context) error {
	t := time.NewTicker(m.Interval)
	defer t.Stop()

	for {
		m.ScanOnce()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (m *StuckMonitor) ScanOnce() {
	for _, src := range m.Sources {
		stuck := src.StuckBets()
		if m.OnScan != nil {
			m.OnScan(src.Game(), len(stuck))
		}
		for _, b := range stuck {
			m.Log.Warn("stuck bet awaiting operator recovery",
				zap.String("game", src.Game()),
				zap.String("request_id", string(b.RequestID)),
				zap.String("player", b.Player.Hex()),
				zap.Time("created_at", b.CreatedAt),
			)
		}
	}
}
