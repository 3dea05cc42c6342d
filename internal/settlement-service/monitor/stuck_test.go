package monitor

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/internal/settlement"
)

type staticSource struct {
	game string
	bets []settlement.Bet
}

func (s staticSource) Game() string                { return s.game }
func (s staticSource) StuckBets() []settlement.Bet { return s.bets }

func TestScanOnceReportsPerGame(t *testing.T) {
	got := map[string]int{}
	m := &StuckMonitor{
		Log: zap.NewNop(),
		Sources: []StuckSource{
			staticSource{game: "dice", bets: []settlement.Bet{{RequestID: "a"}, {RequestID: "b"}}},
			staticSource{game: "roulette"},
		},
		OnScan: func(game string, n int) { got[game] = n },
	}
	m.ScanOnce()

	if got["dice"] != 2 || got["roulette"] != 0 || len(got) != 2 {
		t.Fatalf("scan = %v", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	scans := make(chan struct{}, 10)
	onScan := func(string, int) {
		select {
		case scans <- struct{}{}:
		default:
		}
	}
	m := &StuckMonitor{
		Log:      zap.NewNop(),
		Sources:  []StuckSource{staticSource{game: "dice"}},
		Interval: 5 * time.Millisecond,
		OnScan:   onScan,
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	<-scans
	<-scans
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
