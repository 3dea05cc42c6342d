package metrics

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/radieske/wager-settlement-core/internal/settlement"
)

func TestHooksFeedCollectors(t *testing.T) {
	c := New()
	c.MustRegister(prometheus.NewRegistry())
	h := c.Hooks()

	h.OnPlaced("dice")
	h.OnPlaced("dice")
	h.OnResolved("dice", settlement.ResultRefunded)
	h.OnRejected("dice", "place_bet", settlement.KindValidation)
	h.OnTransferFailed("dice")
	h.OnHouseBalance("dice", uint256.NewInt(1_500_000_000_000_000_000))

	if got := testutil.ToFloat64(c.BetsPlaced.WithLabelValues("dice")); got != 2 {
		t.Errorf("placed = %v", got)
	}
	if got := testutil.ToFloat64(c.PendingBets.WithLabelValues("dice")); got != 1 {
		t.Errorf("pending = %v", got)
	}
	if got := testutil.ToFloat64(c.BetsResolved.WithLabelValues("dice", "refunded")); got != 1 {
		t.Errorf("resolved = %v", got)
	}
	if got := testutil.ToFloat64(c.Rejections.WithLabelValues("dice", "place_bet", "validation")); got != 1 {
		t.Errorf("rejections = %v", got)
	}
	if got := testutil.ToFloat64(c.HouseBalance.WithLabelValues("dice")); got != 1.5 {
		t.Errorf("house = %v", got)
	}
}
