package settlement

import (
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
)

func newBet(id string, created time.Time) Bet {
	return Bet{RequestID: RequestID(id), Player: player1, Stake: uint256.NewInt(10), CreatedAt: created}
}

func TestLedgerRejectsReusedID(t *testing.T) {
	l := NewLedger()
	now := time.Now()
	if err := l.Insert(newBet("a", now)); err != nil {
		t.Fatal(err)
	}
	if err := l.Insert(newBet("a", now)); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("active duplicate: err = %v", err)
	}

	if _, err := l.Claim("a"); err != nil {
		t.Fatal(err)
	}
	l.Finish("a")
	if err := l.Insert(newBet("a", now)); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("retired id reused: err = %v", err)
	}
	if _, ok := l.Get("a"); ok {
		t.Fatal("finished bet still in ledger")
	}
}

func TestLedgerClaimIsExclusive(t *testing.T) {
	l := NewLedger()
	_ = l.Insert(newBet("a", time.Now()))

	b, err := l.Claim("a")
	if err != nil || !b.Active {
		t.Fatalf("first claim: %+v %v", b, err)
	}
	if _, err := l.Claim("a"); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("second claim: err = %v", err)
	}

	l.Release("a")
	if _, err := l.Claim("a"); err != nil {
		t.Fatalf("claim after release: %v", err)
	}
	if _, err := l.Claim("missing"); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("missing: err = %v", err)
	}
}

func TestLedgerCopiesStake(t *testing.T) {
	l := NewLedger()
	b := newBet("a", time.Now())
	_ = l.Insert(b)
	b.Stake.SetUint64(999)

	got, _ := l.Get("a")
	if got.Stake.Uint64() != 10 {
		t.Fatalf("ledger aliased caller stake: %s", got.Stake)
	}
}

func TestLedgerStuck(t *testing.T) {
	l := NewLedger()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = l.Insert(newBet("new", base.Add(50*time.Minute)))
	_ = l.Insert(newBet("old", base))
	_ = l.Insert(newBet("older", base.Add(-time.Minute)))

	now := base.Add(time.Hour)
	stuck := l.Stuck(now, time.Hour)
	if len(stuck) != 1 || stuck[0].RequestID != "older" {
		t.Fatalf("stuck = %+v", stuck)
	}

	stuck = l.Stuck(now.Add(time.Second), time.Hour)
	if len(stuck) != 2 || stuck[0].RequestID != "older" || stuck[1].RequestID != "old" {
		t.Fatalf("stuck order = %+v", stuck)
	}
	if l.Pending() != 3 {
		t.Fatalf("pending = %d", l.Pending())
	}
}
