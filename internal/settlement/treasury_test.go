package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/radieske/wager-settlement-core/internal/shared/money"
)

func treasuryWith(t *testing.T, house string) (*Treasury, *fakeWallet) {
	t.Helper()
	w := newFakeWallet()
	tr := NewTreasury(w)
	if house != "" {
		tr.AddFunds(money.MustEther(house))
	}
	return tr, w
}

func escrowed(tr *Treasury, stake string) Bet {
	b := Bet{RequestID: "r1", Player: player1, Stake: money.MustEther(stake), Active: true}
	tr.Escrow(b.Stake)
	return b
}

func assertBalances(t *testing.T, tr *Treasury, house, escrow string) {
	t.Helper()
	h, e := tr.Balances()
	if !h.Eq(money.MustEther(house)) || !e.Eq(money.MustEther(escrow)) {
		t.Fatalf("house=%s escrow=%s, want %s %s", money.FormatEther(h), money.FormatEther(e), house, escrow)
	}
}

func TestTreasuryLossRetainsStake(t *testing.T) {
	tr, w := treasuryWith(t, "1")
	bet := escrowed(tr, "0.005")

	st, err := tr.Settle(context.Background(), bet, Evaluation{Won: false, Payout: new(uint256.Int)})
	if err != nil || st.Result != ResultLost {
		t.Fatalf("settle: %+v %v", st, err)
	}
	assertBalances(t, tr, "1.005", "0")
	if len(w.refs) != 0 {
		t.Fatalf("loss should not transfer, got %v", w.refs)
	}
}

func TestTreasuryWinPaysFromHouse(t *testing.T) {
	tr, w := treasuryWith(t, "1")
	bet := escrowed(tr, "0.005")

	st, err := tr.Settle(context.Background(), bet, Evaluation{Won: true, Payout: money.MustEther("0.01")})
	if err != nil || st.Result != ResultWon {
		t.Fatalf("settle: %+v %v", st, err)
	}
	assertBalances(t, tr, "0.995", "0")
	if got := w.balance(player1); !got.Eq(money.MustEther("0.01")) {
		t.Fatalf("player got %s", money.FormatEther(got))
	}
	if w.refs[0] != "payout:r1" {
		t.Fatalf("ref = %s", w.refs[0])
	}
}

func TestTreasuryInsolventWinRefundsStake(t *testing.T) {
	tr, w := treasuryWith(t, "0.004")
	bet := escrowed(tr, "0.005")

	st, err := tr.Settle(context.Background(), bet, Evaluation{Won: true, Payout: money.MustEther("0.01")})
	if err != nil {
		t.Fatal(err)
	}
	if st.Result != ResultRefunded || !st.Paid.Eq(bet.Stake) {
		t.Fatalf("got %+v, want refund of stake", st)
	}
	// house intacto
	assertBalances(t, tr, "0.004", "0")
	if got := w.balance(player1); !got.Eq(money.MustEther("0.005")) {
		t.Fatalf("player got %s", money.FormatEther(got))
	}
}

func TestTreasuryExactCoverIsWin(t *testing.T) {
	tr, _ := treasuryWith(t, "0.005")
	bet := escrowed(tr, "0.005")
	st, err := tr.Settle(context.Background(), bet, Evaluation{Won: true, Payout: money.MustEther("0.01")})
	if err != nil || st.Result != ResultWon {
		t.Fatalf("%+v %v", st, err)
	}
	assertBalances(t, tr, "0", "0")
}

func TestTreasuryTransferFailureLeavesStateUntouched(t *testing.T) {
	tr, w := treasuryWith(t, "1")
	bet := escrowed(tr, "0.005")
	w.setFail(true)

	win := Evaluation{Won: true, Payout: money.MustEther("0.01")}
	if _, err := tr.Settle(context.Background(), bet, win); !errors.Is(err, ErrTransferFailed) || !errors.Is(err, errWalletDown) {
		t.Fatalf("err = %v", err)
	}
	assertBalances(t, tr, "1", "0.005")

	if _, err := tr.Refund(context.Background(), bet); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("refund err = %v", err)
	}
	assertBalances(t, tr, "1", "0.005")

	if _, err := tr.Withdraw(context.Background(), owner, money.MustEther("0.5"), "w1"); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("withdraw err = %v", err)
	}
	assertBalances(t, tr, "1", "0.005")
}

func TestTreasuryWithdraw(t *testing.T) {
	tr, w := treasuryWith(t, "1")
	escrowed(tr, "0.005")

	if _, err := tr.Withdraw(context.Background(), owner, money.MustEther("1.001"), "w1"); !errors.Is(err, ErrInsufficientHouseFunds) {
		t.Fatalf("err = %v", err)
	}
	house, err := tr.Withdraw(context.Background(), owner, money.MustEther("0.4"), "w2")
	if err != nil {
		t.Fatal(err)
	}
	if !house.Eq(money.MustEther("0.6")) {
		t.Fatalf("house = %s", money.FormatEther(house))
	}
	if !w.balance(owner).Eq(money.MustEther("0.4")) {
		t.Fatalf("owner got %s", money.FormatEther(w.balance(owner)))
	}
	// escrow não é sacável
	assertBalances(t, tr, "0.6", "0.005")
}
