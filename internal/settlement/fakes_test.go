package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/internal/shared/money"
	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

var (
	owner   = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	oracle  = common.HexToAddress("0x00000000000000000000000000000000000000B2")
	player1 = common.HexToAddress("0x00000000000000000000000000000000000000C3")
	player2 = common.HexToAddress("0x00000000000000000000000000000000000000D4")
)

var errWalletDown = errors.New("wallet down")

type fakeRandomness struct {
	mu   sync.Mutex
	seq  int
	reqs []RandomnessRequest
	err  error
}

func (f *fakeRandomness) RequestRandomness(_ context.Context, req RandomnessRequest) (RequestID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.seq++
	f.reqs = append(f.reqs, req)
	return RequestID(fmt.Sprintf("req-%d", f.seq)), nil
}

// fakeWallet simula o colaborador de transferência com saldos por endereço
type fakeWallet struct {
	mu       sync.Mutex
	balances map[common.Address]*uint256.Int
	refs     []string
	fail     bool
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{balances: make(map[common.Address]*uint256.Int)}
}

func (w *fakeWallet) Transfer(_ context.Context, to common.Address, amount *uint256.Int, ref string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errWalletDown
	}
	w.refs = append(w.refs, ref)
	w.credit(to, amount)
	return nil
}

func (w *fakeWallet) credit(to common.Address, amount *uint256.Int) {
	b, ok := w.balances[to]
	if !ok {
		b = new(uint256.Int)
		w.balances[to] = b
	}
	b.Add(b, amount)
}

func (w *fakeWallet) setFail(v bool) {
	w.mu.Lock()
	w.fail = v
	w.mu.Unlock()
}

func (w *fakeWallet) balance(a common.Address) *uint256.Int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.balances[a]; ok {
		return b.Clone()
	}
	return new(uint256.Int)
}

// debit é o que a carteira faz antes do PlaceBet
func (w *fakeWallet) debit(a common.Address, amount *uint256.Int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.credit(a, new(uint256.Int))
	b := w.balances[a]
	b.Sub(b, amount)
}

func (w *fakeWallet) deposit(a common.Address, amount string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.credit(a, money.MustEther(amount))
}

type recordingPublisher struct {
	mu       sync.Mutex
	placed   []events.BetPlaced
	resolved []events.BetResolved
	house    []events.HouseBalanceUpdated
	err      error
}

func (p *recordingPublisher) PublishBetPlaced(_ context.Context, e events.BetPlaced) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, e)
	return p.err
}

func (p *recordingPublisher) PublishBetResolved(_ context.Context, e events.BetResolved) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolved = append(p.resolved, e)
	return p.err
}

func (p *recordingPublisher) PublishHouseBalance(_ context.Context, e events.HouseBalanceUpdated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.house = append(p.house, e)
	return p.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	engine *Engine
	rnd    *fakeRandomness
	wallet *fakeWallet
	pub    *recordingPublisher
	clock  *fakeClock
}

func testOracleConfig() OracleConfig {
	return OracleConfig{
		KeyHash:              common.HexToHash("0x787d74caea10b2b357790d5b5247c2f63d1d91572a9846f780606e4d953677ae"),
		SubscriptionID:       1,
		CallbackGasLimit:     500_000,
		RequestConfirmations: 3,
		NumWords:             1,
	}
}

// newRouletteHarness monta a roleta com limites 0.001..0.005 ETH
func newRouletteHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	return newHarness(t, Roulette{}, money.MustEther("0.001"), money.MustEther("0.005"), opts...)
}

func newHarness(t *testing.T, p Policy, minBet, maxBet *uint256.Int, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		rnd:    &fakeRandomness{},
		wallet: newFakeWallet(),
		pub:    &recordingPublisher{},
		clock:  &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	opts = append([]Option{WithClock(h.clock.Now), WithEventPublisher(h.pub)}, opts...)
	e, err := NewEngine(zap.NewNop(), p, Config{
		MinBet:       minBet,
		MaxBet:       maxBet,
		StuckTimeout: time.Hour,
		Oracle:       testOracleConfig(),
	}, NewAccessControl(owner, oracle), h.rnd, h.wallet, opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	h.engine = e
	return h
}

// place simula o fluxo completo: carteira debita e o core registra
func (h *harness) place(t *testing.T, player common.Address, stake string, choice uint64) RequestID {
	t.Helper()
	amt := money.MustEther(stake)
	h.wallet.debit(player, amt)
	id, err := h.engine.PlaceBet(context.Background(), player, amt, choice)
	if err != nil {
		t.Fatalf("PlaceBet(%s): %v", stake, err)
	}
	return id
}

func (h *harness) fund(t *testing.T, amount string) {
	t.Helper()
	if _, err := h.engine.AddFunds(context.Background(), owner, money.MustEther(amount)); err != nil {
		t.Fatalf("AddFunds: %v", err)
	}
}

func words(vs ...uint64) []*uint256.Int {
	out := make([]*uint256.Int, len(vs))
	for i, v := range vs {
		out[i] = uint256.NewInt(v)
	}
	return out
}
