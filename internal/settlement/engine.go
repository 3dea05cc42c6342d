package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

const DefaultStuckTimeout = time.Hour

// OracleConfig é repassado ao oráculo em cada pedido de aleatoriedade
type OracleConfig struct {
	KeyHash              common.Hash
	SubscriptionID       uint64
	CallbackGasLimit     uint32
	RequestConfirmations uint16
	NumWords             uint32
}

func (c OracleConfig) validate() error {
	if c.CallbackGasLimit == 0 {
		return fmt.Errorf("%w: callback gas limit must be positive", ErrInvalidAmount)
	}
	if c.RequestConfirmations == 0 {
		return fmt.Errorf("%w: request confirmations must be positive", ErrInvalidAmount)
	}
	if c.NumWords == 0 {
		return fmt.Errorf("%w: num words must be positive", ErrInvalidAmount)
	}
	return nil
}

// RandomnessRequest identifica a aposta para quem acompanha os pedidos
type RandomnessRequest struct {
	Game   string
	Player common.Address
	Stake  *uint256.Int
	Config OracleConfig
}

// RandomnessRequester registra o pedido no oráculo e devolve o id que
// volta no callback. Não espera pela resposta.
type RandomnessRequester interface {
	RequestRandomness(ctx context.Context, req RandomnessRequest) (RequestID, error)
}

// EventPublisher é best-effort: falha de publicação é logada e não desfaz nada
type EventPublisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
	PublishBetResolved(ctx context.Context, e events.BetResolved) error
	PublishHouseBalance(ctx context.Context, e events.HouseBalanceUpdated) error
}

// Hooks permite plugar métricas sem o core conhecer prometheus
type Hooks struct {
	OnPlaced         func(game string)
	OnResolved       func(game string, r Result)
	OnRejected       func(game, op string, k Kind)
	OnTransferFailed func(game string)
	OnHouseBalance   func(game string, balance *uint256.Int)
}

type Config struct {
	MinBet       *uint256.Int
	MaxBet       *uint256.Int
	StuckTimeout time.Duration
	Oracle       OracleConfig
}

type Resolution struct {
	RequestID RequestID
	Player    common.Address
	Stake     *uint256.Int
	Choice    uint64
	Outcome   uint64
	Won       bool
	Result    Result
	Paid      *uint256.Int
}

// Engine liquida apostas de um jogo: valida, registra no ledger, pede
// aleatoriedade e resolve no callback ou pela recuperação de aposta travada.
type Engine struct {
	log        *zap.Logger
	policy     Policy
	cfg        Config
	access     *AccessControl
	ledger     *Ledger
	treasury   *Treasury
	stats      *statsBook
	randomness RandomnessRequester
	events     EventPublisher
	hooks      Hooks
	now        func() time.Time

	totalBets atomic.Uint64

	oracleMu sync.RWMutex
	oracle   OracleConfig
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithEventPublisher(p EventPublisher) Option { return func(e *Engine) { e.events = p } }

func WithHooks(h Hooks) Option { return func(e *Engine) { e.hooks = h } }

func NewEngine(
	log *zap.Logger,
	policy Policy,
	cfg Config,
	access *AccessControl,
	randomness RandomnessRequester,
	transfers FundsTransferer,
	opts ...Option,
) (*Engine, error) {
	if cfg.MinBet == nil || cfg.MaxBet == nil || cfg.MinBet.IsZero() || cfg.MinBet.Gt(cfg.MaxBet) {
		return nil, fmt.Errorf("%s: invalid bet limits", policy.Name())
	}
	if cfg.StuckTimeout <= 0 {
		cfg.StuckTimeout = DefaultStuckTimeout
	}
	if err := cfg.Oracle.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", policy.Name(), err)
	}

	e := &Engine{
		log:        log.With(zap.String("game", policy.Name())),
		policy:     policy,
		cfg:        cfg,
		access:     access,
		ledger:     NewLedger(),
		treasury:   NewTreasury(transfers),
		stats:      newStatsBook(),
		randomness: randomness,
		events:     noopPublisher{},
		now:        time.Now,
		oracle:     cfg.Oracle,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

func (e *Engine) Game() string { return e.policy.Name() }

// Limits devolve (min, max) de stake
func (e *Engine) Limits() (*uint256.Int, *uint256.Int) {
	return e.cfg.MinBet.Clone(), e.cfg.MaxBet.Clone()
}

func (e *Engine) StuckTimeout() time.Duration { return e.cfg.StuckTimeout }

func (e *Engine) PlaceBet(ctx context.Context, player common.Address, stake *uint256.Int, choice uint64) (RequestID, error) {
	if err := e.validateBet(stake, choice); err != nil {
		e.rejected("place_bet", err)
		return "", err
	}

	id, err := e.randomness.RequestRandomness(ctx, RandomnessRequest{
		Game:   e.Game(),
		Player: player,
		Stake:  stake.Clone(),
		Config: e.OracleConfig(),
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRandomnessUnavailable, err)
		e.rejected("place_bet", err)
		return "", err
	}

	// escrow antes do insert: o callback só acha a aposta depois do Insert
	bet := Bet{RequestID: id, Player: player, Stake: stake, Choice: choice, CreatedAt: e.now()}
	e.treasury.Escrow(stake)
	if err := e.ledger.Insert(bet); err != nil {
		e.treasury.Unescrow(stake)
		e.rejected("place_bet", err)
		return "", err
	}
	e.totalBets.Add(1)

	e.log.Info("bet placed",
		zap.String("request_id", string(id)),
		zap.String("player", player.Hex()),
		zap.String("stake_wei", stake.Dec()),
		zap.Uint64("choice", choice),
	)
	if e.hooks.OnPlaced != nil {
		e.hooks.OnPlaced(e.Game())
	}
	e.publish(ctx, "bet_placed", func(ctx context.Context) error {
		return e.events.PublishBetPlaced(ctx, events.BetPlaced{
			Game:      e.Game(),
			RequestID: string(id),
			Player:    player.Hex(),
			StakeWei:  stake.Dec(),
			Choice:    choice,
			TsUnixMs:  bet.CreatedAt.UnixMilli(),
		})
	})
	return id, nil
}

// CheckBet roda as validações do PlaceBet sem efeito colateral. Usado para
// não debitar a carteira de uma aposta que seria rejeitada.
func (e *Engine) CheckBet(stake *uint256.Int, choice uint64) error {
	return e.validateBet(stake, choice)
}

func (e *Engine) validateBet(stake *uint256.Int, choice uint64) error {
	if e.access.Paused() {
		return ErrPaused
	}
	if stake == nil {
		return ErrInvalidAmount
	}
	if stake.Lt(e.cfg.MinBet) {
		return fmt.Errorf("%w: %s < %s", ErrStakeTooLow, stake.Dec(), e.cfg.MinBet.Dec())
	}
	if stake.Gt(e.cfg.MaxBet) {
		return fmt.Errorf("%w: %s > %s", ErrStakeTooHigh, stake.Dec(), e.cfg.MaxBet.Dec())
	}
	return e.policy.ValidateChoice(choice)
}

// OnRandomness é o callback do oráculo. Replays e duplicatas caem em
// ErrRequestNotFound. Se a transferência falhar a aposta continua ativa.
func (e *Engine) OnRandomness(ctx context.Context, caller common.Address, id RequestID, words []*uint256.Int) (Resolution, error) {
	if err := e.access.RequireOracle(caller); err != nil {
		e.rejected("fulfill", err)
		return Resolution{}, err
	}
	if len(words) == 0 || words[0] == nil {
		e.rejected("fulfill", ErrNoRandomWords)
		return Resolution{}, ErrNoRandomWords
	}

	bet, err := e.ledger.Claim(id)
	if err != nil {
		e.rejected("fulfill", err)
		return Resolution{}, err
	}

	ev := e.policy.Evaluate(bet.Choice, bet.Stake, words[0])
	st, err := e.treasury.Settle(ctx, bet, ev)
	if err != nil {
		e.ledger.Release(id)
		e.transferFailed("fulfill", id, err)
		return Resolution{}, err
	}

	return e.finish(ctx, bet, ev.Outcome, st), nil
}

// ResolveStuckBet devolve o stake de uma aposta cujo callback não chegou
// dentro de StuckTimeout. Só o owner pode chamar.
func (e *Engine) ResolveStuckBet(ctx context.Context, caller common.Address, id RequestID) (Resolution, error) {
	if err := e.access.RequireOwner(caller); err != nil {
		e.rejected("resolve_stuck", err)
		return Resolution{}, err
	}

	bet, ok := e.ledger.Get(id)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrRequestNotFound, id)
		e.rejected("resolve_stuck", err)
		return Resolution{}, err
	}
	if age := e.now().Sub(bet.CreatedAt); age <= e.cfg.StuckTimeout {
		err := fmt.Errorf("%w: %s is %s old, timeout %s", ErrTooRecent, id, age.Truncate(time.Second), e.cfg.StuckTimeout)
		e.rejected("resolve_stuck", err)
		return Resolution{}, err
	}

	bet, err := e.ledger.Claim(id)
	if err != nil {
		e.rejected("resolve_stuck", err)
		return Resolution{}, err
	}
	st, err := e.treasury.Refund(ctx, bet)
	if err != nil {
		e.ledger.Release(id)
		e.transferFailed("resolve_stuck", id, err)
		return Resolution{}, err
	}

	return e.finish(ctx, bet, 0, st), nil
}

func (e *Engine) finish(ctx context.Context, bet Bet, outcome uint64, st Settlement) Resolution {
	e.ledger.Finish(bet.RequestID)
	e.stats.record(bet, st)

	res := Resolution{
		RequestID: bet.RequestID,
		Player:    bet.Player,
		Stake:     bet.Stake,
		Choice:    bet.Choice,
		Outcome:   outcome,
		Won:       st.Result == ResultWon,
		Result:    st.Result,
		Paid:      st.Paid,
	}

	e.log.Info("bet resolved",
		zap.String("request_id", string(bet.RequestID)),
		zap.String("player", bet.Player.Hex()),
		zap.String("result", string(st.Result)),
		zap.Uint64("outcome", outcome),
		zap.String("paid_wei", st.Paid.Dec()),
	)
	if e.hooks.OnResolved != nil {
		e.hooks.OnResolved(e.Game(), st.Result)
	}

	e.publish(ctx, "bet_resolved", func(ctx context.Context) error {
		return e.events.PublishBetResolved(ctx, events.BetResolved{
			Game:      e.Game(),
			RequestID: string(bet.RequestID),
			Player:    bet.Player.Hex(),
			StakeWei:  bet.Stake.Dec(),
			PayoutWei: st.Paid.Dec(),
			Choice:    bet.Choice,
			Outcome:   outcome,
			Won:       res.Won,
			Result:    string(st.Result),
			Ts:        e.now().UTC(),
		})
	})

	switch st.Result {
	case ResultWon:
		e.houseChanged(ctx, st.House, "bet_won")
	case ResultLost:
		e.houseChanged(ctx, st.House, "bet_lost")
	}
	return res
}

func (e *Engine) AddFunds(ctx context.Context, caller common.Address, amount *uint256.Int) (*uint256.Int, error) {
	if err := e.access.RequireOwner(caller); err != nil {
		e.rejected("add_funds", err)
		return nil, err
	}
	if amount == nil || amount.IsZero() {
		e.rejected("add_funds", ErrInvalidAmount)
		return nil, ErrInvalidAmount
	}
	house := e.treasury.AddFunds(amount)
	e.log.Info("house funded", zap.String("amount_wei", amount.Dec()), zap.String("house_wei", house.Dec()))
	e.houseChanged(ctx, house, "funding")
	return house, nil
}

// Withdraw transfere do saldo da casa para o owner
func (e *Engine) Withdraw(ctx context.Context, caller common.Address, amount *uint256.Int) (*uint256.Int, error) {
	if err := e.access.RequireOwner(caller); err != nil {
		e.rejected("withdraw", err)
		return nil, err
	}
	if amount == nil || amount.IsZero() {
		e.rejected("withdraw", ErrInvalidAmount)
		return nil, ErrInvalidAmount
	}

	ref := "withdraw:" + uuid.NewString()
	house, err := e.treasury.Withdraw(ctx, caller, amount, ref)
	if err != nil {
		if errors.Is(err, ErrTransferFailed) {
			e.transferFailed("withdraw", RequestID(ref), err)
		} else {
			e.rejected("withdraw", err)
		}
		return nil, err
	}
	e.log.Info("house withdrawal", zap.String("amount_wei", amount.Dec()), zap.String("house_wei", house.Dec()))
	e.houseChanged(ctx, house, "withdraw")
	return house, nil
}

func (e *Engine) Pause(caller common.Address) error   { return e.setPaused(caller, true) }
func (e *Engine) Unpause(caller common.Address) error { return e.setPaused(caller, false) }

func (e *Engine) setPaused(caller common.Address, paused bool) error {
	changed, err := e.access.SetPaused(caller, paused)
	if err != nil {
		e.rejected("pause", err)
		return err
	}
	if changed {
		e.log.Info("pause state changed", zap.Bool("paused", paused))
	}
	return nil
}

func (e *Engine) UpdateOracleConfig(caller common.Address, cfg OracleConfig) error {
	if err := e.access.RequireOwner(caller); err != nil {
		e.rejected("oracle_config", err)
		return err
	}
	if err := cfg.validate(); err != nil {
		e.rejected("oracle_config", err)
		return err
	}
	e.oracleMu.Lock()
	e.oracle = cfg
	e.oracleMu.Unlock()

	e.log.Info("oracle config updated",
		zap.String("key_hash", cfg.KeyHash.Hex()),
		zap.Uint64("subscription_id", cfg.SubscriptionID),
		zap.Uint32("callback_gas_limit", cfg.CallbackGasLimit),
		zap.Uint16("request_confirmations", cfg.RequestConfirmations),
	)
	return nil
}

func (e *Engine) OracleConfig() OracleConfig {
	e.oracleMu.RLock()
	defer e.oracleMu.RUnlock()
	return e.oracle
}

func (e *Engine) BetInfo(id RequestID) (Bet, error) {
	b, ok := e.ledger.Get(id)
	if !ok {
		return Bet{}, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	return b, nil
}

func (e *Engine) HouseStats() HouseStats {
	house, escrow := e.treasury.Balances()
	payouts, refunds := e.stats.totals()
	return HouseStats{
		Game:            e.Game(),
		Balance:         house,
		Escrowed:        escrow,
		ContractBalance: new(uint256.Int).Add(house, escrow),
		TotalBets:       e.totalBets.Load(),
		TotalPayouts:    payouts,
		TotalRefunds:    refunds,
		PendingCount:    e.ledger.Pending(),
		Paused:          e.access.Paused(),
	}
}

func (e *Engine) PlayerStats(player common.Address) PlayerStats { return e.stats.player(player) }

// StuckBets lista as apostas elegíveis para ResolveStuckBet
func (e *Engine) StuckBets() []Bet { return e.ledger.Stuck(e.now(), e.cfg.StuckTimeout) }

func (e *Engine) houseChanged(ctx context.Context, balance *uint256.Int, reason string) {
	if e.hooks.OnHouseBalance != nil {
		e.hooks.OnHouseBalance(e.Game(), balance)
	}
	e.publish(ctx, "house_balance", func(ctx context.Context) error {
		return e.events.PublishHouseBalance(ctx, events.HouseBalanceUpdated{
			Game:       e.Game(),
			BalanceWei: balance.Dec(),
			Reason:     reason,
			TsUnixMs:   e.now().UnixMilli(),
		})
	})
}

func (e *Engine) publish(ctx context.Context, what string, fn func(context.Context) error) {
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		e.log.Warn("event publish failed", zap.String("event", what), zap.Error(err))
	}
}

func (e *Engine) rejected(op string, err error) {
	k := KindOf(err)
	e.log.Debug("operation rejected", zap.String("op", op), zap.String("kind", string(k)), zap.Error(err))
	if e.hooks.OnRejected != nil {
		e.hooks.OnRejected(e.Game(), op, k)
	}
}

func (e *Engine) transferFailed(op string, id RequestID, err error) {
	e.log.Error("transfer failed, state left untouched",
		zap.String("op", op),
		zap.String("ref", string(id)),
		zap.Error(err),
	)
	if e.hooks.OnTransferFailed != nil {
		e.hooks.OnTransferFailed(e.Game())
	}
}

type noopPublisher struct{}

func (noopPublisher) PublishBetPlaced(context.Context, events.BetPlaced) error     { return nil }
func (noopPublisher) PublishBetResolved(context.Context, events.BetResolved) error { return nil }
func (noopPublisher) PublishHouseBalance(context.Context, events.HouseBalanceUpdated) error {
	return nil
}
