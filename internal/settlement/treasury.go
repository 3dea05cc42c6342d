package settlement

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// FundsTransferer move fundos para fora do core. ref é a chave de idempotência.
type FundsTransferer interface {
	Transfer(ctx context.Context, to common.Address, amount *uint256.Int, ref string) error
}

type Result string

const (
	ResultWon         Result = "won"
	ResultLost        Result = "lost"
	ResultRefunded    Result = "refunded"
	ResultStuckRefund Result = "stuck_refund"
)

// Treasury separa o saldo da casa (house) dos stakes em custódia (escrow).
// O stake só entra no house quando a aposta perde. Toda operação que move
// fundos segura o lock durante a transferência e só altera saldos se ela der certo.
type Treasury struct {
	mu        sync.Mutex
	house     *uint256.Int
	escrow    *uint256.Int
	transfers FundsTransferer
}

func NewTreasury(t FundsTransferer) *Treasury {
	return &Treasury{house: new(uint256.Int), escrow: new(uint256.Int), transfers: t}
}

// Settlement descreve o que de fato aconteceu com a aposta na tesouraria
type Settlement struct {
	Result Result
	Paid   *uint256.Int // valor transferido ao jogador
	House  *uint256.Int // saldo da casa após a operação
}

func (t *Treasury) Escrow(stake *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.escrow.Add(t.escrow, stake)
}

// Unescrow desfaz um Escrow cuja aposta não chegou ao ledger
func (t *Treasury) Unescrow(stake *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.escrow.Sub(t.escrow, stake)
}

// Settle aplica a avaliação. Vitória que a casa não cobre vira reembolso do stake.
func (t *Treasury) Settle(ctx context.Context, bet Bet, ev Evaluation) (Settlement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !ev.Won {
		t.escrow.Sub(t.escrow, bet.Stake)
		t.house.Add(t.house, bet.Stake)
		return Settlement{Result: ResultLost, Paid: new(uint256.Int), House: t.house.Clone()}, nil
	}

	// parte do prêmio que sai do house; o resto é o próprio stake em custódia
	need := new(uint256.Int)
	if ev.Payout.Gt(bet.Stake) {
		need.Sub(ev.Payout, bet.Stake)
	}

	if t.house.Lt(need) {
		if err := t.transfer(ctx, bet.Player, bet.Stake, "refund:"+string(bet.RequestID)); err != nil {
			return Settlement{}, err
		}
		t.escrow.Sub(t.escrow, bet.Stake)
		return Settlement{Result: ResultRefunded, Paid: bet.Stake.Clone(), House: t.house.Clone()}, nil
	}

	if err := t.transfer(ctx, bet.Player, ev.Payout, "payout:"+string(bet.RequestID)); err != nil {
		return Settlement{}, err
	}
	t.escrow.Sub(t.escrow, bet.Stake)
	t.house.Sub(t.house, need)
	if ev.Payout.Lt(bet.Stake) {
		// prêmio menor que o stake: a diferença fica com a casa
		t.house.Add(t.house, new(uint256.Int).Sub(bet.Stake, ev.Payout))
	}
	return Settlement{Result: ResultWon, Paid: ev.Payout.Clone(), House: t.house.Clone()}, nil
}

// Refund devolve o stake de uma aposta travada
func (t *Treasury) Refund(ctx context.Context, bet Bet) (Settlement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.transfer(ctx, bet.Player, bet.Stake, "stuck-refund:"+string(bet.RequestID)); err != nil {
		return Settlement{}, err
	}
	t.escrow.Sub(t.escrow, bet.Stake)
	return Settlement{Result: ResultStuckRefund, Paid: bet.Stake.Clone(), House: t.house.Clone()}, nil
}

func (t *Treasury) AddFunds(amount *uint256.Int) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.house.Add(t.house, amount)
	return t.house.Clone()
}

func (t *Treasury) Withdraw(ctx context.Context, to common.Address, amount *uint256.Int, ref string) (*uint256.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if amount.Gt(t.house) {
		return nil, fmt.Errorf("%w: requested %s, available %s", ErrInsufficientHouseFunds, amount.Dec(), t.house.Dec())
	}
	if err := t.transfer(ctx, to, amount, ref); err != nil {
		return nil, err
	}
	t.house.Sub(t.house, amount)
	return t.house.Clone(), nil
}

// Balances devolve cópias de (house, escrow)
func (t *Treasury) Balances() (house, escrow *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.house.Clone(), t.escrow.Clone()
}

func (t *Treasury) transfer(ctx context.Context, to common.Address, amount *uint256.Int, ref string) error {
	if err := t.transfers.Transfer(ctx, to, amount, ref); err != nil {
		return fmt.Errorf("%w: %s to %s: %w", ErrTransferFailed, ref, to.Hex(), err)
	}
	return nil
}
