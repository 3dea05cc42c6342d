package settlement

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// PlayerStats é contabilizado na resolução da aposta. Valores em wei.
// Net = TotalWon + TotalRefunded - TotalStaked e pode ser negativo.
type PlayerStats struct {
	Wins          uint64
	Losses        uint64
	Refunds       uint64
	TotalGames    uint64
	TotalStaked   *uint256.Int
	TotalWon      *uint256.Int
	TotalRefunded *uint256.Int
	Net           decimal.Decimal
}

type HouseStats struct {
	Game            string
	Balance         *uint256.Int
	Escrowed        *uint256.Int
	ContractBalance *uint256.Int // house + escrow
	TotalBets       uint64
	TotalPayouts    *uint256.Int
	TotalRefunds    *uint256.Int
	PendingCount    int
	Paused          bool
}

type playerTotals struct {
	wins, losses, refunds uint64
	staked, won, refunded uint256.Int
}

type statsBook struct {
	mu      sync.Mutex
	players map[common.Address]*playerTotals
	payouts uint256.Int
	refunds uint256.Int
}

func newStatsBook() *statsBook {
	return &statsBook{players: make(map[common.Address]*playerTotals)}
}

func (s *statsBook) record(bet Bet, st Settlement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[bet.Player]
	if !ok {
		p = &playerTotals{}
		s.players[bet.Player] = p
	}
	p.staked.Add(&p.staked, bet.Stake)

	switch st.Result {
	case ResultWon:
		p.wins++
		p.won.Add(&p.won, st.Paid)
		s.payouts.Add(&s.payouts, st.Paid)
	case ResultLost:
		p.losses++
	case ResultRefunded, ResultStuckRefund:
		p.refunds++
		p.refunded.Add(&p.refunded, st.Paid)
		s.refunds.Add(&s.refunds, st.Paid)
	}
}

func (s *statsBook) player(addr common.Address) PlayerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[addr]
	if !ok {
		p = &playerTotals{}
	}
	net := decimal.NewFromBigInt(p.won.ToBig(), 0).
		Add(decimal.NewFromBigInt(p.refunded.ToBig(), 0)).
		Sub(decimal.NewFromBigInt(p.staked.ToBig(), 0))

	return PlayerStats{
		Wins:          p.wins,
		Losses:        p.losses,
		Refunds:       p.refunds,
		TotalGames:    p.wins + p.losses + p.refunds,
		TotalStaked:   p.staked.Clone(),
		TotalWon:      p.won.Clone(),
		TotalRefunded: p.refunded.Clone(),
		Net:           net,
	}
}

func (s *statsBook) totals() (payouts, refunds *uint256.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payouts.Clone(), s.refunds.Clone()
}
