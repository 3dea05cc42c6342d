package settlement

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// RequestID correlaciona o pedido de aleatoriedade com a aposta
type RequestID string

type Bet struct {
	RequestID RequestID
	Player    common.Address
	Stake     *uint256.Int
	Choice    uint64
	CreatedAt time.Time
	Active    bool
}

func (b Bet) clone() Bet {
	b.Stake = b.Stake.Clone()
	return b
}

type ledgerEntry struct {
	bet     Bet
	claimed bool // alguém (callback ou recuperação) está resolvendo
}

// Ledger guarda as apostas em aberto. Um request_id nunca é reutilizado:
// depois de Finish ele vai para retired e Insert passa a rejeitá-lo.
type Ledger struct {
	mu      sync.Mutex
	bets    map[RequestID]*ledgerEntry
	retired map[RequestID]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		bets:    make(map[RequestID]*ledgerEntry),
		retired: make(map[RequestID]struct{}),
	}
}

func (l *Ledger) Insert(b Bet) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.bets[b.RequestID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRequest, b.RequestID)
	}
	if _, ok := l.retired[b.RequestID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRequest, b.RequestID)
	}
	b = b.clone()
	b.Active = true
	l.bets[b.RequestID] = &ledgerEntry{bet: b}
	return nil
}

// Claim é o compare-and-swap da aposta: só um chamador vence e recebe a cópia.
// Aposta ausente, já finalizada ou já reivindicada -> ErrRequestNotFound.
func (l *Ledger) Claim(id RequestID) (Bet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.bets[id]
	if !ok || !e.bet.Active || e.claimed {
		return Bet{}, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	e.claimed = true
	return e.bet.clone(), nil
}

// Release desfaz um Claim quando a resolução abortou (ex.: falha de transferência)
func (l *Ledger) Release(id RequestID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.bets[id]; ok {
		e.claimed = false
	}
}

// Finish remove a aposta e aposenta o id
func (l *Ledger) Finish(id RequestID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.bets, id)
	l.retired[id] = struct{}{}
}

func (l *Ledger) Get(id RequestID) (Bet, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.bets[id]
	if !ok {
		return Bet{}, false
	}
	return e.bet.clone(), true
}

func (l *Ledger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.bets)
}

// Stuck lista apostas abertas há mais de timeout, mais antigas primeiro
func (l *Ledger) Stuck(now time.Time, timeout time.Duration) []Bet {
	l.mu.Lock()
	var out []Bet
	for _, e := range l.bets {
		if now.Sub(e.bet.CreatedAt) > timeout {
			out = append(out, e.bet.clone())
		}
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
