package events

import "time"

// Result é o desfecho final de uma aposta.
const (
	ResultWon         = "won"
	ResultLost        = "lost"
	ResultRefunded    = "refunded"     // casa sem saldo para cobrir o prêmio
	ResultStuckRefund = "stuck_refund" // recuperação manual após timeout
)

// Evento emitido pelo settlement-service quando uma aposta sai do ledger.
type BetResolved struct {
	Game      string    `json:"game"`
	RequestID string    `json:"request_id"`
	Player    string    `json:"player"`
	StakeWei  string    `json:"stake_wei"`
	PayoutWei string    `json:"payout_wei"`
	Choice    uint64    `json:"choice"`
	Outcome   uint64    `json:"outcome"`
	Won       bool      `json:"won"`
	Result    string    `json:"result"`
	Ts        time.Time `json:"ts"`
}
