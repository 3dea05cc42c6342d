package dto

import (
	"time"

	"github.com/radieske/wager-settlement-core/internal/shared/money"
	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

// Outcome é uma aposta liquidada, valores em ether
type Outcome struct {
	Game       string    `json:"game"`
	RequestID  string    `json:"requestId"`
	Player     string    `json:"player"`
	Stake      string    `json:"stake"`
	Payout     string    `json:"payout"`
	Choice     uint64    `json:"choice"`
	Outcome    uint64    `json:"outcome"`
	Won        bool      `json:"won"`
	Result     string    `json:"result"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

// FromEvent converte o evento (wei) para a resposta (ether)
func FromEvent(e events.BetResolved) Outcome {
	return Outcome{
		Game:       e.Game,
		RequestID:  e.RequestID,
		Player:     e.Player,
		Stake:      weiToEther(e.StakeWei),
		Payout:     weiToEther(e.PayoutWei),
		Choice:     e.Choice,
		Outcome:    e.Outcome,
		Won:        e.Won,
		Result:     e.Result,
		ResolvedAt: e.Ts,
	}
}

func weiToEther(s string) string {
	v, err := money.ParseWei(s)
	if err != nil {
		return "0"
	}
	return money.FormatEther(v)
}

// PlayerSummary agrega o histórico de um jogador num jogo
type PlayerSummary struct {
	Game        string `json:"game"`
	Player      string `json:"player"`
	Games       int64  `json:"games"`
	Wins        int64  `json:"wins"`
	Losses      int64  `json:"losses"`
	Refunds     int64  `json:"refunds"`
	TotalStaked string `json:"totalStaked"`
	TotalPaid   string `json:"totalPaid"`
	Net         string `json:"net"`
}
