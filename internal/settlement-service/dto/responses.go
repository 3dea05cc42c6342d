package dto

import (
	"time"

	"github.com/radieske/wager-settlement-core/internal/settlement"
	"github.com/radieske/wager-settlement-core/internal/shared/money"
)

type GameResponse struct {
	Game   string `json:"game"`
	MinBet string `json:"minBet"`
	MaxBet string `json:"maxBet"`
	Paused bool   `json:"paused"`
}

type PlaceBetResponse struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

type BetInfoResponse struct {
	RequestID string    `json:"requestId"`
	Player    string    `json:"player"`
	Stake     string    `json:"stake"`
	Choice    uint64    `json:"choice"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func BetInfo(b settlement.Bet) BetInfoResponse {
	return BetInfoResponse{
		RequestID: string(b.RequestID),
		Player:    b.Player.Hex(),
		Stake:     money.FormatEther(b.Stake),
		Choice:    b.Choice,
		Active:    b.Active,
		CreatedAt: b.CreatedAt.UTC(),
	}
}

type ResolutionResponse struct {
	RequestID string `json:"requestId"`
	Player    string `json:"player"`
	Stake     string `json:"stake"`
	Outcome   uint64 `json:"outcome"`
	Won       bool   `json:"won"`
	Result    string `json:"result"`
	Paid      string `json:"paid"`
}

func Resolution(r settlement.Resolution) ResolutionResponse {
	return ResolutionResponse{
		RequestID: string(r.RequestID),
		Player:    r.Player.Hex(),
		Stake:     money.FormatEther(r.Stake),
		Outcome:   r.Outcome,
		Won:       r.Won,
		Result:    string(r.Result),
		Paid:      money.FormatEther(r.Paid),
	}
}

type HouseStatsResponse struct {
	Game            string `json:"game"`
	Balance         string `json:"balance"`
	Escrowed        string `json:"escrowed"`
	ContractBalance string `json:"contractBalance"`
	TotalBets       uint64 `json:"totalBets"`
	TotalPayouts    string `json:"totalPayouts"`
	TotalRefunds    string `json:"totalRefunds"`
	PendingBets     int    `json:"pendingBets"`
	Paused          bool   `json:"paused"`
}

func HouseStats(s settlement.HouseStats) HouseStatsResponse {
	return HouseStatsResponse{
		Game:            s.Game,
		Balance:         money.FormatEther(s.Balance),
		Escrowed:        money.FormatEther(s.Escrowed),
		ContractBalance: money.FormatEther(s.ContractBalance),
		TotalBets:       s.TotalBets,
		TotalPayouts:    money.FormatEther(s.TotalPayouts),
		TotalRefunds:    money.FormatEther(s.TotalRefunds),
		PendingBets:     s.PendingCount,
		Paused:          s.Paused,
	}
}

type PlayerStatsResponse struct {
	Player        string `json:"player"`
	Wins          uint64 `json:"wins"`
	Losses        uint64 `json:"losses"`
	Refunds       uint64 `json:"refunds"`
	TotalGames    uint64 `json:"totalGames"`
	TotalStaked   string `json:"totalStaked"`
	TotalWon      string `json:"totalWon"`
	TotalRefunded string `json:"totalRefunded"`
	Net           string `json:"net"`
}

func PlayerStats(player string, s settlement.PlayerStats) PlayerStatsResponse {
	return PlayerStatsResponse{
		Player:        player,
		Wins:          s.Wins,
		Losses:        s.Losses,
		Refunds:       s.Refunds,
		TotalGames:    s.TotalGames,
		TotalStaked:   money.FormatEther(s.TotalStaked),
		TotalWon:      money.FormatEther(s.TotalWon),
		TotalRefunded: money.FormatEther(s.TotalRefunded),
		Net:           s.Net.Shift(-18).String(), // wei -> ether
	}
}

func OracleConfig(c settlement.OracleConfig) OracleConfigRequest {
	return OracleConfigRequest{
		KeyHash:              c.KeyHash.Hex(),
		SubscriptionID:       c.SubscriptionID,
		CallbackGasLimit:     c.CallbackGasLimit,
		RequestConfirmations: c.RequestConfirmations,
		NumWords:             c.NumWords,
	}
}

type HouseBalanceResponse struct {
	Game    string `json:"game"`
	Balance string `json:"balance"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
