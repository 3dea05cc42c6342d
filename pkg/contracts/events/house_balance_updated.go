package events

type HouseBalanceUpdated struct {
	Game       string `json:"game"`
	BalanceWei string `json:"balance_wei"`
	Reason     string `json:"reason"` // funding | withdraw | bet_lost | bet_won
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
