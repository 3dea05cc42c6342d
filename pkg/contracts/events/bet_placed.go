package events

// Evento publicado quando uma aposta entra no ledger aguardando aleatoriedade.
// Valores monetários trafegam em wei como string decimal.
type BetPlaced struct {
	Game      string `json:"game"`
	RequestID string `json:"request_id"`
	Player    string `json:"player"`
	StakeWei  string `json:"stake_wei"`
	Choice    uint64 `json:"choice"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
