package events

import "time"

// OracleConfig acompanha cada pedido para o oráculo saber como responder
type OracleConfig struct {
	KeyHash              string `json:"key_hash"`
	SubscriptionID       uint64 `json:"subscription_id"`
	CallbackGasLimit     uint32 `json:"callback_gas_limit"`
	RequestConfirmations uint16 `json:"request_confirmations"`
}

// Evento publicado no tópico "randomness_requested"
type RandomnessRequested struct {
	RequestID string       `json:"request_id"`
	Game      string       `json:"game"`
	Player    string       `json:"player"`
	StakeWei  string       `json:"stake_wei"`
	NumWords  uint32       `json:"num_words"`
	Config    OracleConfig `json:"config"`
	Ts        time.Time    `json:"ts"`
}
