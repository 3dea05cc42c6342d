package dto

// Valores em ether como string ("0.005")
type PlaceBetRequest struct {
	Stake  string `json:"stake"`
	Choice uint64 `json:"choice"`
}

// FulfillRequest é o callback do oráculo; palavras em decimal
type FulfillRequest struct {
	Game        string   `json:"game"`
	RequestID   string   `json:"requestId"`
	RandomWords []string `json:"randomWords"`
}

type AmountRequest struct {
	Amount string `json:"amount"`
}

type OracleConfigRequest struct {
	KeyHash              string `json:"keyHash"`
	SubscriptionID       uint64 `json:"subscriptionId"`
	CallbackGasLimit     uint32 `json:"callbackGasLimit"`
	RequestConfirmations uint16 `json:"requestConfirmations"`
	NumWords             uint32 `json:"numWords"`
}
