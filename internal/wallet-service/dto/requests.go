package dto

// Valores em wei, string decimal (não cabem em int64)
type DepositRequest struct {
	Address     string `json:"address"`
	AmountWei   string `json:"amount_wei"`
	ExternalRef string `json:"external_ref,omitempty"` // opcional p/ idempotência simples
}

// MovementRequest serve débito e crédito. external_ref é obrigatório
// e torna a operação idempotente (ex: "stake:<uuid>", "payout:<requestId>").
type MovementRequest struct {
	Address     string `json:"address"`
	AmountWei   string `json:"amount_wei"`
	ExternalRef string `json:"external_ref"`
}
