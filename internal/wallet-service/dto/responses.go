package dto

type WalletResponse struct {
	Address    string `json:"address"`
	WalletID   string `json:"walletId"`
	BalanceWei string `json:"balance_wei"`
	Balance    string `json:"balance"` // em ether, só para leitura
}

type MovementResponse struct {
	ExternalRef string `json:"external_ref"`
	BalanceWei  string `json:"balance_wei"`
	Status      string `json:"status"`
}
