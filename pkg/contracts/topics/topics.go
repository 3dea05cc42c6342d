package topics

const (
	// Oráculo
	RandomnessRequested    = "randomness_requested"
	RandomnessRequestedDLQ = "randomness_requested_dlq"

	// Apostas
	BetPlaced   = "bet_placed"
	BetResolved = "bet_resolved"

	// Tesouraria
	HouseBalanceUpdated = "house_balance_updated"
)
