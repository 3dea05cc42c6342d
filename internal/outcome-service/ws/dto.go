package ws

import "encoding/json"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
type ClientMsg struct {
	Type   string `json:"type"`             // subscribe | unsubscribe | ping
	Game   string `json:"game"`             // requerido em subscribe/unsubscribe
	Player string `json:"player,omitempty"` // vazio = todos os resultados do jogo
}

// OutcomeUpdate é o envelope publicado pelo outcome-projector
type OutcomeUpdate struct {
	Game    string          `json:"game"`
	Player  string          `json:"player"`
	Payload json.RawMessage `json:"payload"`
}
