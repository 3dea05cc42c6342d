package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client serializa escritas: o gorilla não aceita writers concorrentes
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Hub gerencia conexões WebSocket e assinaturas por jogo ou por jogo+jogador
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// topic -> set of clients
	subs map[string]map[*client]struct{}
}

func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

func topic(game, player string) string {
	if player == "" {
		return game
	}
	return game + ":" + strings.ToLower(player)
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("ws upgrade", zap.Error(err))
		return
	}
	c := &client{conn: conn}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.Game == "" {
				continue
			}
			h.mu.Lock()
			t := topic(msg.Game, msg.Player)
			if _, ok := h.subs[t]; !ok {
				h.subs[t] = make(map[*client]struct{})
			}
			h.subs[t][c] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			t := topic(msg.Game, msg.Player)
			if m, ok := h.subs[t]; ok {
				delete(m, c)
				if len(m) == 0 {
					delete(h.subs, t)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = c.write([]byte(`{"type":"pong"}`))
		}
	}

	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for t, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, t)
		}
	}
	h.mu.Unlock()
}

// Subscribers conta conexões num tópico
func (h *Hub) Subscribers(game, player string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic(game, player)])
}

// Broadcast envia o resultado a quem assina o jogo e a quem assina o jogador
func (h *Hub) Broadcast(update OutcomeUpdate) {
	h.mu.RLock()
	var targets []*client
	for _, t := range []string{topic(update.Game, ""), topic(update.Game, update.Player)} {
		for c := range h.subs[t] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(update)
	if err != nil {
		h.log.Warn("ws marshal", zap.Error(err))
		return
	}
	for _, c := range targets {
		if err := c.write(b); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
			_ = c.conn.Close()
		}
	}
}
