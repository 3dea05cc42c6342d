package producer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/radieske/wager-settlement-core/internal/settlement"
	"github.com/radieske/wager-settlement-core/internal/shared/kafka"
	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

// KafkaPublisher publica os eventos do core, um writer por tópico.
// A key é o request_id (ou o jogo, para saldo da casa) para manter a ordem por aposta.
type KafkaPublisher struct {
	Placed   kafka.MessageWriter
	Resolved kafka.MessageWriter
	House    kafka.MessageWriter
}

func NewKafkaPublisher(placed, resolved, house kafka.MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Placed: placed, Resolved: resolved, House: house}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	return kafka.WriteJSON(ctx, p.Placed, e.RequestID, e)
}

func (p *KafkaPublisher) PublishBetResolved(ctx context.Context, e events.BetResolved) error {
	return kafka.WriteJSON(ctx, p.Resolved, e.RequestID, e)
}

func (p *KafkaPublisher) PublishHouseBalance(ctx context.Context, e events.HouseBalanceUpdated) error {
	return kafka.WriteJSON(ctx, p.House, e.Game, e)
}

// RandomnessRequester gera o request_id e publica o pedido para o oráculo.
// O pedido só conta como emitido se o broker confirmar a escrita.
type RandomnessRequester struct {
	Writer kafka.MessageWriter
	NewID  func() string
	Now    func() time.Time
}

func NewRandomnessRequester(w kafka.MessageWriter) *RandomnessRequester {
	return &RandomnessRequester{Writer: w, NewID: uuid.NewString, Now: time.Now}
}

func (r *RandomnessRequester) RequestRandomness(ctx context.Context, req settlement.RandomnessRequest) (settlement.RequestID, error) {
	id := r.NewID()
	ev := events.RandomnessRequested{
		RequestID: id,
		Game:      req.Game,
		Player:    req.Player.Hex(),
		StakeWei:  stakeWei(req.Stake),
		NumWords:  req.Config.NumWords,
		Config: events.OracleConfig{
			KeyHash:              req.Config.KeyHash.Hex(),
			SubscriptionID:       req.Config.SubscriptionID,
			CallbackGasLimit:     req.Config.CallbackGasLimit,
			RequestConfirmations: req.Config.RequestConfirmations,
		},
		Ts: r.Now().UTC(),
	}
	if err := kafka.WriteJSON(ctx, r.Writer, id, ev); err != nil {
		return "", err
	}
	return settlement.RequestID(id), nil
}

func stakeWei(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
