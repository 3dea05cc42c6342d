package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/radieske/wager-settlement-core/internal/settlement"
	"github.com/radieske/wager-settlement-core/internal/shared/kafka"
	"github.com/radieske/wager-settlement-core/internal/shared/money"
	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestRequestRandomnessPublishesBet(t *testing.T) {
	w := &fakeWriter{}
	r := NewRandomnessRequester(w)
	r.NewID = func() string { return "req-1" }
	r.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	player := common.HexToAddress("0x00000000000000000000000000000000000000c3")
	id, err := r.RequestRandomness(context.Background(), settlement.RandomnessRequest{
		Game:   "roulette",
		Player: player,
		Stake:  money.MustEther("0.002"),
		Config: settlement.OracleConfig{
			KeyHash:              common.HexToHash("0x01"),
			SubscriptionID:       7,
			CallbackGasLimit:     500_000,
			RequestConfirmations: 3,
			NumWords:             1,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != "req-1" {
		t.Fatalf("id = %s", id)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "req-1" {
		t.Fatalf("msgs = %+v", w.msgs)
	}

	var ev events.RandomnessRequested
	if err := json.Unmarshal(w.msgs[0].Value, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Player != player.Hex() || ev.StakeWei != "2000000000000000" {
		t.Fatalf("player=%s stake=%s", ev.Player, ev.StakeWei)
	}
	if ev.Game != "roulette" || ev.NumWords != 1 || ev.Config.SubscriptionID != 7 || ev.Config.CallbackGasLimit != 500_000 {
		t.Fatalf("event = %+v", ev)
	}
}

func TestRequestRandomnessFailsWhenBrokerRejects(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	r := NewRandomnessRequester(w)

	id, err := r.RequestRandomness(context.Background(), settlement.RandomnessRequest{Game: "coinflip"})
	if err == nil || id != "" {
		t.Fatalf("id=%q err=%v", id, err)
	}
}

func TestPublisherKeys(t *testing.T) {
	placed, resolved, house := &fakeWriter{}, &fakeWriter{}, &fakeWriter{}
	p := NewKafkaPublisher(placed, resolved, house)
	ctx := context.Background()

	if err := p.PublishBetPlaced(ctx, events.BetPlaced{Game: "dice", RequestID: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := p.PublishBetResolved(ctx, events.BetResolved{Game: "dice", RequestID: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := p.PublishHouseBalance(ctx, events.HouseBalanceUpdated{Game: "dice", BalanceWei: "1"}); err != nil {
		t.Fatal(err)
	}

	if string(placed.msgs[0].Key) != "a" || string(resolved.msgs[0].Key) != "a" || string(house.msgs[0].Key) != "dice" {
		t.Fatalf("keys = %s %s %s", placed.msgs[0].Key, resolved.msgs[0].Key, house.msgs[0].Key)
	}
}
