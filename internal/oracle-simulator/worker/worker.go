package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/internal/oracle-simulator/fulfill"
	"github.com/radieske/wager-settlement-core/internal/shared/kafka"
	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

type Source interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Sink interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Fulfiller interface {
	Fulfill(ctx context.Context, game, requestID string, words []*uint256.Int) error
}

// Worker simula o oráculo: consome randomness_requested, espera um atraso
// aleatório e devolve as palavras ao settlement. Pedidos descartados
// (DropRate) ficam sem callback e viram apostas travadas.
type Worker struct {
	Log     *zap.Logger
	Source  Source
	DLQ     Sink // opcional
	Fulfill Fulfiller
	Metrics *Metrics

	Entropy io.Reader
	Delay   func() time.Duration
	Drop    func() bool
	Retries int
	Backoff time.Duration
	Sleep   func(ctx context.Context, d time.Duration) error
	Now     func() time.Time
}

// Run lê até o contexto ser cancelado
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.Source.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.Log.Warn("kafka read", zap.Error(err))
			if err := w.Sleep(ctx, time.Second); err != nil {
				return err
			}
			continue
		}
		if err := w.Handle(ctx, msg); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Handle processa um pedido. Erros já foram logados e, quando cabe, enviados à DLQ.
func (w *Worker) Handle(ctx context.Context, msg kafka.Message) error {
	var req events.RandomnessRequested
	if err := json.Unmarshal(msg.Value, &req); err != nil || req.RequestID == "" || req.Game == "" {
		w.Log.Error("invalid randomness request", zap.ByteString("key", msg.Key), zap.Error(err))
		w.count("invalid")
		w.deadLetter(ctx, msg)
		return nil
	}
	log := w.Log.With(zap.String("request_id", req.RequestID), zap.String("game", req.Game), zap.String("player", req.Player))

	if w.Drop != nil && w.Drop() {
		log.Warn("dropping randomness request")
		w.count("dropped")
		return nil
	}

	if w.Delay != nil {
		if err := w.Sleep(ctx, w.Delay()); err != nil {
			return err
		}
	}

	words, err := DrawWords(w.Entropy, req.NumWords)
	if err != nil {
		log.Error("entropy", zap.Error(err))
		w.count("dlq")
		w.deadLetter(ctx, msg)
		return err
	}

	err = w.Fulfill.Fulfill(ctx, req.Game, req.RequestID, words)
	w.attempt()
	for i := 0; err != nil && !errors.Is(err, fulfill.ErrRejected) && i < w.Retries; i++ {
		log.Warn("fulfill failed, retrying", zap.Int("attempt", i+1), zap.Error(err))
		if serr := w.Sleep(ctx, w.Backoff*time.Duration(i+1)); serr != nil {
			return serr
		}
		err = w.Fulfill.Fulfill(ctx, req.Game, req.RequestID, words)
		w.attempt()
	}
	if err != nil {
		log.Error("fulfill gave up", zap.Error(err))
		w.count("dlq")
		w.deadLetter(ctx, msg)
		return err
	}

	if w.Metrics != nil && w.Now != nil && !req.Ts.IsZero() {
		w.Metrics.Latency.Observe(w.Now().Sub(req.Ts).Seconds())
	}
	w.count("fulfilled")
	log.Info("randomness fulfilled")
	return nil
}

func (w *Worker) deadLetter(ctx context.Context, msg kafka.Message) {
	if w.DLQ == nil {
		return
	}
	if err := w.DLQ.WriteMessages(ctx, kafka.Message{Key: msg.Key, Value: msg.Value, Time: time.Now()}); err != nil {
		w.Log.Error("dlq write", zap.Error(err))
	}
}

func (w *Worker) count(outcome string) {
	if w.Metrics != nil {
		w.Metrics.Requests.WithLabelValues(outcome).Inc()
	}
}

func (w *Worker) attempt() {
	if w.Metrics != nil {
		w.Metrics.Attempts.Inc()
	}
}

// SleepCtx dorme d ou até o contexto ser cancelado
func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
