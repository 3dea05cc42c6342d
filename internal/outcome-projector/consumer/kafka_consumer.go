package consumer

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/internal/shared/kafka"
	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Repo interface {
	InsertOutcome(ctx context.Context, e events.BetResolved) (bool, error)
}

type Cache interface {
	Store(ctx context.Context, e events.BetResolved) error
}

// Processor consome bet_resolved, grava o histórico e atualiza o cache.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa.
type Processor struct {
	Log    *zap.Logger
	Reader Reader
	Repo   Repo
	Cache  Cache

	OnConsumed func()       // métricas (counter++)
	OnCached   func()       // métricas
	OnPersist  func()       // métricas
	OnError    func(string) // métricas por fase

	// chamado só para resultados novos; reentregas não geram broadcast
	OnAfterPersist func(events.BetResolved)
}

// Run inicia o loop principal de consumo
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		p.Process(ctx, m)
	}
}

func (p *Processor) Process(ctx context.Context, m kafka.Message) {
	if p.OnConsumed != nil {
		p.OnConsumed()
	}

	var ev events.BetResolved
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.RequestID == "" {
		p.Log.Warn("invalid message", zap.ByteString("key", m.Key), zap.Error(err))
		p.fail("decode")
		return
	}

	inserted, err := p.Repo.InsertOutcome(ctx, ev)
	if err != nil {
		p.Log.Warn("db insert failed", zap.String("request_id", ev.RequestID), zap.Error(err))
		p.fail("db_insert")
		return
	}
	if !inserted {
		p.Log.Debug("duplicate outcome", zap.String("request_id", ev.RequestID))
		return
	}
	if p.OnPersist != nil {
		p.OnPersist()
	}

	// cache é best-effort, o histórico já está no banco
	if err := p.Cache.Store(ctx, ev); err != nil {
		p.Log.Warn("redis store failed", zap.Error(err))
		p.fail("cache")
	} else if p.OnCached != nil {
		p.OnCached()
	}

	if p.OnAfterPersist != nil {
		p.OnAfterPersist(ev)
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
