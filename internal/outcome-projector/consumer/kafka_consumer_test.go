package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/internal/shared/kafka"
	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

type fakeRepo struct {
	seen map[string]bool
	err  error
}

func (r *fakeRepo) InsertOutcome(_ context.Context, e events.BetResolved) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	k := e.Game + "/" + e.RequestID
	if r.seen[k] {
		return false, nil
	}
	r.seen[k] = true
	return true, nil
}

type fakeCache struct {
	stored []events.BetResolved
	err    error
}

func (c *fakeCache) Store(_ context.Context, e events.BetResolved) error {
	if c.err != nil {
		return c.err
	}
	c.stored = append(c.stored, e)
	return nil
}

type recorder struct {
	errs      []string
	broadcast []events.BetResolved
	persisted int
}

func newProcessor(repo Repo, cache Cache, rec *recorder) *Processor {
	return &Processor{
		Log:            zap.NewNop(),
		Repo:           repo,
		Cache:          cache,
		OnPersist:      func() { rec.persisted++ },
		OnError:        func(s string) { rec.errs = append(rec.errs, s) },
		OnAfterPersist: func(e events.BetResolved) { rec.broadcast = append(rec.broadcast, e) },
	}
}

func message(t *testing.T, e events.BetResolved) kafka.Message {
	t.Helper()
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Key: []byte(e.RequestID), Value: b}
}

func TestProcessPersistsCachesAndBroadcastsOnce(t *testing.T) {
	repo := &fakeRepo{seen: map[string]bool{}}
	cache := &fakeCache{}
	rec := &recorder{}
	p := newProcessor(repo, cache, rec)

	ev := events.BetResolved{Game: "dice", RequestID: "r1", Player: "0xabc", StakeWei: "10", PayoutWei: "20", Won: true, Result: "won", Ts: time.Now()}
	p.Process(context.Background(), message(t, ev))
	p.Process(context.Background(), message(t, ev)) // reentrega

	if rec.persisted != 1 || len(cache.stored) != 1 || len(rec.broadcast) != 1 {
		t.Fatalf("persisted=%d cached=%d broadcast=%d", rec.persisted, len(cache.stored), len(rec.broadcast))
	}
	if rec.broadcast[0].RequestID != "r1" {
		t.Fatalf("broadcast = %+v", rec.broadcast[0])
	}
}

func TestProcessFailureStages(t *testing.T) {
	ev := events.BetResolved{Game: "dice", RequestID: "r1", Result: "lost"}

	rec := &recorder{}
	p := newProcessor(&fakeRepo{seen: map[string]bool{}}, &fakeCache{}, rec)
	p.Process(context.Background(), kafka.Message{Value: []byte("nope")})
	if len(rec.errs) != 1 || rec.errs[0] != "decode" {
		t.Fatalf("errs = %v", rec.errs)
	}

	rec = &recorder{}
	p = newProcessor(&fakeRepo{err: errors.New("pg down")}, &fakeCache{}, rec)
	p.Process(context.Background(), message(t, ev))
	if len(rec.errs) != 1 || rec.errs[0] != "db_insert" || len(rec.broadcast) != 0 {
		t.Fatalf("errs = %v broadcast = %d", rec.errs, len(rec.broadcast))
	}

	// cache fora do ar não impede o broadcast
	rec = &recorder{}
	p = newProcessor(&fakeRepo{seen: map[string]bool{}}, &fakeCache{err: errors.New("redis down")}, rec)
	p.Process(context.Background(), message(t, ev))
	if len(rec.errs) != 1 || rec.errs[0] != "cache" || len(rec.broadcast) != 1 {
		t.Fatalf("errs = %v broadcast = %d", rec.errs, len(rec.broadcast))
	}
}
