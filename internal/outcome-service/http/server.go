package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/internal/outcome-service/dto"
	"github.com/radieske/wager-settlement-core/pkg/contracts/events"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

type ReadRepo interface {
	ListByPlayer(ctx context.Context, game, player string, limit int) ([]events.BetResolved, error)
	ListRecent(ctx context.Context, game string, limit int) ([]events.BetResolved, error)
	Summary(ctx context.Context, game, player string) (dto.PlayerSummary, error)
}

type Cache interface {
	Latest(ctx context.Context, game, player string) (events.BetResolved, bool, error)
	Recent(ctx context.Context, game string, limit int) ([]events.BetResolved, error)
}

// API expõe o histórico de apostas liquidadas
// Leitura do Postgres com atalhos no Redis para o que o projector mantém quente
type API struct {
	Log      *zap.Logger
	ReadRepo ReadRepo
	Cache    Cache
	WS       http.HandlerFunc
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/v1/outcomes/{game}/recent", a.recent)
	r.Get("/v1/outcomes/{game}/players/{address}", a.byPlayer)
	r.Get("/v1/outcomes/{game}/players/{address}/latest", a.latest)
	r.Get("/v1/outcomes/{game}/players/{address}/summary", a.summary)
	if a.WS != nil {
		r.Get("/ws", a.WS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) fail(w http.ResponseWriter, err error) {
	a.Log.Error("outcome query", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// recent usa o cache; lista vazia ou erro cai no banco
func (a *API) recent(w http.ResponseWriter, r *http.Request) {
	game := chi.URLParam(r, "game")
	limit := parseLimit(r)

	if out, err := a.Cache.Recent(r.Context(), game, limit); err == nil && len(out) > 0 {
		writeJSON(w, http.StatusOK, toDTO(out))
		return
	}

	out, err := a.ReadRepo.ListRecent(r.Context(), game, limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(out))
}

func (a *API) byPlayer(w http.ResponseWriter, r *http.Request) {
	player, ok := playerParam(w, r)
	if !ok {
		return
	}
	out, err := a.ReadRepo.ListByPlayer(r.Context(), chi.URLParam(r, "game"), player, parseLimit(r))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(out))
}

func (a *API) latest(w http.ResponseWriter, r *http.Request) {
	player, ok := playerParam(w, r)
	if !ok {
		return
	}
	game := chi.URLParam(r, "game")

	if e, hit, err := a.Cache.Latest(r.Context(), game, player); err == nil && hit {
		writeJSON(w, http.StatusOK, dto.FromEvent(e))
		return
	}

	out, err := a.ReadRepo.ListByPlayer(r.Context(), game, player, 1)
	if err != nil {
		a.fail(w, err)
		return
	}
	if len(out) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, dto.FromEvent(out[0]))
}

func (a *API) summary(w http.ResponseWriter, r *http.Request) {
	player, ok := playerParam(w, r)
	if !ok {
		return
	}
	s, err := a.ReadRepo.Summary(r.Context(), chi.URLParam(r, "game"), player)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func playerParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "address")
	if !common.IsHexAddress(raw) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid address"})
		return "", false
	}
	return common.HexToAddress(raw).Hex(), true
}

func parseLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultLimit
	}
	return min(n, maxLimit)
}

func toDTO(in []events.BetResolved) []dto.Outcome {
	out := make([]dto.Outcome, 0, len(in))
	for _, e := range in {
		out = append(out, dto.FromEvent(e))
	}
	return out
}
