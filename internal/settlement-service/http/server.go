package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/internal/settlement"
	"github.com/radieske/wager-settlement-core/internal/settlement-service/dto"
	"github.com/radieske/wager-settlement-core/internal/settlement-service/wallet"
	"github.com/radieske/wager-settlement-core/internal/shared/money"
)

const (
	headerPlayer = "X-Player-Address"
	headerAdmin  = "X-Admin-Token"
	headerOracle = "X-Oracle-Token"
)

// Wallet é o lado jogador da carteira: debita o stake antes de registrar a aposta
type Wallet interface {
	Debit(ctx context.Context, from common.Address, amount *uint256.Int, ref string) error
	Credit(ctx context.Context, to common.Address, amount *uint256.Int, ref string) error
}

// Identities traduz tokens de chamada para as identidades do core.
// Token errado vira o endereço zero e o engine rejeita com 403.
type Identities struct {
	Owner       common.Address
	Oracle      common.Address
	AdminToken  string
	OracleToken string
}

func (id Identities) caller(r *http.Request) common.Address {
	if tokenMatches(r.Header.Get(headerAdmin), id.AdminToken) {
		return id.Owner
	}
	if tokenMatches(r.Header.Get(headerOracle), id.OracleToken) {
		return id.Oracle
	}
	return common.Address{}
}

func tokenMatches(got, want string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// API expõe os engines de cada jogo por HTTP
type API struct {
	log     *zap.Logger
	wallet  Wallet
	ids     Identities
	engines map[string]*settlement.Engine
	games   []string
}

func New(log *zap.Logger, w Wallet, ids Identities, engines ...*settlement.Engine) *API {
	a := &API{log: log, wallet: w, ids: ids, engines: make(map[string]*settlement.Engine, len(engines))}
	for _, e := range engines {
		a.engines[e.Game()] = e
		a.games = append(a.games, e.Game())
	}
	sort.Strings(a.games)
	return a
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/v1/games", a.listGames)
	r.Route("/v1/games/{game}", func(r chi.Router) {
		r.Post("/bets", a.placeBet)
		r.Get("/bets/{requestID}", a.betInfo)
		r.Get("/stats", a.houseStats)
		r.Get("/players/{address}/stats", a.playerStats)
	})

	r.Post("/oracle/fulfill", a.fulfill)

	r.Route("/admin/games/{game}", func(r chi.Router) {
		r.Post("/funds", a.addFunds)
		r.Post("/withdraw", a.withdraw)
		r.Post("/pause", a.pause)
		r.Post("/unpause", a.unpause)
		r.Post("/bets/{requestID}/resolve-stuck", a.resolveStuck)
		r.Get("/stuck", a.stuckBets)
		r.Get("/oracle-config", a.getOracleConfig)
		r.Put("/oracle-config", a.putOracleConfig)
	})
	return r
}

func (a *API) listGames(w http.ResponseWriter, _ *http.Request) {
	out := make([]dto.GameResponse, 0, len(a.games))
	for _, g := range a.games {
		e := a.engines[g]
		lo, hi := e.Limits()
		out = append(out, dto.GameResponse{
			Game:   g,
			MinBet: money.FormatEther(lo),
			MaxBet: money.FormatEther(hi),
			Paused: e.HouseStats().Paused,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// placeBet debita a carteira e só então registra no engine. Se o engine
// recusar, o débito é devolvido com uma ref derivada da original.
func (a *API) placeBet(w http.ResponseWriter, r *http.Request) {
	e, ok := a.engine(w, r)
	if !ok {
		return
	}
	player, ok := parseAddress(r.Header.Get(headerPlayer))
	if !ok {
		writeMessage(w, http.StatusBadRequest, headerPlayer+" required")
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}
	stake, err := money.ParseEther(req.Stake)
	if err != nil {
		writeError(w, settlement.ErrInvalidAmount)
		return
	}
	if err := e.CheckBet(stake, req.Choice); err != nil {
		writeError(w, err)
		return
	}

	ref := "stake:" + uuid.NewString()
	if err := a.debit(r.Context(), player, stake, ref); err != nil {
		writeError(w, err)
		return
	}

	id, err := e.PlaceBet(r.Context(), player, stake, req.Choice)
	if err != nil {
		a.returnDebit(r.Context(), player, stake, ref)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, dto.PlaceBetResponse{RequestID: string(id), Status: "pending"})
}

func (a *API) betInfo(w http.ResponseWriter, r *http.Request) {
	e, ok := a.engine(w, r)
	if !ok {
		return
	}
	b, err := e.BetInfo(settlement.RequestID(chi.URLParam(r, "requestID")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BetInfo(b))
}

func (a *API) houseStats(w http.ResponseWriter, r *http.Request) {
	e, ok := a.engine(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dto.HouseStats(e.HouseStats()))
}

func (a *API) playerStats(w http.ResponseWriter, r *http.Request) {
	e, ok := a.engine(w, r)
	if !ok {
		return
	}
	player, ok := parseAddress(chi.URLParam(r, "address"))
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid address")
		return
	}
	writeJSON(w, http.StatusOK, dto.PlayerStats(player.Hex(), e.PlayerStats(player)))
}

// fulfill é o callback do oráculo
func (a *API) fulfill(w http.ResponseWriter, r *http.Request) {
	var req dto.FulfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}
	e, ok := a.engines[req.Game]
	if !ok {
		writeMessage(w, http.StatusNotFound, "unknown game")
		return
	}
	words := make([]*uint256.Int, 0, len(req.RandomWords))
	for _, s := range req.RandomWords {
		v, err := uint256.FromDecimal(s)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid random word")
			return
		}
		words = append(words, v)
	}

	res, err := e.OnRandomness(r.Context(), a.ids.caller(r), settlement.RequestID(req.RequestID), words)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Resolution(res))
}

// addFunds só credita a casa com o que saiu da carteira do owner
func (a *API) addFunds(w http.ResponseWriter, r *http.Request) {
	e, ok := a.engine(w, r)
	if !ok {
		return
	}
	if err := a.requireOwner(r); err != nil {
		writeError(w, err)
		return
	}
	amount, ok := decodeAmount(w, r)
	if !ok {
		return
	}
	house, err := a.FundHouse(r.Context(), e.Game(), amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.HouseBalanceResponse{Game: e.Game(), Balance: money.FormatEther(house)})
}

// FundHouse debita amount da carteira do owner (ref "fund:<uuid>") e credita
// a casa do jogo. Se o engine recusar, o débito volta com "return:"+ref.
func (a *API) FundHouse(ctx context.Context, game string, amount *uint256.Int) (*uint256.Int, error) {
	e, ok := a.engines[game]
	if !ok {
		return nil, fmt.Errorf("unknown game %q", game)
	}
	if amount == nil || amount.IsZero() {
		return nil, settlement.ErrInvalidAmount
	}
	ref := "fund:" + uuid.NewString()
	if err := a.debit(ctx, a.ids.Owner, amount, ref); err != nil {
		return nil, err
	}
	house, err := e.AddFunds(ctx, a.ids.Owner, amount)
	if err != nil {
		a.returnDebit(ctx, a.ids.Owner, amount, ref)
		return nil, err
	}
	return house, nil
}

func (a *API) withdraw(w http.ResponseWriter, r *http.Request) {
	e, ok := a.engine(w, r)
	if !ok {
		return
	}
	amount, ok := decodeAmount(w, r)
	if !ok {
		return
	}
	house, err := e.Withdraw(r.Context(), a.ids.caller(r), amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.HouseBalanceResponse{Game: e.Game(), Balance: money.FormatEther(house)})
}

func decodeAmount(w http.ResponseWriter, r *http.Request) (*uint256.Int, bool) {
	var req dto.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return nil, false
	}
	amount, err := money.ParseEther(req.Amount)
	if err != nil {
		writeError(w, settlement.ErrInvalidAmount)
		return nil, false
	}
	return amount, true
}

// walletError marca falhas da carteira para o mapeamento de status
type walletError struct {
	ref string
	err error
}

func (e *walletError) Error() string { return "wallet debit " + e.ref + ": " + e.err.Error() }
func (e *walletError) Unwrap() error { return e.err }

func (a *API) debit(ctx context.Context, from common.Address, amount *uint256.Int, ref string) error {
	if err := a.wallet.Debit(ctx, from, amount, ref); err != nil {
		if !errors.Is(err, wallet.ErrInsufficientFunds) {
			a.log.Error("wallet debit failed", zap.String("ref", ref), zap.Error(err))
		}
		return &walletError{ref: ref, err: err}
	}
	return nil
}

// returnDebit devolve um débito cuja operação não aconteceu. Roda mesmo se o
// cliente desistiu da requisição.
func (a *API) returnDebit(ctx context.Context, to common.Address, amount *uint256.Int, ref string) {
	if err := a.wallet.Credit(context.WithoutCancel(ctx), to, amount, "return:"+ref); err != nil {
		a.log.Error("debit return failed, manual reconciliation needed",
			zap.String("ref", ref),
			zap.String("address", to.Hex()),
			zap.String("amount_wei", amount.Dec()),
			zap.Error(err),
		)
	}
}

func (a *API) pause(w http.ResponseWriter, r *http.Request)   { a.setPaused(w, r, true) }
func (a *API) unpause(w http.ResponseWriter, r *http.Request) { a.setPaused(w, r, false) }

func (a *API) setPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	e, ok := a.engine(w, r)
	if !ok {
		return
	}
	fn := e.Unpause
	if paused {
		fn = e.Pause
	}
	if err := fn(a.ids.caller(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"game": e.Game(), "paused": paused})
}

func (a *API) resolveStuck(w http.ResponseWriter, r *http.Request) {
	e, ok := a.engine(w, r)
	if !ok {
		return
	}
	res, err := e.ResolveStuckBet(r.Context(), a.ids.caller(r), settlement.RequestID(chi.URLParam(r, "requestID")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Resolution(res))
}

func (a *API) stuckBets(w http.ResponseWriter, r *http.Request) {
	e, ok := a.engine(w, r)
	if !ok {
		return
	}
	if err := a.requireOwner(r); err != nil {
		writeError(w, err)
		return
	}
	stuck := e.StuckBets()
	out := make([]dto.BetInfoResponse, 0, len(stuck))
	for _, b := range stuck {
		out = append(out, dto.BetInfo(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getOracleConfig(w http.ResponseWriter, r *http.Request) {
	e, ok := a.engine(w, r)
	if !ok {
		return
	}
	if err := a.requireOwner(r); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OracleConfig(e.OracleConfig()))
}

func (a *API) putOracleConfig(w http.ResponseWriter, r *http.Request) {
	e, ok := a.engine(w, r)
	if !ok {
		return
	}
	var req dto.OracleConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}
	cfg := settlement.OracleConfig{
		KeyHash:              common.HexToHash(req.KeyHash),
		SubscriptionID:       req.SubscriptionID,
		CallbackGasLimit:     req.CallbackGasLimit,
		RequestConfirmations: req.RequestConfirmations,
		NumWords:             req.NumWords,
	}
	if err := e.UpdateOracleConfig(a.ids.caller(r), cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OracleConfig(e.OracleConfig()))
}

// requireOwner protege leituras administrativas que o engine não guarda
func (a *API) requireOwner(r *http.Request) error {
	if a.ids.caller(r) != a.ids.Owner {
		return settlement.ErrNotOwner
	}
	return nil
}

func (a *API) engine(w http.ResponseWriter, r *http.Request) (*settlement.Engine, bool) {
	e, ok := a.engines[chi.URLParam(r, "game")]
	if !ok {
		writeMessage(w, http.StatusNotFound, "unknown game")
	}
	return e, ok
}

func parseAddress(s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

func statusFor(k settlement.Kind) int {
	switch k {
	case settlement.KindValidation:
		return http.StatusBadRequest
	case settlement.KindNotFound:
		return http.StatusNotFound
	case settlement.KindAuth:
		return http.StatusForbidden
	case settlement.KindTransfer, settlement.KindUpstream:
		return http.StatusBadGateway
	case settlement.KindTimeout, settlement.KindInsolvent:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var we *walletError
	switch {
	case errors.Is(err, wallet.ErrInsufficientFunds):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Kind: "insufficient_funds"})
		return
	case errors.As(err, &we):
		writeJSON(w, http.StatusBadGateway, dto.ErrorResponse{Error: err.Error(), Kind: string(settlement.KindUpstream)})
		return
	}
	k := settlement.KindOf(err)
	writeJSON(w, statusFor(k), dto.ErrorResponse{Error: err.Error(), Kind: string(k)})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
