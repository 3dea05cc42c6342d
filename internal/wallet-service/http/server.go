package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/internal/shared/money"
	"github.com/radieske/wager-settlement-core/internal/wallet-service/dto"
	"github.com/radieske/wager-settlement-core/internal/wallet-service/repo"
)

// Repo define a interface de operações de carteira usadas pelo handler HTTP
type Repo interface {
	GetOrCreateWallet(ctx context.Context, address string) (walletID string, balance *uint256.Int, err error)
	Deposit(ctx context.Context, address string, amount *uint256.Int, externalRef string) (walletID string, newBalance *uint256.Int, err error)
	Debit(ctx context.Context, address string, amount *uint256.Int, externalRef string) (*uint256.Int, error)
	Credit(ctx context.Context, address string, amount *uint256.Int, externalRef string) (*uint256.Int, error)
}

// Server expõe endpoints HTTP para operações de carteira (wallet)
type Server struct {
	log  *zap.Logger
	repo Repo
}

func NewServer(log *zap.Logger, repo Repo) *Server { return &Server{log: log, repo: repo} }

// Router retorna o mux HTTP com as rotas da API de wallet
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wallet", s.getWallet)        // ?address=0x...
	mux.HandleFunc("POST /wallet/deposit", s.deposit) // jogador
	mux.HandleFunc("POST /wallet/debit", s.debit)     // settlement: stake
	mux.HandleFunc("POST /wallet/credit", s.credit)   // settlement: prêmio/reembolso/saque
	return mux
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(r.URL.Query().Get("address"))
	if !ok {
		http.Error(w, "address required", http.StatusBadRequest)
		return
	}
	walletID, bal, err := s.repo.GetOrCreateWallet(r.Context(), addr)
	if err != nil {
		s.log.Error("get wallet", zap.String("address", addr), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, walletResponse(addr, walletID, bal))
}

// deposit aceita o valor em wei; sem external_ref não há idempotência
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	addr, ok := parseAddress(req.Address)
	amount, err := money.ParseWei(req.AmountWei)
	if !ok || err != nil || amount.IsZero() {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	walletID, bal, err := s.repo.Deposit(r.Context(), addr, amount, req.ExternalRef)
	if err != nil {
		s.log.Error("deposit", zap.String("address", addr), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, walletResponse(addr, walletID, bal))
}

func (s *Server) debit(w http.ResponseWriter, r *http.Request) {
	s.movement(w, r, "DEBITED", s.repo.Debit)
}

func (s *Server) credit(w http.ResponseWriter, r *http.Request) {
	s.movement(w, r, "CREDITED", s.repo.Credit)
}

type moveFunc func(ctx context.Context, address string, amount *uint256.Int, externalRef string) (*uint256.Int, error)

func (s *Server) movement(w http.ResponseWriter, r *http.Request, status string, fn moveFunc) {
	var req dto.MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	addr, ok := parseAddress(req.Address)
	amount, err := money.ParseWei(req.AmountWei)
	if !ok || err != nil || amount.IsZero() || req.ExternalRef == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	bal, err := fn(r.Context(), addr, amount, req.ExternalRef)
	switch {
	case errors.Is(err, repo.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, "wallet not found", http.StatusNotFound)
		return
	case err != nil:
		s.log.Error("wallet movement", zap.String("status", status), zap.String("ref", req.ExternalRef), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.log.Debug("wallet movement",
		zap.String("status", status),
		zap.String("address", addr),
		zap.String("amount_wei", amount.Dec()),
		zap.String("ref", req.ExternalRef),
	)
	writeJSON(w, dto.MovementResponse{ExternalRef: req.ExternalRef, BalanceWei: bal.Dec(), Status: status})
}

// parseAddress normaliza para checksum, assim a mesma conta não vira duas carteiras
func parseAddress(s string) (string, bool) {
	if !common.IsHexAddress(s) {
		return "", false
	}
	return common.HexToAddress(s).Hex(), true
}

func walletResponse(addr, walletID string, bal *uint256.Int) dto.WalletResponse {
	return dto.WalletResponse{
		Address:    addr,
		WalletID:   walletID,
		BalanceWei: bal.Dec(),
		Balance:    money.FormatEther(bal),
	}
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
