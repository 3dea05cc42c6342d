package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-core/internal/wallet-service/dto"
	"github.com/radieske/wager-settlement-core/internal/wallet-service/repo"
)

const addr = "0x00000000000000000000000000000000000000a1"

// memRepo imita o Postgres: saldo por endereço e refs já aplicadas
type memRepo struct {
	mu   sync.Mutex
	bal  map[string]*uint256.Int
	refs map[string]bool
}

func newMemRepo() *memRepo {
	return &memRepo{bal: map[string]*uint256.Int{}, refs: map[string]bool{}}
}

func (m *memRepo) balance(a string) *uint256.Int {
	if b, ok := m.bal[a]; ok {
		return b
	}
	b := new(uint256.Int)
	m.bal[a] = b
	return b
}

func (m *memRepo) GetOrCreateWallet(_ context.Context, a string) (string, *uint256.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return "w-" + a, m.balance(a).Clone(), nil
}

func (m *memRepo) Deposit(ctx context.Context, a string, amount *uint256.Int, ref string) (string, *uint256.Int, error) {
	bal, err := m.Credit(ctx, a, amount, ref)
	return "w-" + a, bal, err
}

func (m *memRepo) Debit(_ context.Context, a string, amount *uint256.Int, ref string) (*uint256.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.balance(a)
	if m.refs["D"+ref] {
		return b.Clone(), nil
	}
	if b.Lt(amount) {
		return nil, repo.ErrInsufficientFunds
	}
	b.Sub(b, amount)
	m.refs["D"+ref] = true
	return b.Clone(), nil
}

func (m *memRepo) Credit(_ context.Context, a string, amount *uint256.Int, ref string) (*uint256.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.balance(a)
	if ref != "" && m.refs["C"+ref] {
		return b.Clone(), nil
	}
	b.Add(b, amount)
	if ref != "" {
		m.refs["C"+ref] = true
	}
	return b.Clone(), nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDebitCreditFlow(t *testing.T) {
	h := NewServer(zap.NewNop(), newMemRepo()).Router()

	rec := do(t, h, http.MethodPost, "/wallet/deposit", `{"address":"`+addr+`","amount_wei":"1000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit: got %d %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodPost, "/wallet/debit", `{"address":"`+addr+`","amount_wei":"400","external_ref":"stake:1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("debit: got %d %s", rec.Code, rec.Body)
	}
	var mv dto.MovementResponse
	if err := json.NewDecoder(rec.Body).Decode(&mv); err != nil {
		t.Fatal(err)
	}
	if mv.BalanceWei != "600" || mv.Status != "DEBITED" {
		t.Fatalf("unexpected debit response %+v", mv)
	}

	// mesma ref não debita de novo
	rec = do(t, h, http.MethodPost, "/wallet/debit", `{"address":"`+addr+`","amount_wei":"400","external_ref":"stake:1"}`)
	_ = json.NewDecoder(rec.Body).Decode(&mv)
	if mv.BalanceWei != "600" {
		t.Fatalf("debit replay changed balance: %s", mv.BalanceWei)
	}

	rec = do(t, h, http.MethodPost, "/wallet/credit", `{"address":"`+addr+`","amount_wei":"800","external_ref":"payout:r1"}`)
	_ = json.NewDecoder(rec.Body).Decode(&mv)
	if mv.BalanceWei != "1400" || mv.Status != "CREDITED" {
		t.Fatalf("unexpected credit response %+v", mv)
	}

	rec = do(t, h, http.MethodGet, "/wallet?address="+addr, "")
	var wr dto.WalletResponse
	if err := json.NewDecoder(rec.Body).Decode(&wr); err != nil {
		t.Fatal(err)
	}
	if wr.BalanceWei != "1400" || wr.Balance != "0.0000000000000014" {
		t.Fatalf("unexpected wallet %+v", wr)
	}
}

func TestDebitInsufficientFunds(t *testing.T) {
	h := NewServer(zap.NewNop(), newMemRepo()).Router()

	rec := do(t, h, http.MethodPost, "/wallet/debit", `{"address":"`+addr+`","amount_wei":"1","external_ref":"stake:x"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d", rec.Code)
	}
}

func TestInvalidPayloads(t *testing.T) {
	h := NewServer(zap.NewNop(), newMemRepo()).Router()

	cases := []struct {
		name, method, path, body string
	}{
		{"bad json", http.MethodPost, "/wallet/credit", `{`},
		{"bad address", http.MethodPost, "/wallet/credit", `{"address":"nope","amount_wei":"1","external_ref":"r"}`},
		{"zero amount", http.MethodPost, "/wallet/credit", `{"address":"` + addr + `","amount_wei":"0","external_ref":"r"}`},
		{"negative amount", http.MethodPost, "/wallet/debit", `{"address":"` + addr + `","amount_wei":"-5","external_ref":"r"}`},
		{"missing ref", http.MethodPost, "/wallet/debit", `{"address":"` + addr + `","amount_wei":"5"}`},
		{"missing address", http.MethodGet, "/wallet", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d", rec.Code)
			}
		})
	}
}
