package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	walletdto "github.com/radieske/wager-settlement-core/internal/wallet-service/dto"
)

func TestClientCreditAndDebit(t *testing.T) {
	var got []walletdto.MovementRequest
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req walletdto.MovementRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		got = append(got, req)
		paths = append(paths, r.URL.Path)
		if req.AmountWei == "999" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	player := common.HexToAddress("0x00000000000000000000000000000000000000C3")

	if err := c.Transfer(context.Background(), player, uint256.NewInt(10), "payout:r1"); err != nil {
		t.Fatal(err)
	}
	if err := c.Debit(context.Background(), player, uint256.NewInt(999), "stake:x"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("debit err = %v", err)
	}

	if paths[0] != "/wallet/credit" || paths[1] != "/wallet/debit" {
		t.Fatalf("paths = %v", paths)
	}
	if got[0].Address != player.Hex() || got[0].AmountWei != "10" || got[0].ExternalRef != "payout:r1" {
		t.Fatalf("credit payload = %+v", got[0])
	}
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New(srv.URL).Transfer(context.Background(), common.Address{}, uint256.NewInt(1), "r")
	if err == nil || errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v", err)
	}
}
