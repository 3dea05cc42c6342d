package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	walletdto "github.com/radieske/wager-settlement-core/internal/wallet-service/dto"
)

var ErrInsufficientFunds = errors.New("wallet: insufficient funds")

// Client fala com o wallet-service. Todas as operações são idempotentes por externalRef.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Transfer credita o jogador; é o colaborador de transferência do core
func (c *Client) Transfer(ctx context.Context, to common.Address, amount *uint256.Int, ref string) error {
	return c.Credit(ctx, to, amount, ref)
}

func (c *Client) Credit(ctx context.Context, to common.Address, amount *uint256.Int, ref string) error {
	return c.post(ctx, "/wallet/credit", walletdto.MovementRequest{
		Address:     to.Hex(),
		AmountWei:   amount.Dec(),
		ExternalRef: ref,
	})
}

// Debit retira o stake antes de registrar a aposta
func (c *Client) Debit(ctx context.Context, from common.Address, amount *uint256.Int, ref string) error {
	return c.post(ctx, "/wallet/debit", walletdto.MovementRequest{
		Address:     from.Hex(),
		AmountWei:   amount.Dec(),
		ExternalRef: ref,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusConflict:
		return ErrInsufficientFunds
	case res.StatusCode >= 300:
		return fmt.Errorf("wallet %s http %d", path, res.StatusCode)
	}
	return nil
}
