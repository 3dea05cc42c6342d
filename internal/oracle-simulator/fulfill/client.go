package fulfill

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/holiman/uint256"

	sdto "github.com/radieske/wager-settlement-core/internal/settlement-service/dto"
)

// ErrRejected indica resposta 4xx que não muda com retry (token, payload).
// 404 fica de fora: o callback pode chegar antes do settlement registrar a aposta.
var ErrRejected = errors.New("fulfill rejected")

// Client entrega as palavras aleatórias no settlement-service
type Client struct {
	BaseURL string
	Route   string
	Token   string
	HTTP    *http.Client
}

func New(base, route, token string) *Client {
	return &Client{
		BaseURL: base,
		Route:   route,
		Token:   token,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) Fulfill(ctx context.Context, game, requestID string, words []*uint256.Int) error {
	req := sdto.FulfillRequest{Game: game, RequestID: requestID, RandomWords: make([]string, len(words))}
	for i, w := range words {
		req.RandomWords[i] = w.Dec()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+c.Route, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Oracle-Token", c.Token)

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	if res.StatusCode >= 400 && res.StatusCode < 500 && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: http %d: %s", ErrRejected, res.StatusCode, bytes.TrimSpace(msg))
	}
	return fmt.Errorf("fulfill %s: http %d: %s", requestID, res.StatusCode, bytes.TrimSpace(msg))
}
