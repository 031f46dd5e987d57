// Package chainrpc is a JSON-RPC client for the chain node. It implements
// the balance, transfer and finality surface the gas sponsor needs.
package chainrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"custos/internal/family"
	"custos/internal/keyvault"
)

type Client struct {
	httpClient   *http.Client
	baseURL      string
	pollInterval time.Duration
	logger       *slog.Logger
	nextID       atomic.Uint64
}

func NewClient(baseURL string, pollInterval time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		baseURL:      baseURL,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encode rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("call %s: unexpected status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("call %s: %w", method, rpcResp.Error)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

func (c *Client) NativeBalance(ctx context.Context, wallet family.WalletRef) (decimal.Decimal, error) {
	var raw string
	if err := c.call(ctx, "wallet_getNativeBalance", []string{string(wallet)}, &raw); err != nil {
		return decimal.Zero, err
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", raw, err)
	}
	return balance, nil
}

func (c *Client) SendNative(ctx context.Context, signer keyvault.Handle, to family.WalletRef, amount decimal.Decimal) (string, error) {
	params := map[string]string{
		"signer": signer.Ref(),
		"to":     string(to),
		"amount": amount.String(),
	}
	var txHash string
	if err := c.call(ctx, "wallet_sendNative", params, &txHash); err != nil {
		return "", err
	}
	return txHash, nil
}

type txStatus struct {
	Status string `json:"status"`
}

// WaitForFinality polls the node until the transaction is final, failed, or
// ctx expires. The caller bounds the wait with a deadline.
func (c *Client) WaitForFinality(ctx context.Context, txHash string) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var status txStatus
		err := c.call(ctx, "chain_getTransactionStatus", []string{txHash}, &status)
		switch {
		case err != nil:
			// Transient poll errors are retried until the deadline.
			c.logger.DebugContext(ctx, "finality poll failed", "tx_hash", txHash, "error", err)
		case status.Status == "final":
			return nil
		case status.Status == "failed":
			return fmt.Errorf("transaction %s failed on chain", txHash)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for finality of %s: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}
