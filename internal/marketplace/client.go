// Package marketplace is the HTTP client for the trading collaborator. It
// implements the execution.Marketplace port.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"custos/internal/execution"
	"custos/internal/keyvault"
	dErrors "custos/pkg/domain-errors"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

type tradeRequest struct {
	Action string            `json:"action"`
	Signer string            `json:"signer"`
	Amount string            `json:"amount"`
	Token  string            `json:"token"`
	Params map[string]string `json:"params,omitempty"`
	Fee    *tradeFee         `json:"fee,omitempty"`
}

type tradeFee struct {
	Amount string `json:"amount"`
	Token  string `json:"token"`
}

type tradeResponse struct {
	TxHash  string `json:"tx_hash"`
	OrderID string `json:"order_id"`
}

type tradeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Buy(ctx context.Context, signer keyvault.Handle, order execution.Order, fee execution.FeeInstruction) (execution.TradeResult, error) {
	return c.submit(ctx, "buy", signer, order, &fee)
}

func (c *Client) MakeOffer(ctx context.Context, signer keyvault.Handle, order execution.Order) (execution.TradeResult, error) {
	return c.submit(ctx, "make_offer", signer, order, nil)
}

func (c *Client) AcceptOffer(ctx context.Context, signer keyvault.Handle, order execution.Order, fee execution.FeeInstruction) (execution.TradeResult, error) {
	return c.submit(ctx, "accept_offer", signer, order, &fee)
}

func (c *Client) CancelListing(ctx context.Context, signer keyvault.Handle, order execution.Order) (execution.TradeResult, error) {
	return c.submit(ctx, "cancel_listing", signer, order, nil)
}

func (c *Client) Transfer(ctx context.Context, signer keyvault.Handle, order execution.Order) (execution.TradeResult, error) {
	return c.submit(ctx, "direct_transfer", signer, order, nil)
}

func (c *Client) Swap(ctx context.Context, signer keyvault.Handle, order execution.Order) (execution.TradeResult, error) {
	return c.submit(ctx, "swap", signer, order, nil)
}

// submit posts one trade. A fee, when present, rides on the same call so
// trade and fee settle atomically on the marketplace side.
func (c *Client) submit(ctx context.Context, action string, signer keyvault.Handle, order execution.Order, fee *execution.FeeInstruction) (execution.TradeResult, error) {
	payload := tradeRequest{
		Action: action,
		Signer: signer.Ref(),
		Amount: order.Amount.String(),
		Token:  order.Token,
		Params: order.Params,
	}
	if fee != nil {
		payload.Fee = &tradeFee{Amount: fee.Amount.String(), Token: fee.Token}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return execution.TradeResult{}, fmt.Errorf("encode trade request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/trades", bytes.NewReader(body))
	if err != nil {
		return execution.TradeResult{}, fmt.Errorf("build trade request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return execution.TradeResult{}, fmt.Errorf("submit %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return execution.TradeResult{}, c.decodeError(action, resp)
	}

	var trade tradeResponse
	if err := json.NewDecoder(resp.Body).Decode(&trade); err != nil {
		return execution.TradeResult{}, fmt.Errorf("decode %s response: %w", action, err)
	}
	return execution.TradeResult{TxHash: trade.TxHash, OrderID: trade.OrderID}, nil
}

func (c *Client) decodeError(action string, resp *http.Response) error {
	var te tradeError
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&te); err != nil {
		return dErrors.New(dErrors.CodeExternalServiceFailure,
			fmt.Sprintf("marketplace %s: status %d", action, resp.StatusCode))
	}

	// The marketplace reports a shortage of settlement funds as its own
	// error code; everything else is opaque collaborator failure.
	if te.Code == "insufficient_funds" {
		return dErrors.New(dErrors.CodeInsufficientFunds, "wallet cannot cover the trade and fee")
	}
	return dErrors.New(dErrors.CodeExternalServiceFailure,
		fmt.Sprintf("marketplace %s: %s (%s)", action, te.Message, te.Code))
}
