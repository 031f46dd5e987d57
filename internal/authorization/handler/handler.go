package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"custos/internal/authorization"
	"custos/internal/execution"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// Service defines the interface for spending authorization.
type Service interface {
	AuthorizeAndExecute(ctx context.Context, req authorization.Request) (authorization.Result, error)
}

// Handler wires the spending endpoint to the authorizer.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an authorization handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts spending endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/spending/authorize", h.HandleAuthorize)
}

type authorizeRequest struct {
	DependentID string            `json:"dependent_id"`
	Category    string            `json:"category"`
	ActionKind  string            `json:"action_kind"`
	Amount      string            `json:"amount"`
	Token       string            `json:"token"`
	Params      map[string]string `json:"params,omitempty"`
}

type authorizeResponse struct {
	Success   bool   `json:"success"`
	RecordID  string `json:"record_id"`
	TxHash    string `json:"tx_hash,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	Remaining string `json:"remaining,omitempty"`
}

// HandleAuthorize handles POST /spending/authorize requests.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.Decode[authorizeRequest](w, r, h.logger)
	if !ok {
		return
	}

	domainReq, err := req.toDomain()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.AuthorizeAndExecute(ctx, domainReq)
	if err != nil {
		h.logger.InfoContext(ctx, "spending request rejected",
			"request_id", requestID,
			"dependent_id", req.DependentID,
			"category", req.Category,
			"error", err,
		)
		writeRejection(w, err, result.Remaining)
		return
	}

	h.logger.InfoContext(ctx, "spending request authorized",
		"request_id", requestID,
		"dependent_id", req.DependentID,
		"category", req.Category,
		"action_kind", req.ActionKind,
		"tx_hash", result.TxHash,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	resp := authorizeResponse{
		Success:  true,
		RecordID: result.RecordID.String(),
		TxHash:   result.TxHash,
		OrderID:  result.OrderID,
	}
	if result.Remaining != nil {
		resp.Remaining = result.Remaining.String()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (r authorizeRequest) toDomain() (authorization.Request, error) {
	dependentID, err := id.ParseDependentID(r.DependentID)
	if err != nil {
		return authorization.Request{}, err
	}
	category, err := id.ParseCategory(r.Category)
	if err != nil {
		return authorization.Request{}, err
	}
	actionKind, err := execution.ParseActionKind(r.ActionKind)
	if err != nil {
		return authorization.Request{}, err
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return authorization.Request{}, dErrors.New(dErrors.CodeInvalidInput, "malformed amount")
	}
	return authorization.Request{
		DependentID: dependentID,
		Category:    category,
		ActionKind:  actionKind,
		Amount:      amount,
		Token:       r.Token,
		Params:      r.Params,
	}, nil
}

// writeRejection extends the standard error envelope with the remaining
// daily headroom when a cap denial knows it.
func writeRejection(w http.ResponseWriter, err error, remaining *decimal.Decimal) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if desc := dErrors.SafeDescription(err); desc != "" {
		body["error_description"] = desc
	}
	if remaining != nil {
		body["remaining"] = remaining.String()
	}
	httputil.WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
