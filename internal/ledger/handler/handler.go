package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"custos/internal/ledger"
	"custos/internal/policy"
	id "custos/pkg/domain"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// Service defines the interface for spending summaries.
type Service interface {
	DailySummary(ctx context.Context, dependentID id.DependentID) (ledger.Summary, error)
}

// PolicySource supplies the caps the summary reports headroom against.
type PolicySource interface {
	Get(ctx context.Context, dependentID id.DependentID) (policy.Policy, error)
}

// Handler wires the spending summary endpoint to the ledger.
type Handler struct {
	service  Service
	policies PolicySource
	logger   *slog.Logger
}

// New constructs a ledger handler with its dependencies.
func New(service Service, policies PolicySource, logger *slog.Logger) *Handler {
	return &Handler{service: service, policies: policies, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/dependents/{dependentID}/spending/summary", h.HandleSummary)
}

type categorySummary struct {
	Spent     string `json:"spent"`
	DailyCap  string `json:"daily_cap,omitempty"`
	Remaining string `json:"remaining,omitempty"`
}

type summaryResponse struct {
	Total      string                     `json:"total"`
	Categories map[string]categorySummary `json:"categories"`
}

// HandleSummary handles GET /dependents/{dependentID}/spending/summary
// requests. Every category is reported, including untouched ones, so the
// guardian app renders a stable view.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dependentID, err := id.ParseDependentID(chi.URLParam(r, "dependentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summary, err := h.service.DailySummary(ctx, dependentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load spending summary",
			"request_id", requestcontext.RequestID(ctx),
			"dependent_id", dependentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	pol, err := h.policies.Get(ctx, dependentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := summaryResponse{
		Total:      summary.Total.String(),
		Categories: make(map[string]categorySummary, len(id.Categories)),
	}
	for _, category := range id.Categories {
		spent := summary.ByCategory[category]
		entry := categorySummary{Spent: spent.String()}
		if cap := pol.DailyCap(category); cap != nil {
			entry.DailyCap = cap.String()
			entry.Remaining = decimal.Max(decimal.Zero, cap.Sub(spent)).String()
		}
		resp.Categories[string(category)] = entry
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
