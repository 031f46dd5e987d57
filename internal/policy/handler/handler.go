package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custos/internal/policy"
	id "custos/pkg/domain"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// Service defines the interface for policy operations.
type Service interface {
	Get(ctx context.Context, dependentID id.DependentID) (policy.Policy, error)
	Update(ctx context.Context, dependentID id.DependentID, patch policy.Patch) (policy.Policy, error)
}

// Handler wires guardian policy endpoints to the policy service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a policy handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts policy endpoints on the router. The router is expected to
// enforce guardian-only access.
func (h *Handler) Register(r chi.Router) {
	r.Get("/dependents/{dependentID}/policy", h.HandleGet)
	r.Patch("/dependents/{dependentID}/policy", h.HandleUpdate)
}

// HandleGet handles GET /dependents/{dependentID}/policy requests. Unknown
// dependents get the default policy, mirroring what the authorizer enforces.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dependentID, err := id.ParseDependentID(chi.URLParam(r, "dependentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Get(ctx, dependentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load policy",
			"request_id", requestcontext.RequestID(ctx),
			"dependent_id", dependentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleUpdate handles PATCH /dependents/{dependentID}/policy requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	dependentID, err := id.ParseDependentID(chi.URLParam(r, "dependentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	patch, ok := httputil.Decode[policy.Patch](w, r, h.logger)
	if !ok {
		return
	}

	updated, err := h.service.Update(ctx, dependentID, patch)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update policy",
			"request_id", requestID,
			"dependent_id", dependentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "policy updated",
		"request_id", requestID,
		"dependent_id", dependentID,
		"updated_by", requestcontext.Subject(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, updated)
}
