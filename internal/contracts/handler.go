package contracts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/schedule"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler manages contract HTTP endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/status", h.updateStatus)
	r.Post("/{id}/payments", h.applyPayment)
	r.Delete("/{id}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}

	req := ListContractsRequest{Search: r.URL.Query().Get("search")}
	req.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if req.Page < 1 {
		req.Page = 1
	}
	req.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if req.Limit < 1 {
		req.Limit = 20
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := schedule.ParentStatus(s)
		req.Status = &status
	}
	if c := r.URL.Query().Get("customer_id"); c != "" {
		if parsed, err := strconv.ParseInt(c, 10, 64); err == nil {
			req.CustomerID = &parsed
		}
	}

	contracts, total, err := h.service.List(r.Context(), id, req)
	if err != nil {
		h.logger.Error("list contracts failed", "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"contracts":  contracts,
		"pagination": shared.NewPagination(req.Page, req.Limit, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}

	var req CreateContractRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request Body", err.Error())
		return
	}

	contract, err := h.service.Create(r.Context(), id, req)
	if err != nil {
		h.logger.Error("create contract failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, contract)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	contractID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Contract ID", "")
		return
	}

	contract, err := h.service.Get(r.Context(), id, contractID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	contractID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Contract ID", "")
		return
	}

	var req UpdateContractRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request Body", err.Error())
		return
	}

	contract, err := h.service.Update(r.Context(), id, contractID, req)
	if err != nil {
		h.logger.Error("update contract failed", "error", err, "id", contractID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	contractID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Contract ID", "")
		return
	}

	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request Body", err.Error())
		return
	}

	contract, err := h.service.UpdateStatus(r.Context(), id, contractID, req)
	if err != nil {
		h.logger.Error("update contract status failed", "error", err, "id", contractID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

func (h *Handler) applyPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	contractID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Contract ID", "")
		return
	}

	var req ApplyPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request Body", err.Error())
		return
	}

	outcome, err := h.service.ApplyPayment(r.Context(), id, contractID, req)
	if err != nil {
		h.logger.Error("apply payment failed", "error", err, "id", contractID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, outcome)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	contractID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Contract ID", "")
		return
	}

	if err := h.service.Delete(r.Context(), id, contractID); err != nil {
		h.logger.Error("delete contract failed", "error", err, "id", contractID)
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
