package collections

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/schedule"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler manages collection file HTTP endpoints.
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
	r.Post("/{id}/collect", h.collect)
	r.Delete("/{id}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}

	req := ListCollectionsRequest{Search: r.URL.Query().Get("search")}
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
	if a := r.URL.Query().Get("assigned_to"); a != "" {
		if parsed, err := strconv.ParseInt(a, 10, 64); err == nil {
			req.AssignedTo = &parsed
		}
	}

	files, total, err := h.service.List(r.Context(), id, req)
	if err != nil {
		h.logger.Error("list collections failed", "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"collections": files,
		"pagination":  shared.NewPagination(req.Page, req.Limit, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}

	var req CreateCollectionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request Body", err.Error())
		return
	}

	collection, err := h.service.Create(r.Context(), id, req)
	if err != nil {
		h.logger.Error("create collection failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, collection)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	collectionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Collection ID", "")
		return
	}

	collection, err := h.service.Get(r.Context(), id, collectionID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, collection)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	collectionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Collection ID", "")
		return
	}

	var req UpdateCollectionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request Body", err.Error())
		return
	}

	collection, err := h.service.Update(r.Context(), id, collectionID, req)
	if err != nil {
		h.logger.Error("update collection failed", "error", err, "id", collectionID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, collection)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	collectionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Collection ID", "")
		return
	}

	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request Body", err.Error())
		return
	}

	collection, err := h.service.UpdateStatus(r.Context(), id, collectionID, req)
	if err != nil {
		h.logger.Error("update collection status failed", "error", err, "id", collectionID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, collection)
}

func (h *Handler) collect(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	collectionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Collection ID", "")
		return
	}

	var req CollectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request Body", err.Error())
		return
	}

	outcome, err := h.service.Collect(r.Context(), id, collectionID, req)
	if err != nil {
		h.logger.Error("collect failed", "error", err, "id", collectionID)
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
	collectionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Collection ID", "")
		return
	}

	if err := h.service.Delete(r.Context(), id, collectionID); err != nil {
		h.logger.Error("delete collection failed", "error", err, "id", collectionID)
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
