package reports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/installment-book", h.installmentBook)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}

	summary, err := h.service.Summary(r.Context(), id)
	if err != nil {
		h.logger.Error("portfolio summary failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) installmentBook(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}

	var contractID *int64
	if c := r.URL.Query().Get("contract_id"); c != "" {
		parsed, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Contract ID", "")
			return
		}
		contractID = &parsed
	}

	payload, err := h.service.InstallmentBook(r.Context(), id, contractID)
	if err != nil {
		h.logger.Error("installment book export failed", "error", err)
		httpx.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="installment-book.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
