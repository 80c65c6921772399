package analytics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opencanteen/opencanteen/internal/platform/httpx"
)

// Handler wires dashboard analytics endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers analytics routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/overview", h.overview)
	r.Get("/schools/{school}/trend", h.trend)
	r.Get("/schools/{school}/{year}/{month}", h.schoolMonth)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.Error("overview", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	schoolID, err := strconv.ParseInt(chi.URLParam(r, "school"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid school id")
		return
	}
	months, _ := strconv.Atoi(r.URL.Query().Get("months"))
	view, err := h.service.SchoolTrend(r.Context(), schoolID, months)
	if err != nil {
		h.logger.Error("school trend", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) schoolMonth(w http.ResponseWriter, r *http.Request) {
	schoolID, err := strconv.ParseInt(chi.URLParam(r, "school"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid school id")
		return
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid year")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid month")
		return
	}
	view, err := h.service.SchoolMonth(r.Context(), schoolID, year, time.Month(month))
	if err != nil {
		h.logger.Error("school month", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}
