package dailysales

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/opencanteen/opencanteen/internal/platform/httpx"
	"github.com/opencanteen/opencanteen/internal/rbac"
)

// AggregateInvalidator drops cached analytics once new figures land, so
// dashboards do not serve stale numbers until their TTL runs out.
type AggregateInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Handler wires daily sales HTTP endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	invalidator AggregateInvalidator
	validate    *validator.Validate
}

// NewHandler constructs a Handler. invalidator may be nil.
func NewHandler(logger *slog.Logger, service *Service, invalidator AggregateInvalidator) *Handler {
	return &Handler{logger: logger, service: service, invalidator: invalidator, validate: validator.New()}
}

// MountRoutes registers daily sales routes on the provided router. The
// summaries are readable by anyone in the group; recording figures demands
// write access.
func (h *Handler) MountRoutes(r chi.Router, guard func(perm string) func(http.Handler) http.Handler) {
	r.Route("/{school}/{year}/{month}", func(r chi.Router) {
		r.Get("/summary", h.summary)
		r.Get("/summary/filtered", h.filtered)
		r.Get("/entries", h.entries)
		r.With(guard(rbac.PermReportsWrite)).Put("/entries", h.record)
	})
}

func paramsFromRequest(r *http.Request) (int64, int, time.Month, error) {
	schoolID, err := strconv.ParseInt(chi.URLParam(r, "school"), 10, 64)
	if err != nil {
		return 0, 0, 0, errors.New("invalid school id")
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, 0, errors.New("invalid year")
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, 0, errors.New("invalid month")
	}
	return schoolID, year, time.Month(month), nil
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	schoolID, year, month, err := paramsFromRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	summary, err := h.service.MonthSummary(r.Context(), schoolID, year, month)
	if err != nil {
		h.logger.Error("month summary", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) filtered(w http.ResponseWriter, r *http.Request) {
	schoolID, year, month, err := paramsFromRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	from, to := monthStart, monthStart.AddDate(0, 1, -1)
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid from date")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse("2006-01-02", v); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid to date")
			return
		}
	}
	entries, err := h.service.FilteredEntries(r.Context(), schoolID, from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) entries(w http.ResponseWriter, r *http.Request) {
	schoolID, year, month, err := paramsFromRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	entries, err := h.service.MonthEntries(r.Context(), schoolID, year, month)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

type recordRequest struct {
	Date      string  `json:"date" validate:"required"`
	Sales     float64 `json:"sales" validate:"gte=0"`
	Purchases float64 `json:"purchases" validate:"gte=0"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	schoolID, year, month, err := paramsFromRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid date")
		return
	}
	if date.Year() != year || date.Month() != month {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date outside period")
		return
	}
	entry := DailyEntry{SchoolID: schoolID, Date: date, Sales: req.Sales, Purchases: req.Purchases}
	if err := h.service.Record(r.Context(), entry); err != nil {
		h.respondError(w, err)
		return
	}
	if h.invalidator != nil {
		// The figure is already persisted; a failed cache bump only delays
		// dashboard freshness by the TTL.
		if err := h.invalidator.Invalidate(r.Context()); err != nil {
			h.logger.Warn("invalidate analytics cache", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidEntry):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error("dailysales handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
