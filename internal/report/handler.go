package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/opencanteen/opencanteen/internal/platform/httpx"
	"github.com/opencanteen/opencanteen/internal/rbac"
	"github.com/opencanteen/opencanteen/internal/shared"
)

// PDFRenderer renders a liquidation report as a PDF document.
type PDFRenderer interface {
	RenderLiquidationPDF(rep *Report, schoolName string) ([]byte, error)
}

// ExcelRenderer renders a liquidation report as an Excel workbook.
type ExcelRenderer interface {
	RenderLiquidationExcel(rep *Report, schoolName string) ([]byte, error)
}

// SchoolDirectory resolves school display names for exports.
type SchoolDirectory interface {
	SchoolName(ctx context.Context, id int64) (string, error)
}

// Handler wires liquidation report HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	schools  SchoolDirectory
	pdf      PDFRenderer
	excel    ExcelRenderer
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, schools SchoolDirectory, pdf PDFRenderer, excel ExcelRenderer) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		schools:  schools,
		pdf:      pdf,
		excel:    excel,
		validate: validator.New(),
	}
}

// Guard builds a middleware rejecting callers without the named permission.
type Guard func(perm string) func(http.Handler) http.Handler

// MountRoutes registers report routes on the provided router. Reads stay
// open to anyone admitted to the group; content writes additionally demand
// write access. Status transitions carry their own permission checks in
// the service.
func (h *Handler) MountRoutes(r chi.Router, guard Guard) {
	r.Route("/{school}/{year}/{month}/{category}", func(r chi.Router) {
		r.Get("/", h.get)
		r.With(guard(rbac.PermReportsWrite)).Patch("/", h.upsert)
		r.Patch("/status", h.changeStatus)
		r.Get("/approvals", h.approvals)
		r.Get("/export.pdf", h.exportPDF)
		r.Get("/export.xlsx", h.exportExcel)
	})
}

func keyFromRequest(r *http.Request) (Key, error) {
	schoolID, err := strconv.ParseInt(chi.URLParam(r, "school"), 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("invalid school id")
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 2000 || year > 2200 {
		return Key{}, fmt.Errorf("invalid year")
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		return Key{}, fmt.Errorf("invalid month")
	}
	category := Category(chi.URLParam(r, "category"))
	if !category.Valid() {
		return Key{}, fmt.Errorf("invalid category")
	}
	return Key{SchoolID: schoolID, Year: year, Month: time.Month(month), Category: category}, nil
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	rep, err := h.service.Get(r.Context(), key)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

type entryDTO struct {
	Date        string  `json:"date" validate:"required"`
	Receipt     string  `json:"receipt"`
	Particulars string  `json:"particulars" validate:"required"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

type upsertRequest struct {
	Memo            string       `json:"memo"`
	PreparedBy      string       `json:"prepared_by"`
	NotedBy         string       `json:"noted_by"`
	TeacherInCharge string       `json:"teacher_in_charge"`
	Entries         []entryDTO   `json:"entries" validate:"dive"`
	Attachments     []Attachment `json:"attachments"`
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	var req upsertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entries := make([]Entry, 0, len(req.Entries))
	for i, dto := range req.Entries {
		date, err := time.Parse("2006-01-02", dto.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", fmt.Sprintf("entry %d: invalid date", i))
			return
		}
		entries = append(entries, Entry{
			Date:        date,
			Receipt:     dto.Receipt,
			Particulars: dto.Particulars,
			Quantity:    dto.Quantity,
			Unit:        dto.Unit,
			UnitPrice:   dto.UnitPrice,
			Amount:      dto.Amount,
		})
	}
	in := UpsertInput{
		Memo:            req.Memo,
		PreparedBy:      req.PreparedBy,
		NotedBy:         req.NotedBy,
		TeacherInCharge: req.TeacherInCharge,
		Entries:         entries,
		Attachments:     req.Attachments,
	}
	if in.PreparedBy == "" {
		if id := shared.IdentityFromContext(r.Context()); id != nil {
			in.PreparedBy = id.UserID
		}
	}
	rep, err := h.service.Upsert(r.Context(), key, in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

type statusRequest struct {
	NewStatus string `json:"new_status" validate:"required"`
	Comments  string `json:"comments"`
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	rep, err := h.service.ChangeStatus(r.Context(), key, Status(req.NewStatus), req.Comments, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) approvals(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	logs, err := h.service.Approvals(r.Context(), key)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, logs)
}

func (h *Handler) exportPDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/pdf", "liquidation.pdf", func(rep *Report, school string) ([]byte, error) {
		return h.pdf.RenderLiquidationPDF(rep, school)
	})
}

func (h *Handler) exportExcel(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "liquidation.xlsx", func(rep *Report, school string) ([]byte, error) {
		return h.excel.RenderLiquidationExcel(rep, school)
	})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, contentType, filename string, render func(*Report, string) ([]byte, error)) {
	key, err := keyFromRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	rep, err := h.service.Get(r.Context(), key)
	if err != nil {
		h.respondError(w, err)
		return
	}
	schoolName, err := h.schools.SchoolName(r.Context(), rep.SchoolID)
	if err != nil {
		schoolName = fmt.Sprintf("School %d", rep.SchoolID)
	}
	data, err := render(rep, schoolName)
	if err != nil {
		h.logger.Error("render export", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var entryErr EntryError
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrReportLocked):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrNotNotedBy), errors.Is(err, ErrSignatureMissing), errors.Is(err, ErrPermissionDenied):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.As(err, &entryErr),
		errors.Is(err, ErrNoEntries),
		errors.Is(err, ErrPreparerMissing),
		errors.Is(err, ErrUnknownCategory),
		errors.Is(err, ErrUnknownStatus):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("report handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
