package invoicing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerline-erp/ledgerline-erp/internal/auditlog"
	"github.com/ledgerline-erp/ledgerline-erp/internal/platform/httpx"
	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

// Handler exposes the invoice lifecycle JSON API.
type Handler struct {
	logger   *slog.Logger
	svc      *Service
	views    *ViewCache
	trail    *auditlog.Service
	validate *validator.Validate
}

// NewHandler constructs an invoicing handler. views may be nil; detail reads
// then build the view directly without caching.
func NewHandler(logger *slog.Logger, svc *Service, views *ViewCache, trail *auditlog.Service) *Handler {
	return &Handler{
		logger:   logger,
		svc:      svc,
		views:    views,
		trail:    trail,
		validate: validator.New(),
	}
}

// Create handles POST /invoices.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%v", err))
		return
	}
	inv, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.logger.Warn("invoice creation rejected", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// Get handles GET /invoices/{id}, serving the denormalized view.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var view *InvoiceView
	var err error
	if h.views != nil {
		view, err = h.views.Get(r.Context(), id)
	} else {
		view, err = h.svc.BuildView(r.Context(), id)
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

// List handles GET /invoices.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !h.svc.authz.Can(r.Context(), actor, shared.ActionRead, shared.ResourceInvoice) {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	companyID, _ := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if companyID == 0 {
		httpx.RespondError(w, shared.Validationf("company_id is required"))
		return
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	invoices, err := h.svc.List(r.Context(), companyID, limit, offset)
	if err != nil {
		h.logger.Error("list invoices failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

// Edit handles PUT /invoices/{id}.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req EditInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%v", err))
		return
	}
	inv, err := h.svc.Edit(r.Context(), id, req)
	if err != nil {
		h.logger.Warn("invoice edit rejected",
			slog.Int64("invoice_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// CreditNote handles POST /invoices/{id}/credit-note.
func (h *Handler) CreditNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req CreditNoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%v", err))
		return
	}
	cn, err := h.svc.Credit(r.Context(), id, req.Reason)
	if err != nil {
		h.logger.Warn("credit note rejected",
			slog.Int64("invoice_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cn)
}

// RecordPayment handles POST /invoices/{id}/payments.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%v", err))
		return
	}
	inv, err := h.svc.RecordPayment(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// AuditTrail handles GET /invoices/{id}/audit.
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !h.svc.authz.Can(r.Context(), actor, shared.ActionRead, shared.ResourceAudit) {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entries, err := h.trail.Trail(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.Validationf("invalid invoice id"))
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
