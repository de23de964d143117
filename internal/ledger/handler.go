package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ledgerline-erp/ledgerline-erp/internal/platform/httpx"
	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

// Handler exposes the journal and chart-of-accounts JSON API.
type Handler struct {
	logger   *slog.Logger
	engine   *Engine
	authz    shared.Authorizer
	validate *validator.Validate
}

// NewHandler constructs a ledger handler.
func NewHandler(logger *slog.Logger, engine *Engine, authz shared.Authorizer) *Handler {
	return &Handler{
		logger:   logger,
		engine:   engine,
		authz:    authz,
		validate: validator.New(),
	}
}

// ManualEntryLineRequest is one line of a manually authored journal entry.
type ManualEntryLineRequest struct {
	LedgerAccountID int64           `json:"ledger_account_id" validate:"required,gt=0"`
	DebitAmount     decimal.Decimal `json:"debit_amount"`
	CreditAmount    decimal.Decimal `json:"credit_amount"`
}

// ManualEntryRequest posts directly via the engine, bypassing invoice logic.
type ManualEntryRequest struct {
	CompanyID int64                    `json:"company_id" validate:"required,gt=0"`
	EntryDate time.Time                `json:"entry_date" validate:"required"`
	Narration string                   `json:"narration" validate:"required,max=500"`
	Lines     []ManualEntryLineRequest `json:"lines" validate:"required,min=2,dive"`
}

// PostManual handles POST /journals.
func (h *Handler) PostManual(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !h.authz.Can(r.Context(), actor, shared.ActionPost, shared.ResourceJournal) {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}

	var req ManualEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("%v", err))
		return
	}

	input := PostingInput{
		CompanyID:       req.CompanyID,
		EntryDate:       req.EntryDate,
		Narration:       req.Narration,
		TransactionType: TransactionManual,
		PostedBy:        actor.ID,
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, PostingLineInput{
			AccountID: line.LedgerAccountID,
			Debit:     line.DebitAmount,
			Credit:    line.CreditAmount,
		})
	}

	entry, err := h.engine.Post(r.Context(), input)
	if err != nil {
		h.logger.Warn("manual journal rejected", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

// Get handles GET /journals/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !h.authz.Can(r.Context(), actor, shared.ActionRead, shared.ResourceJournal) {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.Validationf("invalid entry id"))
		return
	}
	entry, err := h.engine.Entry(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

// List handles GET /journals.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !h.authz.Can(r.Context(), actor, shared.ActionRead, shared.ResourceJournal) {
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
	entries, err := h.engine.ListEntries(r.Context(), companyID, limit, offset)
	if err != nil {
		h.logger.Error("list journals failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// ListAccounts handles GET /accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !h.authz.Can(r.Context(), actor, shared.ActionRead, shared.ResourceLedger) {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	companyID, _ := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if companyID == 0 {
		httpx.RespondError(w, shared.Validationf("company_id is required"))
		return
	}
	accounts, err := h.engine.ListAccounts(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list accounts failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
