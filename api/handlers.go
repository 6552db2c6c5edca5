/*
handlers.go - HTTP API handlers for the partner assignment engine

PURPOSE:
  Exposes quota checks, allocation admission, income reports, contract
  rendering and spreadsheet imports via REST API. Handles HTTP
  request/response and JSON serialization, and delegates to the services.

ENDPOINTS:
  Tasks:
    GET    /api/tasks/{id}/quota                 Quota of every position

  Allocations:
    POST   /api/allocations/check                Evaluate without saving
    POST   /api/allocations                      Create
    PUT    /api/allocations/{id}                 Edit (same task only)
    DELETE /api/allocations/{id}                 Remove

  Partners:
    GET    /api/partners/{id}/income?period=     Period total and ceiling

  Contracts:
    GET    /api/contracts/{partnerID}?period=                    HTML agreement
    GET    /api/contracts/{partnerID}/attachment.xlsx?period=    Attachment sheet

  Templates:
    POST   /api/templates                        Store a JSON template
    GET    /api/templates/{id}                   Read it back

  Import:
    POST   /api/import/rates                     Multipart "file"
    POST   /api/import/tasks/{id}/allocations    Multipart "file"
    GET    /api/import/template?kind=            Empty workbook with headers

  Terbilang:
    GET    /api/terbilang?n=                     Number in Indonesian words

PERIODS:
  ?period= takes "2025" or "2025-07". When omitted, the current period at the
  configured granularity is used.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input
  - 404: Record not found
  - 409: Duplicate records, contract settings missing for the period
  - 422: Quota or ceiling exceeded
  - 500: Commit failures and internal errors

  Rejected allocations answer with the full DecisionDTO instead of
  ErrorResponse so clients can show the remaining quota and the projected
  total, and offer confirmation under the confirm policy.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mitrastat/honor-engine/assignment"
	"github.com/mitrastat/honor-engine/contract"
	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/document"
	"github.com/mitrastat/honor-engine/factory"
	"github.com/mitrastat/honor-engine/importer"
	"github.com/mitrastat/honor-engine/logger"
	"github.com/mitrastat/honor-engine/terbilang"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       core.TxStore
	Assignments *assignment.Service
	Contracts   *contract.Service
	Templates   *factory.TemplateFactory
	Log         *logger.Logger

	// MaxUploadBytes limits import uploads and template bodies.
	MaxUploadBytes int64
	// DefaultVolume fills empty volume cells in allocation imports.
	DefaultVolume decimal.Decimal

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler. A nil log discards output.
func NewHandler(store core.TxStore, assignments *assignment.Service, contracts *contract.Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		Store:          store,
		Assignments:    assignments,
		Contracts:      contracts,
		Templates:      factory.NewTemplateFactory(),
		Log:            log,
		MaxUploadBytes: 10 << 20,
		DefaultVolume:  decimal.NewFromInt(1),
	}
}

// =============================================================================
// QUOTA
// =============================================================================

// GetTaskQuota returns the quota of every position of a task.
// GET /api/tasks/{id}/quota
func (h *Handler) GetTaskQuota(w http.ResponseWriter, r *http.Request) {
	task, quotas, err := h.Assignments.TaskQuota(r.Context(), core.TaskID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := TaskQuotaResponse{
		TaskID:    string(task.ID),
		TaskName:  task.Name,
		Positions: make([]QuotaDTO, len(quotas)),
	}
	for i, q := range quotas {
		resp.Positions[i] = toQuotaDTO(q)
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

// CheckAllocation evaluates a proposed allocation without saving it.
// POST /api/allocations/check
func (h *Handler) CheckAllocation(w http.ResponseWriter, r *http.Request) {
	var req AllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	d, err := h.Assignments.Evaluate(r.Context(), req.input(""))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDecisionDTO(d))
}

// CreateAllocation admits and saves a new allocation.
// POST /api/allocations
func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req AllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	d, err := h.Assignments.Assign(r.Context(), req.input(""))
	h.writeAssignResult(w, r, d, err, http.StatusCreated)
}

// UpdateAllocation re-admits an existing allocation with new values.
// PUT /api/allocations/{id}
func (h *Handler) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	var req AllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := core.AllocationID(chi.URLParam(r, "id"))
	d, err := h.Assignments.Assign(r.Context(), req.input(id))
	h.writeAssignResult(w, r, d, err, http.StatusOK)
}

// DeleteAllocation removes an allocation.
// DELETE /api/allocations/{id}
func (h *Handler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	if err := h.Assignments.Remove(r.Context(), core.AllocationID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeAssignResult(w http.ResponseWriter, r *http.Request, d assignment.Decision, err error, okStatus int) {
	switch {
	case err == nil:
		writeJSON(w, okStatus, toDecisionDTO(d))
	case d.Err != nil:
		writeJSON(w, statusFor(d.Err), toDecisionDTO(d))
	default:
		h.writeDomainError(w, r, err)
	}
}

// =============================================================================
// INCOME
// =============================================================================

// GetIncome reports a partner's honorarium in a period against its ceiling.
// GET /api/partners/{id}/income?period=2025
func (h *Handler) GetIncome(w http.ResponseWriter, r *http.Request) {
	key, err := h.periodParam(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	report, err := h.Assignments.Income(r.Context(), core.PartnerID(chi.URLParam(r, "id")), key)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	words, err := terbilang.AmountToWords(report.Total)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := IncomeResponse{
		PartnerID:     string(report.Partner.ID),
		PartnerName:   report.Partner.Name,
		Period:        report.Period.String(),
		Lines:         make([]IncomeLineDTO, len(report.Lines)),
		Total:         report.Total.String(),
		TotalWords:    words,
		Ceiling:       report.Ceiling.String(),
		Remaining:     report.Remaining.String(),
		WithinCeiling: report.Check.OK,
		Excess:        report.Check.Excess.String(),
	}
	for i, l := range report.Lines {
		resp.Lines[i] = toIncomeLineDTO(l)
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// CONTRACTS
// =============================================================================

// GetContract renders a partner's agreement for a period as an HTML page.
// GET /api/contracts/{partnerID}?period=2025
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	key, err := h.periodParam(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	res, err := h.Contracts.Render(r.Context(), core.PartnerID(chi.URLParam(r, "partnerID")), key)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Letter-Number", res.LetterNumber)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>
%s
</body>
</html>`, html.EscapeString(res.LetterNumber), res.Document.HTML)
}

// GetContractAttachment exports the agreement's attachment table.
// GET /api/contracts/{partnerID}/attachment.xlsx?period=2025
func (h *Handler) GetContractAttachment(w http.ResponseWriter, r *http.Request) {
	key, err := h.periodParam(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	partnerID := chi.URLParam(r, "partnerID")
	var buf bytes.Buffer
	if err := h.Contracts.ExportAttachment(r.Context(), core.PartnerID(partnerID), key, &buf); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeFile(w, xlsxContentType, fmt.Sprintf("lampiran-%s-%s.xlsx", partnerID, key), buf.Bytes())
}

// =============================================================================
// TEMPLATES
// =============================================================================

// CreateTemplate validates a JSON template and stores its canonical form.
// POST /api/templates
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.MaxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tpl, err := h.Templates.ParseTemplate(body)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	data, err := h.Templates.Marshal(tpl)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.Store.SaveTemplate(r.Context(), core.TemplateRecord{ID: tpl.ID, Name: tpl.Name, Body: data}); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.Log.Info("template saved", "template_id", tpl.ID, "articles", len(tpl.Articles))
	writeJSON(w, http.StatusCreated, h.templateResponse(tpl))
}

// GetTemplate returns a stored template.
// GET /api/templates/{id}
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetTemplate(r.Context(), core.TemplateID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	tpl, err := h.Templates.Load(rec)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.templateResponse(tpl))
}

func (h *Handler) templateResponse(tpl document.Template) TemplateResponse {
	warnings := h.Templates.Warnings(tpl)
	if warnings == nil {
		warnings = []string{}
	}
	return TemplateResponse{Template: h.Templates.ToJSON(tpl), Warnings: warnings}
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportRates imports a task and position rate sheet.
// POST /api/import/rates
func (h *Handler) ImportRates(w http.ResponseWriter, r *http.Request) {
	rows, err := h.readUpload(w, r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	res, err := h.Assignments.ImportRates(r.Context(), rows)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ImportAllocations imports partner allocations for one task.
// POST /api/import/tasks/{id}/allocations?default_volume=1
func (h *Handler) ImportAllocations(w http.ResponseWriter, r *http.Request) {
	defaultVolume := h.DefaultVolume
	if v := r.URL.Query().Get("default_volume"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || !d.IsPositive() {
			h.writeDomainError(w, r, &core.InvalidArgumentError{Field: "default_volume", Value: v, Reason: "must be a positive number"})
			return
		}
		defaultVolume = d
	}

	rows, err := h.readUpload(w, r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	res, err := h.Assignments.ImportAllocations(r.Context(), core.TaskID(chi.URLParam(r, "id")), rows, defaultVolume)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetImportTemplate downloads an empty import workbook.
// GET /api/import/template?kind=rates|allocations
func (h *Handler) GetImportTemplate(w http.ResponseWriter, r *http.Request) {
	var (
		buf  bytes.Buffer
		err  error
		kind = importer.Kind(r.URL.Query().Get("kind"))
	)
	switch kind {
	case importer.KindRates, "":
		kind = importer.KindRates
		err = importer.WriteTemplate(&buf)
	case importer.KindAllocations:
		err = importer.WriteAllocationTemplate(&buf)
	default:
		h.writeDomainError(w, r, &core.InvalidArgumentError{Field: "kind", Value: string(kind), Reason: "must be rates or allocations"})
		return
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeFile(w, xlsxContentType, fmt.Sprintf("template-%s.xlsx", kind), buf.Bytes())
}

// readUpload reads the multipart "file" field into rows.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([][]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		return nil, &core.InvalidArgumentError{Field: "file", Reason: fmt.Sprintf("invalid upload: %v", err)}
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &core.InvalidArgumentError{Field: "file", Reason: "is required"}
	}
	defer file.Close()
	return importer.ReadTable(header.Filename, file)
}

// =============================================================================
// TERBILANG
// =============================================================================

// GetTerbilang spells a number in Indonesian.
// GET /api/terbilang?n=1375000
func (h *Handler) GetTerbilang(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("n")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeDomainError(w, r, &core.InvalidArgumentError{Field: "n", Value: raw, Reason: "must be a whole number"})
		return
	}

	words, err := terbilang.ToWords(n)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	currency, err := terbilang.ToCurrencyWords(n)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TerbilangResponse{
		Number:        n,
		Formatted:     terbilang.FormatNumber(n),
		Words:         words,
		CurrencyWords: currency,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) periodParam(r *http.Request) (core.PeriodKey, error) {
	s := r.URL.Query().Get("period")
	if s == "" {
		return core.KeyFor(core.Today(), h.Assignments.Granularity()), nil
	}
	return core.ParsePeriodKey(s)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrCommitFailed):
		return http.StatusInternalServerError
	case errors.Is(err, core.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTemplateNotReady),
		errors.Is(err, core.ErrDuplicateAllocation),
		errors.Is(err, core.ErrDuplicateRate):
		return http.StatusConflict
	case errors.Is(err, core.ErrQuotaExceeded), errors.Is(err, core.ErrCeilingExceeded):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, http.StatusText(status), err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
