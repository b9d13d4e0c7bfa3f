/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payslip engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the payslip ledger, the archive and
  the PDF renderer.

ENDPOINTS:
  Payslips:
    POST   /api/payslips/preview        Compute, do not archive
    POST   /api/payslips                Compute and archive (issue)
    GET    /api/payslips/{id}           Recompute an issued payslip under
                                        the tables archived with it
    GET    /api/payslips/{id}/pdf       Print an issued payslip
    POST   /api/payslips/pdf            Print without archiving

  Employees:
    GET    /api/employees/{code}/payslips  Issued payslips, newest first

  Tables:
    GET    /api/tables                  Active rate tables (factory document)

  Scenarios:
    GET    /api/scenarios               List demo payslips
    POST   /api/scenarios/load          Issue a demo payslip

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Archive: Issued payslip persistence
  - Schedule: Rate tables and calculators, shared read-only
  - Renderer: PDF output
  - Logger: zap

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (amounts, competency)
  3. Build a payslip.Ledger and Compute
  4. Archive and/or render
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, bad amount, bad competency, negative dependents
  - 404: Payslip not found
  - 409: Payslip already issued for employee and competency
  - 422: No table covers the competency, missing employee or base salary
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo payslips
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payslip"
	"github.com/warp/payroll-engine/render"
	"github.com/warp/payroll-engine/taxes"
	"go.uber.org/zap"
)

// errInvalidRequest marks input the handler rejected before reaching the
// engine.
var errInvalidRequest = errors.New("invalid request")

// errArchiveMismatch is returned when an archived payslip no longer
// recomputes to the totals it was issued with.
var errArchiveMismatch = errors.New("recomputed totals differ from archived totals")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Archive  payslip.Archive
	Schedule *taxes.Schedule
	Factory  *factory.ScheduleFactory
	Renderer *render.PDFRenderer
	Logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewHandler creates a handler. A nil schedule selects the compiled-in
// tables; a nil renderer prints without headers; a nil logger discards.
func NewHandler(archive payslip.Archive, schedule *taxes.Schedule, renderer *render.PDFRenderer, logger *zap.Logger) *Handler {
	if schedule == nil {
		schedule = taxes.DefaultSchedule()
	}
	if renderer == nil {
		renderer = render.NewPDFRenderer(render.Options{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Archive:  archive,
		Schedule: schedule,
		Factory:  factory.NewScheduleFactory(),
		Renderer: renderer,
		Logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// =============================================================================
// PAYSLIP HANDLERS
// =============================================================================

// PreviewPayslip computes a payslip without archiving it.
func (h *Handler) PreviewPayslip(w http.ResponseWriter, r *http.Request) {
	req, err := decodePayslipRequest(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	summary, _, err := h.compute(req, h.Schedule)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// IssuePayslip computes a payslip and archives it.
func (h *Handler) IssuePayslip(w http.ResponseWriter, r *http.Request) {
	req, err := decodePayslipRequest(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	issued, err := h.issue(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, issued)
}

// issue computes, archives and returns the issued payslip.
func (h *Handler) issue(ctx context.Context, req PayslipRequest) (IssuedPayslipDTO, error) {
	if req.Employee.Code == "" {
		return IssuedPayslipDTO{}, &generic.MissingContextError{What: "employee code (required to issue)"}
	}

	schedule := h.Schedule
	summary, normalized, err := h.compute(req, schedule)
	if err != nil {
		return IssuedPayslipDTO{}, err
	}

	document, err := json.Marshal(normalized)
	if err != nil {
		return IssuedPayslipDTO{}, fmt.Errorf("failed to encode payslip document: %w", err)
	}
	tables, err := json.Marshal(h.Factory.Export(schedule))
	if err != nil {
		return IssuedPayslipDTO{}, fmt.Errorf("failed to encode rate tables: %w", err)
	}

	record := payslip.Record{
		ID:              h.newID(),
		EmployeeCode:    normalized.Employee.Code,
		Competency:      normalized.Competency,
		Document:        document,
		Tables:          tables,
		TotalEarnings:   summary.TotalEarnings,
		TotalDeductions: summary.TotalDeductions,
		NetAmount:       summary.NetAmount,
		CreatedAt:       h.now().UTC(),
	}
	if err := h.Archive.Save(ctx, record); err != nil {
		return IssuedPayslipDTO{}, err
	}

	h.Logger.Info("payslip issued",
		zap.String("id", record.ID),
		zap.String("employee", record.EmployeeCode),
		zap.String("competency", record.Competency),
		zap.String("net", record.NetAmount.String()),
	)

	return IssuedPayslipDTO{
		ID:        record.ID,
		CreatedAt: record.CreatedAt.Format(time.RFC3339),
		Summary:   toSummaryDTO(summary),
	}, nil
}

// GetPayslip recomputes an issued payslip from its archived document.
func (h *Handler) GetPayslip(w http.ResponseWriter, r *http.Request) {
	record, summary, err := h.recompute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, IssuedPayslipDTO{
		ID:        record.ID,
		CreatedAt: record.CreatedAt.Format(time.RFC3339),
		Summary:   toSummaryDTO(summary),
	})
}

// GetPayslipPDF prints an issued payslip.
func (h *Handler) GetPayslipPDF(w http.ResponseWriter, r *http.Request) {
	_, summary, err := h.recompute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writePDF(w, r, summary)
}

// RenderPayslipPDF prints a payslip without archiving it.
func (h *Handler) RenderPayslipPDF(w http.ResponseWriter, r *http.Request) {
	req, err := decodePayslipRequest(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	summary, _, err := h.compute(req, h.Schedule)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writePDF(w, r, summary)
}

// ListEmployeePayslips returns an employee's issued payslips.
func (h *Handler) ListEmployeePayslips(w http.ResponseWriter, r *http.Request) {
	records, err := h.Archive.ListByEmployee(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]PayslipRecordDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toRecordDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTables returns the active rate tables as a factory document.
func (h *Handler) GetTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Factory.Export(h.Schedule))
}

// pinger is implemented by archives that can report connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness and, when the archive supports it, storage health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Archive.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "storage unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// COMPUTATION
// =============================================================================

// compute builds a ledger from req and computes it under schedule. The
// returned request has its competency resolved, ready to archive.
func (h *Handler) compute(req PayslipRequest, schedule *taxes.Schedule) (*payslip.Summary, PayslipRequest, error) {
	ledger, normalized, err := h.buildLedger(req, schedule)
	if err != nil {
		return nil, req, err
	}
	summary, err := ledger.Compute()
	if err != nil {
		return nil, req, err
	}
	return summary, normalized, nil
}

func (h *Handler) buildLedger(req PayslipRequest, schedule *taxes.Schedule) (*payslip.Ledger, PayslipRequest, error) {
	var period generic.CompetencyPeriod
	if req.Competency == "" {
		period = generic.CurrentCompetency(h.now())
	} else {
		p, err := generic.ParseCompetency(req.Competency)
		if err != nil {
			return nil, req, err
		}
		period = p
	}
	req.Competency = period.String()

	ledger := payslip.NewLedger(period, schedule)

	for i, e := range req.Earnings {
		amount, err := parseMoney(fmt.Sprintf("earnings[%d].amount", i), e.Amount)
		if err != nil {
			return nil, req, err
		}
		var opts []payslip.EarningOption
		if e.Fund != nil && !*e.Fund {
			opts = append(opts, payslip.WithoutFund())
		}
		if e.SocialSecurity != nil && !*e.SocialSecurity {
			opts = append(opts, payslip.WithoutSocialSecurity())
		}
		if e.Withholding != nil && !*e.Withholding {
			opts = append(opts, payslip.WithoutWithholding())
		}
		if err := ledger.AddEarning(payslip.NewEarning(e.Code, e.Description, e.Reference, amount, opts...)); err != nil {
			return nil, req, err
		}
	}

	for i, d := range req.Deductions {
		amount, err := parseMoney(fmt.Sprintf("deductions[%d].amount", i), d.Amount)
		if err != nil {
			return nil, req, err
		}
		if err := ledger.AddDeduction(payslip.NewDeduction(d.Code, d.Description, d.Reference, amount)); err != nil {
			return nil, req, err
		}
	}

	if req.BaseSalary != "" {
		base, err := parseMoney("base_salary", req.BaseSalary)
		if err != nil {
			return nil, req, err
		}
		if err := ledger.SetBaseSalary(base); err != nil {
			return nil, req, err
		}
	}

	if err := ledger.SetDependents(req.Dependents); err != nil {
		return nil, req, err
	}
	if err := ledger.SetEmployee(toEmployee(req.Employee)); err != nil {
		return nil, req, err
	}
	if l := req.SocialSecurityLine; l != nil {
		if err := ledger.SetSocialSecurityLine(l.Code, l.Description); err != nil {
			return nil, req, err
		}
	}
	if l := req.WithholdingLine; l != nil {
		if err := ledger.SetWithholdingLine(l.Code, l.Description); err != nil {
			return nil, req, err
		}
	}

	return ledger, req, nil
}

// recompute loads an archived payslip and computes it again under the
// tables it was issued with. Records archived without tables use the active
// schedule. Either way the result must match the archived totals.
func (h *Handler) recompute(ctx context.Context, id string) (*payslip.Record, *payslip.Summary, error) {
	record, err := h.Archive.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	var req PayslipRequest
	if err := json.Unmarshal(record.Document, &req); err != nil {
		return nil, nil, fmt.Errorf("payslip %s: corrupt document: %w", id, err)
	}

	schedule, err := h.archivedSchedule(record)
	if err != nil {
		return nil, nil, err
	}

	summary, _, err := h.compute(req, schedule)
	if err != nil {
		return nil, nil, err
	}

	if !summary.TotalEarnings.Equal(record.TotalEarnings) ||
		!summary.TotalDeductions.Equal(record.TotalDeductions) ||
		!summary.NetAmount.Equal(record.NetAmount) {
		return nil, nil, fmt.Errorf("payslip %s: %w: net %s, archived %s",
			id, errArchiveMismatch, summary.NetAmount, record.NetAmount)
	}
	return record, summary, nil
}

func (h *Handler) archivedSchedule(record *payslip.Record) (*taxes.Schedule, error) {
	if len(record.Tables) == 0 {
		return h.Schedule, nil
	}
	doc, err := h.Factory.DecodeJSON(record.Tables)
	if err != nil {
		return nil, fmt.Errorf("payslip %s: corrupt tables: %w", record.ID, err)
	}
	schedule, err := h.Factory.Build(doc)
	if err != nil {
		// A broken archive is an internal error, not a table error (422).
		return nil, fmt.Errorf("payslip %s: archived tables: %v", record.ID, err)
	}
	return schedule, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func decodePayslipRequest(r *http.Request) (PayslipRequest, error) {
	var req PayslipRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return PayslipRequest{}, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	return req, nil
}

func parseMoney(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s %q is not a decimal", errInvalidRequest, field, s)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: %s must not be negative", errInvalidRequest, field)
	}
	return d, nil
}

func (h *Handler) writePDF(w http.ResponseWriter, r *http.Request, s *payslip.Summary) {
	data, err := h.Renderer.RenderBytes(s)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	filename := fmt.Sprintf("payslip-%s-%s.pdf", s.Employee.Code, s.Period)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
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

// writeDomainError maps engine and archive errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errInvalidRequest), generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid payslip request", err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "payslip not found", err)
	case errors.Is(err, generic.ErrDuplicatePayslip):
		writeError(w, http.StatusConflict, "payslip already issued", err)
	case generic.IsConfigurationError(err):
		writeError(w, http.StatusUnprocessableEntity, "payslip cannot be computed", err)
	default:
		h.Logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
