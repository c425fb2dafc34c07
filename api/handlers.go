/*
handlers.go - HTTP API handlers for the revenue engine

PURPOSE:
  Exposes the revenue engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to fuel.Service and fuel.Driver.

ENDPOINTS:
  Records:
    POST   /api/records                Submit (create or replace) a daily record
    GET    /api/records?month=YYYY-MM  List records, optionally for one month
    GET    /api/records/{id}           Record with its result
    DELETE /api/records/{id}           Delete a record and reprice its month

  Results:
    GET    /api/results?from=&to=      Results dated in [from, to]

  Recompute:
    POST   /api/recompute              Rebuild every result from raw records
    GET    /api/recompute/runs         Run history, newest first

  Reports:
    GET    /api/reports/monthly?year=       Monthly income statements
    GET    /api/reports/monthly/{month}.xlsx Statement workbook for one month

  Schedule:
    GET    /api/schedule/resolve?date=  Rates in force on a date

REQUEST FLOW:
  1. Parse HTTP request
  2. Convert DTO to domain type
  3. Call fuel.Service / fuel.Driver / store reads
  4. Serialize response
  5. Map errors to status codes (writeServiceError)

ERROR HANDLING:
  Errors are returned as JSON {error, details} with status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 500: Internal errors, aborted recomputes

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/kasb/fuel-revenue-engine/logger"
	"github.com/kasb/fuel-revenue-engine/report"
	"github.com/kasb/fuel-revenue-engine/store/sqlite"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Driver  *fuel.Driver
	Service *fuel.Service

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler. Writes go through driver; reads go
// straight to store.
func NewHandler(store *sqlite.Store, driver *fuel.Driver) *Handler {
	return &Handler{
		Store:   store,
		Driver:  driver,
		Service: fuel.NewService(driver),
	}
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// SubmitRecord creates or replaces a daily record and returns its result.
func (h *Handler) SubmitRecord(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := req.toRecord()
	if err != nil {
		writeServiceError(w, r, "Invalid record", err)
		return
	}

	res, err := h.Service.Submit(r.Context(), rec)
	if err != nil {
		writeServiceError(w, r, "Failed to submit record", err)
		return
	}

	writeJSON(w, http.StatusCreated, toResultDTO(res))
}

// ListRecords returns all records, or one month's when ?month= is given.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var records []fuel.DailyRecord
	var err error
	if m := r.URL.Query().Get("month"); m != "" {
		month, perr := generic.ParseMonthKey(m)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "Invalid month format (use YYYY-MM)", perr)
			return
		}
		records, err = h.Store.ListMonthRecords(ctx, month)
	} else {
		records, err = h.Store.ListRecords(ctx)
	}
	if err != nil {
		writeServiceError(w, r, "Failed to list records", err)
		return
	}

	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRecord returns a record with its result.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	rec, err := h.Store.GetRecord(ctx, id)
	if err != nil {
		writeServiceError(w, r, "Failed to get record", err)
		return
	}

	detail := RecordDetailDTO{Record: toRecordDTO(rec)}
	res, err := h.Store.GetResult(ctx, id)
	switch {
	case err == nil:
		dto := toResultDTO(res)
		detail.Result = &dto
	case !errors.Is(err, fuel.ErrRecordNotFound):
		writeServiceError(w, r, "Failed to get result", err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// DeleteRecord removes a record and reprices its month.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, "Failed to delete record", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// =============================================================================
// RESULT HANDLERS
// =============================================================================

// ListResults returns results dated in [from, to]. Both default to the
// current year's bounds.
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	year := time.Now().UTC().Year()
	from, err := dateParam(r, "from", generic.NewDate(year, time.January, 1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to, err := dateParam(r, "to", generic.NewDate(year, time.December, 31))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}

	results, err := h.Store.ListResults(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, "Failed to list results", err)
		return
	}

	dtos := make([]ResultDTO, len(results))
	for i, res := range results {
		dtos[i] = toResultDTO(res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RECOMPUTE HANDLERS
// =============================================================================

// TriggerRecompute rebuilds every result.
func (h *Handler) TriggerRecompute(w http.ResponseWriter, r *http.Request) {
	run, err := h.Driver.Run(r.Context(), "manual")
	if err != nil {
		logger.FromContext(r.Context()).Error("manual recompute failed",
			zap.String("run_id", run.ID),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "Recompute aborted",
			"run":   toRunDTO(run),
		})
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// ListRecomputeRuns returns run history. ?limit= defaults to 50.
func (h *Handler) ListRecomputeRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, "Failed to get recompute runs", err)
		return
	}

	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunDTO(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// MonthlyReport returns the income statements for ?year= (default: this year).
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	year := time.Now().UTC().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}

	results, err := h.Store.ListResults(r.Context(),
		generic.NewDate(year, time.January, 1), generic.NewDate(year, time.December, 31))
	if err != nil {
		writeServiceError(w, r, "Failed to list results", err)
		return
	}

	summaries := report.Summarize(results)
	dtos := make([]MonthSummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = toMonthSummaryDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MonthlyWorkbook serves one month's statement as an XLSX download.
func (h *Handler) MonthlyWorkbook(w http.ResponseWriter, r *http.Request) {
	month, err := generic.ParseMonthKey(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month format (use YYYY-MM)", err)
		return
	}

	results, err := h.Store.ListResults(r.Context(), month.Start(), month.End())
	if err != nil {
		writeServiceError(w, r, "Failed to list results", err)
		return
	}
	summary, ok := report.ForMonth(report.Summarize(results), month)
	if !ok {
		writeError(w, http.StatusNotFound, "No results for month", nil)
		return
	}

	data, err := report.BuildMonthXLSX(summary, results)
	if err != nil {
		writeServiceError(w, r, "Failed to build workbook", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="petros-`+month.String()+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// ResolveRates returns the rate set in force on ?date= (default: today).
func (h *Handler) ResolveRates(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date", generic.Date(time.Now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	rates := h.Driver.Engine().Schedule.Resolve(date)
	writeJSON(w, http.StatusOK, toRatesDTO(date, rates))
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

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

// writeServiceError maps domain errors to a status. Server errors are logged
// with the request's logger.
func writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		logger.FromContext(r.Context()).Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func dateParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	return generic.ParseDate(s)
}
