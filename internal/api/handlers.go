package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"ovenprofile/internal/analysis"
	"ovenprofile/internal/chart"
	"ovenprofile/internal/export"
	"ovenprofile/internal/measure"
	"ovenprofile/internal/metrics"
	"ovenprofile/internal/models"
	"ovenprofile/internal/query"
	"ovenprofile/internal/session"
	"ovenprofile/internal/table"
)

// NoDataWarning accompanies an empty result.
const NoDataWarning = "No data in selected range."

type Handler struct {
	Sessions *session.Registry
}

func NewHandler(sessions *session.Registry) *Handler {
	return &Handler{Sessions: sessions}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetStatus)
			r.Delete("/", h.DeleteSession)
			r.Get("/measurements", h.GetMeasurements)
			r.Put("/selection", h.PutSelection)
			r.Put("/range", h.PutRange)
			r.Get("/data", h.GetData)
			r.Get("/summary", h.GetSummary)
			r.Get("/chart", h.GetChart)
			r.Get("/chart.png", h.GetChartPNG)
			r.Get("/export.xlsx", h.ExportSpreadsheet)
			r.Get("/export.csv", h.ExportCSV)
		})
	})
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// ============================================================================
// Sessions
// ============================================================================

// CreateSession loads every configured dataset for a new session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Create(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.SessionResponse{
		SessionID:    s.ID,
		Datasets:     s.Store().Names(),
		Measurements: s.Measurements(),
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, statusResponse(s.Status()))
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !h.Sessions.Delete(id) {
		writeError(w, errors.Wrapf(session.ErrNotFound, "%q", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Selection
// ============================================================================

func (h *Handler) GetMeasurements(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	idx := s.Index()
	byDataset := make(map[string][]string)
	for _, name := range s.Store().Names() {
		if ms := idx.ByDataset(name); len(ms) > 0 {
			byDataset[name] = ms
		}
	}
	writeJSON(w, http.StatusOK, models.MeasurementsResponse{
		Measurements: idx.Names(),
		ByDataset:    byDataset,
	})
}

func (h *Handler) PutSelection(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req models.SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON")
		return
	}
	if err := s.Select(req.Measurements); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse(s.Status()))
}

func (h *Handler) PutRange(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req models.RangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON")
		return
	}
	rng, err := query.ParseRange(req.Start, req.End)
	if err != nil {
		writeBadRequest(w, fmt.Sprintf("dates must be YYYY-MM-DD: %v", err))
		return
	}
	if err := s.SetRange(rng.Start, rng.End); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse(s.Status()))
}

// ============================================================================
// Results
// ============================================================================

// GetData resolves the current selection and returns the filtered rows.
// An empty result is a 200 with outcome "empty" and a warning.
func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	s, v, ok := h.resolve(w, r)
	if !ok {
		return
	}
	st := s.Status()

	data := v.Records()
	if limit := getIntParam(r, "limit", 0); limit > 0 && limit < len(data) {
		data = data[:limit]
	}
	resp := models.DataResponse{
		Outcome: st.Outcome.String(),
		Dataset: v.Dataset,
		Range:   dateRange(st.Range),
		Rows:    v.Len(),
		Columns: v.Columns,
		Data:    data,
	}
	if v.Empty() {
		resp.Warning = NoDataWarning
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s, v, ok := h.resolve(w, r)
	if !ok {
		return
	}
	st := s.Status()
	writeJSON(w, http.StatusOK, models.SummaryResponse{
		Outcome:      st.Outcome.String(),
		Measurements: analysis.Summarize(v, st.Selected),
	})
}

func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	s, v, ok := h.resolve(w, r)
	if !ok {
		return
	}
	spec, err := chart.Build(v, s.Status().Selected)
	if errors.Is(err, chart.ErrEmptyView) {
		writeJSON(w, http.StatusOK, models.ChartResponse{Warning: NoDataWarning})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ChartResponse{Chart: spec})
}

// GetChartPNG renders the chart. An empty result has no chart: 204.
// ?width= and ?height= are capped at chart.MaxWidth and chart.MaxHeight.
func (h *Handler) GetChartPNG(w http.ResponseWriter, r *http.Request) {
	s, v, ok := h.resolve(w, r)
	if !ok {
		return
	}
	spec, err := chart.Build(v, s.Status().Selected)
	if errors.Is(err, chart.ErrEmptyView) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	width := chart.ClampSize(getIntParam(r, "width", chart.DefaultWidth), chart.DefaultWidth, chart.MaxWidth)
	height := chart.ClampSize(getIntParam(r, "height", chart.DefaultHeight), chart.DefaultHeight, chart.MaxHeight)
	if err := chart.RenderPNG(spec, &buf, width, height); err != nil {
		if errors.Is(err, chart.ErrEmptyView) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// ============================================================================
// Export
// ============================================================================

func (h *Handler) ExportSpreadsheet(w http.ResponseWriter, r *http.Request) {
	_, v, ok := h.resolve(w, r)
	if !ok {
		return
	}
	data, err := export.Spreadsheet(v)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.CounterExports.WithLabelValues("xlsx").Inc()
	writeDownload(w, export.SpreadsheetFilename, export.SpreadsheetMIME, data)
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sep, err := separatorParam(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	_, v, ok := h.resolve(w, r)
	if !ok {
		return
	}
	data, err := export.Delimited(v, sep)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.CounterExports.WithLabelValues("csv").Inc()
	writeDownload(w, export.DelimitedFilename, export.DelimitedMIME, data)
}

// ============================================================================
// Helpers
// ============================================================================

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.Sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*session.Session, *query.View, bool) {
	s, ok := h.session(w, r)
	if !ok {
		return nil, nil, false
	}
	v, err := s.Resolve()
	if err != nil {
		writeError(w, err)
		return nil, nil, false
	}
	return s, v, true
}

func statusResponse(st session.Status) models.StatusResponse {
	resp := models.StatusResponse{
		SessionID: st.ID,
		State:     st.State.String(),
		Outcome:   st.Outcome.String(),
		Selected:  st.Selected,
		Dataset:   st.Dataset,
	}
	if resp.Selected == nil {
		resp.Selected = []string{}
	}
	if st.HasBounds {
		b, rg := dateRange(st.Bounds), dateRange(st.Range)
		resp.Bounds, resp.Range = &b, &rg
	}
	return resp
}

func dateRange(r query.Range) models.DateRange {
	return models.DateRange{
		Start: r.Start.Format(query.DateLayout),
		End:   r.End.Format(query.DateLayout),
	}
}

// classify maps an error to a status code and a stable kind string.
func classify(err error) (int, string) {
	var le *table.LoadError
	var ce *query.CoercionError
	switch {
	case errors.As(err, &le):
		return http.StatusInternalServerError, "load_failure"
	case errors.As(err, &ce):
		return http.StatusUnprocessableEntity, "coercion_failure"
	case errors.Is(err, measure.ErrUnknownMeasurement):
		return http.StatusBadRequest, "unknown_measurement"
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, session.ErrNoSelection):
		return http.StatusConflict, "no_selection"
	case errors.Is(err, session.ErrNoRange):
		return http.StatusConflict, "no_range"
	case errors.Is(err, session.ErrRangeOutOfBounds):
		return http.StatusBadRequest, "range_out_of_bounds"
	case errors.Is(err, chart.ErrMissingColumn):
		return http.StatusUnprocessableEntity, "measurement_not_in_dataset"
	case errors.Is(err, query.ErrNoRows):
		return http.StatusUnprocessableEntity, "no_rows"
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[API] %s: %v", kind, err)
	}
	writeJSON(w, status, models.ErrorResponse{Error: err.Error(), Kind: kind})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg, Kind: "invalid_request"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] encode response: %v", err)
	}
}

func writeDownload(w http.ResponseWriter, filename, mime string, data []byte) {
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// separatorParam reads ?sep=; "tab" stands for a tab character.
func separatorParam(r *http.Request) (rune, error) {
	sep := r.URL.Query().Get("sep")
	switch sep {
	case "":
		return export.DefaultSeparator, nil
	case "tab":
		return '\t', nil
	}
	c, _ := utf8.DecodeRuneInString(sep)
	if utf8.RuneCountInString(sep) != 1 || !export.ValidSeparator(c) {
		return 0, errors.Wrapf(export.ErrInvalidSeparator, "%q", sep)
	}
	return c, nil
}

func getIntParam(r *http.Request, name string, defaultVal int) int {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}
