package models

import (
	"ovenprofile/internal/analysis"
	"ovenprofile/internal/chart"
)

// SessionResponse is returned when a session is created
type SessionResponse struct {
	SessionID    string   `json:"session_id"`
	Datasets     []string `json:"datasets"`
	Measurements []string `json:"measurements"`
}

// DateRange is an inclusive pair of YYYY-MM-DD dates
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// StatusResponse describes where a session is in the selection flow
type StatusResponse struct {
	SessionID string     `json:"session_id"`
	State     string     `json:"state"`
	Outcome   string     `json:"outcome"`
	Selected  []string   `json:"selected"`
	Dataset   string     `json:"dataset,omitempty"`
	Bounds    *DateRange `json:"bounds,omitempty"`
	Range     *DateRange `json:"range,omitempty"`
}

// MeasurementsResponse for /measurements
type MeasurementsResponse struct {
	Measurements []string            `json:"measurements"`
	ByDataset    map[string][]string `json:"by_dataset"`
}

// SelectionRequest for PUT /selection
type SelectionRequest struct {
	Measurements []string `json:"measurements"`
}

// RangeRequest for PUT /range
type RangeRequest = DateRange

// DataResponse for /data
type DataResponse struct {
	Outcome string              `json:"outcome"`
	Dataset string              `json:"dataset"`
	Range   DateRange           `json:"range"`
	Rows    int                 `json:"rows"`
	Columns []string            `json:"columns"`
	Data    []map[string]string `json:"data"`
	Warning string              `json:"warning,omitempty"`
}

// ChartResponse for /chart
type ChartResponse struct {
	Chart   *chart.Spec `json:"chart,omitempty"`
	Warning string      `json:"warning,omitempty"`
}

// SummaryResponse for /summary
type SummaryResponse struct {
	Outcome      string             `json:"outcome"`
	Measurements []analysis.Summary `json:"measurements"`
}

// ErrorResponse is the body of every non-2xx JSON reply
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
