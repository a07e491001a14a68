package api

import "time"

// ColumnInfo describes one column of an uploaded dataset
type ColumnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// DatasetSummary is returned by upload and dataset lookup
type DatasetSummary struct {
	ID         string                   `json:"id"`
	Filename   string                   `json:"filename"`
	Rows       int                      `json:"rows"`
	Columns    []ColumnInfo             `json:"columns"`
	Topics     []string                 `json:"topics"`
	FirstMonth string                   `json:"first_month,omitempty"`
	LastMonth  string                   `json:"last_month,omitempty"`
	Preview    []map[string]interface{} `json:"preview"`
	CreatedAt  time.Time                `json:"created_at"`
	ExpiresAt  time.Time                `json:"expires_at"`
}

// View status values
const (
	ViewStatusOK    = "ok"
	ViewStatusError = "error"
)

// ViewOutcome is the result of one view inside an overview. A failed view
// carries its error and leaves the other views untouched.
type ViewOutcome struct {
	Status string      `json:"status"`
	Error  string      `json:"error,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// OverviewResponse carries every dashboard view of a dataset
type OverviewResponse struct {
	DatasetID string                 `json:"dataset_id"`
	Topic     string                 `json:"topic"`
	K         int                    `json:"k"`
	Views     map[string]ViewOutcome `json:"views"`
}
