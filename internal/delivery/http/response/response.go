package response

import "time"

// HourStatusResponse is the DTO for GET /api/hours/{hour}, mirroring entity.HourStatus.
type HourStatusResponse struct {
	Hour           string     `json:"hour"`
	Status         string     `json:"status"` // "completed", "skipped", "failed"
	RunID          string     `json:"run_id,omitempty"`
	DownloadFailed bool       `json:"download_failed"`
	RowsLoaded     int        `json:"rows_loaded"`
	RowsRanked     int        `json:"rows_ranked"`
	OutputPath     string     `json:"output_path,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	DurationMS     int64      `json:"duration_ms,omitempty"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
