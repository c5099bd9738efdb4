package entity

import "time"

const (
	HourStatusCompleted = "completed"
	HourStatusSkipped   = "skipped"
	HourStatusFailed    = "failed"
	HourStatusNotFound  = "not_found"
)

// HourStatus records what a run did with one hour.
type HourStatus struct {
	RunID          string    `json:"run_id"`
	Hour           time.Time `json:"hour"`
	Status         string    `json:"status"`
	DownloadFailed bool      `json:"download_failed"`
	RowsLoaded     int       `json:"rows_loaded"`
	RowsRanked     int       `json:"rows_ranked"`
	OutputPath     string    `json:"output_path,omitempty"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	ProcessedAt    time.Time `json:"processed_at"`
	DurationMS     int64     `json:"duration_ms"`
}

// HourCompleted is published once an hour's output has been written.
type HourCompleted struct {
	RunID      string    `json:"run_id"`
	Hour       string    `json:"hour"`
	OutputPath string    `json:"output_path"`
	Rows       int       `json:"rows"`
	Domains    int       `json:"domains"`
	WrittenAt  time.Time `json:"written_at"`
}
