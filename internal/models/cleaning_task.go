package models

import "time"

// CleaningTask records one run of the schedule cleaner over a reporting period
type CleaningTask struct {
	ID int64 `json:"id" db:"id"`

	// Task identification
	Period string `json:"period" db:"period"` // YYYY-MM

	// Status
	Status string `json:"status" db:"status"` // pending, running, completed, failed

	CleaningCounts

	// Execution info
	StartTime int64 `json:"start_time,omitempty" db:"start_time"` // Unix timestamp
	EndTime   int64 `json:"end_time,omitempty" db:"end_time"`     // Unix timestamp

	// Results
	ResultSummary string `json:"result_summary,omitempty" db:"result_summary"` // JSON repair/normalize reports
	ErrorMessage  string `json:"error_message,omitempty" db:"error_message"`

	// Metadata
	CreatedBy string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CleaningCounts are the record counters of a finished cleaning run
type CleaningCounts struct {
	InputRecords     int `json:"input_records" db:"input_records"`
	OutputRecords    int `json:"output_records" db:"output_records"`
	DroppedRecords   int `json:"dropped_records" db:"dropped_records"`
	OutliersAdjusted int `json:"outliers_adjusted" db:"outliers_adjusted"`
}

// TaskStatus constants
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)
