package models

import "time"

// ReportStatus tracks report job lifecycle.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "queued"
	ReportStatusProcessing ReportStatus = "processing"
	ReportStatusFinished   ReportStatus = "finished"
	ReportStatusFailed     ReportStatus = "failed"
)

// ReportJob is one asynchronous PDF report generation task.
type ReportJob struct {
	ID         string       `json:"id"`
	Day        string       `json:"day"`
	Status     ReportStatus `json:"status"`
	FilePath   string       `json:"file_path,omitempty"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}
