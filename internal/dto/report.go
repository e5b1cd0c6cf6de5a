package dto

import "time"

// ReportJobResponse exposes report job state to clients.
type ReportJobResponse struct {
	ID         string     `json:"id"`
	Day        string     `json:"day"`
	Status     string     `json:"status"`
	Error      *string    `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
