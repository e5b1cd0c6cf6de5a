package dto

// ImportResponse summarises one completed day import.
type ImportResponse struct {
	SnapshotID int64  `json:"snapshot_id"`
	Day        string `json:"day"`
	Rows       int    `json:"rows"`
	Files      int    `json:"files"`
	DurationMs int64  `json:"duration_ms"`
}
