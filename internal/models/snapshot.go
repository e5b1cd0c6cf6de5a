package models

import "time"

// Snapshot is one immutable import of all application records for a day.
// Re-importing a day creates a newer snapshot; the latest one wins.
type Snapshot struct {
	ID         int64     `db:"id" json:"id"`
	Day        string    `db:"day" json:"day"`
	ImportedAt time.Time `db:"imported_at" json:"imported_at"`
}

// ApplicationRow is one applicant/program pair inside a snapshot, including
// the component scores preserved from the CSV export.
type ApplicationRow struct {
	ID           int64  `db:"id" json:"id"`
	SnapshotID   int64  `db:"snapshot_id" json:"snapshot_id"`
	ApplicantID  int64  `db:"applicant_id" json:"applicant_id"`
	ProgramID    int64  `db:"program_id" json:"program_id"`
	ProgramCode  string `db:"program_code" json:"program_code"`
	Consent      bool   `db:"consent" json:"consent"`
	Priority     int    `db:"priority" json:"priority"`
	PhysicsIKT   int    `db:"physics_ikt" json:"physics_ikt"`
	Russian      int    `db:"russian" json:"russian"`
	Math         int    `db:"math" json:"math"`
	Achievements int    `db:"achievements" json:"achievements"`
	Total        int    `db:"total" json:"total"`
}

// ApplicationRecord is the matching-engine input contract: one consenting
// applicant/program pair with its ranking score.
type ApplicationRecord struct {
	ApplicantID int64  `db:"applicant_id" json:"applicant_id"`
	ProgramCode string `db:"program_code" json:"program_code"`
	Priority    int    `db:"priority" json:"priority"`
	Score       int    `db:"score" json:"score"`
}

// SnapshotRowFilter pages through one program's rows of a snapshot.
type SnapshotRowFilter struct {
	Page     int
	PageSize int
}

// Normalize clamps paging to the supported bounds so that the values echoed
// back to the client match the ones actually applied.
func (f SnapshotRowFilter) Normalize() SnapshotRowFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 500 {
		f.PageSize = 200
	}
	return f
}

// PriorityChainEntry is one program in an applicant's ranked list.
type PriorityChainEntry struct {
	ProgramCode string `json:"program_code"`
	Priority    int    `json:"priority"`
}

// PriorityChain is the unified per-applicant view of ranked applications.
type PriorityChain struct {
	ApplicantID int64                `json:"applicant_id"`
	Entries     []PriorityChainEntry `json:"entries"`
}
