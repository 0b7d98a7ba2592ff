package domain

import "time"

// Ingestion statuses recorded in the audit log.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// IngestLogEntry is one append-only audit row: exactly one is written per
// target per run, success or failure. Entries are never updated or deleted.
type IngestLogEntry struct {
	ID         int64     `db:"id" json:"id"`
	Platform   Platform  `db:"platform" json:"platform"`
	CreatorID  *int64    `db:"creator_id" json:"creator_id,omitempty"`
	Status     string    `db:"status" json:"status"`
	Message    string    `db:"message" json:"message"`
	ItemsSaved int       `db:"items_saved" json:"items_saved"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// TargetResult reports one coordinator invocation: a creator fetch or a
// (platform, keyword) search.
type TargetResult struct {
	Target     string   `json:"target"`
	Platform   Platform `json:"platform"`
	Status     string   `json:"status"`
	Message    string   `json:"message,omitempty"`
	ItemsFound int      `json:"items_found"`
	ItemsSaved int      `json:"items_saved"`
}

// Sweep kinds.
const (
	SweepHourly = "hourly"
	SweepDaily  = "daily"
	SweepManual = "manual"
)

// RunReport summarizes one sweep over its full target list.
type RunReport struct {
	Kind             string         `json:"kind"`
	StartedAt        time.Time      `json:"started_at"`
	Duration         time.Duration  `json:"duration"`
	TargetsProcessed int            `json:"targets_processed"`
	SuccessCount     int            `json:"success_count"`
	ErrorCount       int            `json:"error_count"`
	ItemsSaved       int            `json:"items_saved"`
	Results          []TargetResult `json:"results"`
}

// Add folds one target result into the report tallies.
func (r *RunReport) Add(res TargetResult) {
	r.TargetsProcessed++
	r.ItemsSaved += res.ItemsSaved
	if res.Status == StatusSuccess {
		r.SuccessCount++
	} else {
		r.ErrorCount++
	}
	r.Results = append(r.Results, res)
}
