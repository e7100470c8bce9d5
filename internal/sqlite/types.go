// File path: internal/sqlite/types.go
package sqlite

import "time"

// ReportRow is the catalog row for one persisted comparison report. The
// full report body lives in the payload column as JSON; the remaining
// columns are the queryable summary.
type ReportRow struct {
	ID                int64     `db:"id"`
	JobID             string    `db:"job_id"`
	TargetFunction    string    `db:"target_function"`
	ReferenceFunction string    `db:"reference_function"`
	CommonCount       int       `db:"common_count"`
	RedundantCount    int       `db:"redundant_count"`
	MissingCount      int       `db:"missing_count"`
	NewlyValidCount   int       `db:"newly_valid_count"`
	OracleCalls       int64     `db:"oracle_calls"`
	CacheHits         int64     `db:"cache_hits"`
	Payload           string    `db:"payload"`
	CreatedAt         time.Time `db:"created_at"`
}

// ReportSummary is the listing view of a catalog row, without the payload.
type ReportSummary struct {
	JobID             string    `json:"job_id"`
	TargetFunction    string    `json:"target_function"`
	ReferenceFunction string    `json:"reference_function"`
	CommonCount       int       `json:"common_count"`
	RedundantCount    int       `json:"redundant_count"`
	MissingCount      int       `json:"missing_count"`
	NewlyValidCount   int       `json:"newly_valid_count"`
	OracleCalls       int64     `json:"oracle_calls"`
	CacheHits         int64     `json:"cache_hits"`
	CreatedAt         time.Time `json:"created_at"`
}

func (r ReportRow) summary() ReportSummary {
	return ReportSummary{
		JobID:             r.JobID,
		TargetFunction:    r.TargetFunction,
		ReferenceFunction: r.ReferenceFunction,
		CommonCount:       r.CommonCount,
		RedundantCount:    r.RedundantCount,
		MissingCount:      r.MissingCount,
		NewlyValidCount:   r.NewlyValidCount,
		OracleCalls:       r.OracleCalls,
		CacheHits:         r.CacheHits,
		CreatedAt:         r.CreatedAt,
	}
}
