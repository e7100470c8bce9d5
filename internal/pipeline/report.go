// File path: internal/pipeline/report.go
package pipeline

import (
	"time"

	"github.com/nicodishanthj/sqlverdict/internal/oracle"
)

// Entry is one classified fingerprint difference.
type Entry struct {
	Fingerprint string         `json:"fingerprint"`
	SQL         string         `json:"sql_text"`
	Scenario    string         `json:"scenario_label,omitempty"`
	Verdict     oracle.Verdict `json:"verdict"`
}

// Stats summarizes the cost of a comparison job.
type Stats struct {
	OracleCalls        int64 `json:"oracle_calls"`
	CacheHits          int64 `json:"cache_hits"`
	SingleflightShares int64 `json:"singleflight_shares"`
}

// Report is the final classification of one target/reference comparison.
// The three difference lists preserve first-seen fingerprint order; Common
// holds the fingerprints present in both sets, including those the
// escalation resolved as format-equivalent.
type Report struct {
	JobID             string    `json:"job_id"`
	TargetFunction    string    `json:"target_function"`
	ReferenceFunction string    `json:"reference_function"`
	TargetCaller      string    `json:"target_caller,omitempty"`
	ReferenceCaller   string    `json:"reference_caller,omitempty"`

	Common     []string `json:"common"`
	Redundant  []Entry  `json:"redundant"`
	Missing    []Entry  `json:"missing"`
	NewlyValid []Entry  `json:"newly_valid"`

	Stats     Stats     `json:"stats"`
	CreatedAt time.Time `json:"created_at"`
}

// CommonCount returns the number of fingerprints shared by both sets.
func (r *Report) CommonCount() int { return len(r.Common) }
