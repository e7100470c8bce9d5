// File path: internal/sqlite/queries.go
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nicodishanthj/sqlverdict/internal/pipeline"
)

// ErrReportNotFound is returned when no catalog row matches the job id.
var ErrReportNotFound = errors.New("report not found")

// SaveReport persists a comparison report. Saving the same job id again
// replaces the previous row.
func (s *Store) SaveReport(ctx context.Context, report *pipeline.Report) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	if report == nil {
		return errors.New("report required")
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reports (
				job_id, target_function, reference_function,
				common_count, redundant_count, missing_count, newly_valid_count,
				oracle_calls, cache_hits, payload, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(job_id) DO UPDATE SET
				target_function = excluded.target_function,
				reference_function = excluded.reference_function,
				common_count = excluded.common_count,
				redundant_count = excluded.redundant_count,
				missing_count = excluded.missing_count,
				newly_valid_count = excluded.newly_valid_count,
				oracle_calls = excluded.oracle_calls,
				cache_hits = excluded.cache_hits,
				payload = excluded.payload,
				created_at = excluded.created_at`,
			report.JobID, report.TargetFunction, report.ReferenceFunction,
			report.CommonCount(), len(report.Redundant), len(report.Missing), len(report.NewlyValid),
			report.Stats.OracleCalls, report.Stats.CacheHits,
			string(payload), report.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert report: %w", err)
		}
		return nil
	})
}

// GetReport loads the full report body for a job id.
func (s *Store) GetReport(ctx context.Context, jobID string) (*pipeline.Report, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.New("job id required")
	}
	var row ReportRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM reports WHERE job_id = ?`, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("select report: %w", err)
	}
	var report pipeline.Report
	if err := json.Unmarshal([]byte(row.Payload), &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", jobID, err)
	}
	return &report, nil
}

// ListReports returns catalog summaries, newest first. A non-empty
// targetFunction narrows the listing; limit <= 0 means no limit.
func (s *Store) ListReports(ctx context.Context, targetFunction string, limit int) ([]ReportSummary, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	query := `SELECT * FROM reports`
	args := []interface{}{}
	if trimmed := strings.TrimSpace(targetFunction); trimmed != "" {
		query += ` WHERE target_function = ?`
		args = append(args, trimmed)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows := []ReportRow{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select reports: %w", err)
	}
	summaries := make([]ReportSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, row.summary())
	}
	return summaries, nil
}

// DeleteReport removes a catalog row. Deleting an absent job id is not an
// error.
func (s *Store) DeleteReport(ctx context.Context, jobID string) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return errors.New("job id required")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}
