// File path: internal/api/compare_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nicodishanthj/sqlverdict/internal/common"
	"github.com/nicodishanthj/sqlverdict/internal/corpus"
	"github.com/nicodishanthj/sqlverdict/internal/pipeline"
)

// compareUnit carries one side of a comparison: the code unit and whatever
// the statement oracle emitted for it. SQLStatements is accepted verbatim,
// malformed payloads included; extraction degrades instead of failing.
type compareUnit struct {
	Unit          corpus.CodeUnit `json:"unit"`
	SQLStatements interface{}     `json:"sql_statements"`
}

type compareRequest struct {
	Target    compareUnit `json:"target"`
	Reference compareUnit `json:"reference"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := common.Logger()

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	targetSet, targetDegraded := corpus.BuildFingerprintSet(&req.Target.Unit, req.Target.SQLStatements)
	referenceSet, referenceDegraded := corpus.BuildFingerprintSet(&req.Reference.Unit, req.Reference.SQLStatements)

	job, err := pipeline.NewJob(targetSet, referenceSet)
	if err != nil {
		// Malformed code units fail the whole job.
		writeError(w, http.StatusBadRequest, err)
		return
	}
	logger.Info("api: compare job accepted",
		"job_id", job.ID,
		"target", req.Target.Unit.FunctionName,
		"reference", req.Reference.Unit.FunctionName,
		"target_fingerprints", targetSet.Len(),
		"reference_fingerprints", referenceSet.Len(),
		"target_degraded", targetDegraded,
		"reference_degraded", referenceDegraded,
	)

	report, err := s.runner.Compare(ctx, job)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			writeError(w, http.StatusRequestTimeout, fmt.Errorf("compare aborted: %w", err))
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Errorf("compare: %w", err))
		return
	}

	if s.catalog != nil {
		if err := s.catalog.SaveReport(ctx, report); err != nil {
			logger.Error("api: persist report failed", "job_id", report.JobID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, report)
}
