// File path: internal/pipeline/compare.go
package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nicodishanthj/sqlverdict/internal/common/telemetry"
	"github.com/nicodishanthj/sqlverdict/internal/fingerprint"
)

// Compare classifies every fingerprint difference between the job's target
// and reference sets and assembles the final report. Fingerprints present
// in both sets pass through without escalation; the rest are resolved
// concurrently under the configured worker limit. Each difference is
// independent: one inconclusive or failed judgment never blocks siblings.
// Cancelling ctx aborts the job and discards any in-flight results.
func (p *Pipeline) Compare(ctx context.Context, job *Job) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	var common, extras []fingerprint.Fingerprint
	for _, fp := range job.Target.Fingerprints() {
		if job.Reference.Contains(fp) {
			common = append(common, fp)
		} else {
			extras = append(extras, fp)
		}
	}
	var missing []fingerprint.Fingerprint
	for _, fp := range job.Reference.Fingerprints() {
		if !job.Target.Contains(fp) {
			missing = append(missing, fp)
		}
	}
	hasCommon := len(common) > 0

	extraRes := make([]resolution, len(extras))
	missingRes := make([]resolution, len(missing))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrent)
	for i, fp := range extras {
		i, fp := i, fp
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			extraRes[i] = p.resolveTargetExtra(gctx, job, fp, hasCommon)
			return nil
		})
	}
	for i, fp := range missing {
		i, fp := i, fp
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			missingRes[i] = p.resolveReferenceMissing(gctx, job, fp)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		JobID:             job.ID,
		TargetFunction:    job.Target.Owner().FunctionName,
		ReferenceFunction: job.Reference.Owner().FunctionName,
		TargetCaller:      job.Target.Owner().CallerText(),
		ReferenceCaller:   job.Reference.Owner().CallerText(),
		CreatedAt:         time.Now().UTC(),
	}
	for _, fp := range common {
		report.Common = append(report.Common, string(fp))
	}
	collect := func(resolutions []resolution) {
		for _, res := range resolutions {
			switch res.bucket {
			case bucketCommon:
				report.Common = append(report.Common, res.entry.Fingerprint)
			case bucketRedundant:
				report.Redundant = append(report.Redundant, res.entry)
			case bucketNewlyValid:
				report.NewlyValid = append(report.NewlyValid, res.entry)
			case bucketMissing:
				report.Missing = append(report.Missing, res.entry)
			}
		}
	}
	collect(extraRes)
	collect(missingRes)

	report.Stats = job.stats()
	telemetry.RecordJob(time.Since(start))
	return report, nil
}
