// File path: internal/pipeline/pipeline.go
// Package pipeline classifies the fingerprint differences between two SQL
// statement sets through an ordered escalation: a deterministic rule
// prefilter, an oracle-backed syntax-equivalence check, and one
// direction-specific business stage. Cheaper stages short-circuit the more
// expensive ones; oracle verdicts are memoized per job.
package pipeline

import (
	"context"

	"github.com/nicodishanthj/sqlverdict/internal/corpus"
	"github.com/nicodishanthj/sqlverdict/internal/fingerprint"
	"github.com/nicodishanthj/sqlverdict/internal/oracle"
)

type bucket int

const (
	bucketCommon bucket = iota
	bucketRedundant
	bucketNewlyValid
	bucketMissing
)

type resolution struct {
	bucket bucket
	entry  Entry
}

// Pipeline runs comparison jobs against a judge.
type Pipeline struct {
	judge oracle.Judge
	cfg   Config
}

// New constructs a pipeline. Zero config fields fall back to defaults.
func New(judge oracle.Judge, cfg Config) *Pipeline {
	cfg.applyDefaults()
	return &Pipeline{judge: judge, cfg: cfg}
}

// resolveTargetExtra classifies a fingerprint present only in the target
// set. With at least one shared fingerprint the difference is judged as
// possible redundancy; with no overlap at all it goes straight to the
// new-fingerprint validity stage.
func (p *Pipeline) resolveTargetExtra(ctx context.Context, job *Job,
	fp fingerprint.Fingerprint, hasCommon bool) resolution {

	artifact := job.Target.First(fp)
	candidateFP, candidate := closest(job.Reference, fp)

	if candidate != nil {
		if res, ok := p.checkEquivalence(ctx, job, fp, candidateFP, artifact, candidate); ok {
			return res
		}
	}

	if candidate != nil && hasCommon {
		verdict := job.judge(ctx, p.judge, oracle.StageRedundancy, fp, "", oracle.JudgmentContext{
			TargetSQL:       artifact.RawText,
			ReferenceSQLs:   job.Reference.RawStatements(),
			TargetCaller:    job.Target.Owner().CallerText(),
			ReferenceCaller: job.Reference.Owner().CallerText(),
			SourceText:      job.Target.Owner().SourceText,
			CodeMeta:        job.Target.Owner().MetaText(),
			ScenarioLabel:   artifact.ScenarioLabel,
		})
		if verdict.Kind == oracle.Inconclusive {
			// Keeping a disputed statement is less destructive than
			// deleting it.
			verdict = oracle.Verdict{Kind: oracle.NotRedundant, Reasoning: "inconclusive: " + verdict.Reasoning}
		}
		return resolution{bucket: bucketRedundant, entry: newEntry(fp, artifact, verdict)}
	}

	verdict := job.judge(ctx, p.judge, oracle.StageNewFingerprint, fp, "", oracle.JudgmentContext{
		TargetSQL:       artifact.RawText,
		ReferenceSQLs:   job.Reference.RawStatements(),
		TargetCaller:    job.Target.Owner().CallerText(),
		ReferenceCaller: job.Reference.Owner().CallerText(),
		SourceText:      job.Target.Owner().SourceText,
		CodeMeta:        job.Target.Owner().MetaText(),
		ScenarioLabel:   artifact.ScenarioLabel,
	})
	if verdict.Kind == oracle.Inconclusive {
		verdict = oracle.Verdict{Kind: oracle.ValidNew, Reasoning: "inconclusive: " + verdict.Reasoning}
	}
	return resolution{bucket: bucketNewlyValid, entry: newEntry(fp, artifact, verdict)}
}

// resolveReferenceMissing classifies a fingerprint present only in the
// reference set, ending in the missing-necessity stage.
func (p *Pipeline) resolveReferenceMissing(ctx context.Context, job *Job,
	fp fingerprint.Fingerprint) resolution {

	artifact := job.Reference.First(fp)
	candidateFP, candidate := closest(job.Target, fp)

	if candidate != nil {
		if res, ok := p.checkEquivalence(ctx, job, fp, candidateFP, candidate, artifact); ok {
			return res
		}
	}

	verdict := job.judge(ctx, p.judge, oracle.StageMissing, fp, "", oracle.JudgmentContext{
		ReferenceSQL:    artifact.RawText,
		TargetSQLs:      job.Target.RawStatements(),
		TargetCaller:    job.Target.Owner().CallerText(),
		ReferenceCaller: job.Reference.Owner().CallerText(),
		SourceText:      job.Target.Owner().SourceText,
		CodeMeta:        job.Target.Owner().MetaText(),
		ScenarioLabel:   artifact.ScenarioLabel,
	})
	if verdict.Kind == oracle.Inconclusive {
		verdict = oracle.Verdict{Kind: oracle.NotMissing, Reasoning: "inconclusive: " + verdict.Reasoning}
	}
	return resolution{bucket: bucketMissing, entry: newEntry(fp, artifact, verdict)}
}

// checkEquivalence runs the rule prefilter and, when that escalates, the
// oracle syntax-equivalence stage against the closest candidate. It reports
// whether the difference resolved as format-equivalent.
func (p *Pipeline) checkEquivalence(ctx context.Context, job *Job,
	fp, candidateFP fingerprint.Fingerprint,
	target, reference *corpus.SqlArtifact) (resolution, bool) {

	// RulePrefilter: deterministic, symmetric, no oracle call. For
	// set-unique fingerprints the two normalized forms always differ, so
	// this documents the stage ordering rather than catching cases; the
	// oracle syntax stage below is the first reachable resolution.
	if fingerprint.Equivalent(target.RawText, reference.RawText) {
		verdict := oracle.Verdict{Kind: oracle.FormatEquivalent, Reasoning: "identical after normalization"}
		return resolution{bucket: bucketCommon, entry: newEntry(fp, target, verdict)}, true
	}

	verdict := job.judge(ctx, p.judge, oracle.StageSyntax, fp, candidateFP, oracle.JudgmentContext{
		TargetSQL:       target.RawText,
		ReferenceSQL:    reference.RawText,
		TargetCaller:    job.Target.Owner().CallerText(),
		ReferenceCaller: job.Reference.Owner().CallerText(),
		SourceText:      job.Target.Owner().SourceText,
		CodeMeta:        job.Target.Owner().MetaText(),
	})
	if verdict.Kind == oracle.FormatEquivalent {
		return resolution{bucket: bucketCommon, entry: newEntry(fp, target, verdict)}, true
	}
	// SemanticDifferent and Inconclusive both escalate to the
	// direction-specific stage.
	return resolution{}, false
}

// closest picks the comparison partner for an unmatched fingerprint: lowest
// edit distance on normalized text, ties resolved to the earliest-inserted
// fingerprint. Returns nil when the set is empty.
func closest(set *corpus.FingerprintSet, fp fingerprint.Fingerprint) (fingerprint.Fingerprint, *corpus.SqlArtifact) {
	var bestFP fingerprint.Fingerprint
	best := -1
	for _, candidate := range set.Fingerprints() {
		d := fingerprint.Distance(fp, candidate)
		if best < 0 || d < best {
			best = d
			bestFP = candidate
		}
	}
	if best < 0 {
		return "", nil
	}
	return bestFP, set.First(bestFP)
}

func newEntry(fp fingerprint.Fingerprint, artifact *corpus.SqlArtifact, verdict oracle.Verdict) Entry {
	return Entry{
		Fingerprint: string(fp),
		SQL:         artifact.RawText,
		Scenario:    artifact.ScenarioLabel,
		Verdict:     verdict,
	}
}
