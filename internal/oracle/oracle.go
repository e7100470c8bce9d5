// File path: internal/oracle/oracle.go
// Package oracle models the natural-language judgment service consulted by
// the escalation pipeline. The Judge interface is the only component allowed
// to perform I/O; deterministic test doubles substitute the network-backed
// implementation.
package oracle

import "context"

// StageKind names the judgment a stage needs from the oracle.
type StageKind string

const (
	StageSyntax         StageKind = "syntax"
	StageRedundancy     StageKind = "redundancy"
	StageNewFingerprint StageKind = "new_fingerprint"
	StageMissing        StageKind = "missing"
)

// VerdictKind tags the outcome of one escalation stage.
type VerdictKind string

const (
	FormatEquivalent  VerdictKind = "format_equivalent"
	SemanticDifferent VerdictKind = "semantic_different"
	Redundant         VerdictKind = "redundant"
	NotRedundant      VerdictKind = "not_redundant"
	ValidNew          VerdictKind = "valid_new"
	InvalidNew        VerdictKind = "invalid_new"
	TrulyMissing      VerdictKind = "truly_missing"
	NotMissing        VerdictKind = "not_missing"
	Inconclusive      VerdictKind = "inconclusive"
)

// Verdict is the result of one judgment. Reasoning is free text surfaced to
// the caller and never parsed further.
type Verdict struct {
	Kind      VerdictKind `json:"kind"`
	Reasoning string      `json:"reasoning,omitempty"`
}

// InconclusiveVerdict reports an adapter failure (timeout, malformed reply)
// as a verdict instead of a crash; the pipeline applies the stage's
// conservative default.
func InconclusiveVerdict(reason string) Verdict {
	return Verdict{Kind: Inconclusive, Reasoning: reason}
}

// JudgmentContext bundles the fields a stage needs. Only the fields relevant
// to the requested stage are populated.
type JudgmentContext struct {
	TargetSQL       string   `json:"target_sql,omitempty"`
	ReferenceSQL    string   `json:"reference_sql,omitempty"`
	TargetSQLs      []string `json:"target_sqls,omitempty"`
	ReferenceSQLs   []string `json:"reference_sqls,omitempty"`
	TargetCaller    string   `json:"target_caller,omitempty"`
	ReferenceCaller string   `json:"reference_caller,omitempty"`
	SourceText      string   `json:"source_text,omitempty"`
	CodeMeta        string   `json:"code_meta,omitempty"`
	ScenarioLabel   string   `json:"scenario_label,omitempty"`
}

// Judge answers one classification question. Implementations must be
// idempotent for identical (stage, context) pairs; the pipeline memoizes on
// that guarantee. Failures are reported as Inconclusive verdicts.
type Judge interface {
	Judge(ctx context.Context, stage StageKind, jc JudgmentContext) (Verdict, error)
}
