// File path: internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/nicodishanthj/sqlverdict/internal/corpus"
	"github.com/nicodishanthj/sqlverdict/internal/oracle"
)

// countingJudge answers stage questions from a fixed table and records every
// call it receives.
type countingJudge struct {
	mu       sync.Mutex
	calls    []oracle.StageKind
	syntax   oracle.Verdict
	redund   oracle.Verdict
	validNew oracle.Verdict
	missing  oracle.Verdict
}

func newCountingJudge() *countingJudge {
	return &countingJudge{
		syntax:   oracle.Verdict{Kind: oracle.SemanticDifferent},
		redund:   oracle.Verdict{Kind: oracle.NotRedundant},
		validNew: oracle.Verdict{Kind: oracle.ValidNew},
		missing:  oracle.Verdict{Kind: oracle.NotMissing},
	}
}

func (j *countingJudge) Judge(_ context.Context, stage oracle.StageKind, _ oracle.JudgmentContext) (oracle.Verdict, error) {
	j.mu.Lock()
	j.calls = append(j.calls, stage)
	j.mu.Unlock()
	switch stage {
	case oracle.StageSyntax:
		return j.syntax, nil
	case oracle.StageRedundancy:
		return j.redund, nil
	case oracle.StageNewFingerprint:
		return j.validNew, nil
	case oracle.StageMissing:
		return j.missing, nil
	}
	return oracle.InconclusiveVerdict("unexpected stage"), nil
}

func (j *countingJudge) stageCalls(stage oracle.StageKind) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, s := range j.calls {
		if s == stage {
			n++
		}
	}
	return n
}

func (j *countingJudge) total() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.calls)
}

func buildSet(t *testing.T, function, caller string, statements ...string) *corpus.FingerprintSet {
	t.Helper()
	values := make([]interface{}, 0, len(statements))
	for _, s := range statements {
		values = append(values, s)
	}
	unit := &corpus.CodeUnit{
		FunctionName: function,
		SourceText:   "def " + function + "(): ...",
		CallerChain:  []string{caller},
	}
	set, degraded := corpus.BuildFingerprintSet(unit, values)
	if degraded {
		t.Fatalf("unexpected degradation building %s/%s", function, caller)
	}
	return set
}

func newTestJob(t *testing.T, target, reference *corpus.FingerprintSet) *Job {
	t.Helper()
	job, err := NewJob(target, reference)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	return job
}

func TestCompareIdenticalSetsSkipsOracle(t *testing.T) {
	judge := newCountingJudge()
	p := New(judge, Config{MaxConcurrent: 2})
	job := newTestJob(t,
		buildSet(t, "get_users", "a", "SELECT id FROM users", "SELECT name FROM users"),
		buildSet(t, "get_users", "b", "select  id from users", "SELECT name FROM users"),
	)
	report, err := p.Compare(context.Background(), job)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if judge.total() != 0 {
		t.Fatalf("identical sets must not reach the oracle, got %d calls", judge.total())
	}
	if len(report.Common) != 2 || len(report.Redundant)+len(report.Missing)+len(report.NewlyValid) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestComparePrefilterResolvesFormatNoise(t *testing.T) {
	judge := newCountingJudge()
	p := New(judge, Config{MaxConcurrent: 2})
	// Alias renames survive normalization, so the pair escalates to the
	// syntax stage and resolves there as format noise.
	judge.syntax = oracle.Verdict{Kind: oracle.FormatEquivalent, Reasoning: "alias renamed"}
	job := newTestJob(t,
		buildSet(t, "get_users", "a", "SELECT id FROM users", "SELECT u.name FROM users u"),
		buildSet(t, "get_users", "b", "SELECT id FROM users", "SELECT x.name FROM users x"),
	)
	report, err := p.Compare(context.Background(), job)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(report.Common) != 3 {
		t.Fatalf("format-equivalent pair must land in common: %+v", report)
	}
	if len(report.Redundant)+len(report.Missing)+len(report.NewlyValid) != 0 {
		t.Fatalf("nothing should escalate past syntax: %+v", report)
	}
	if judge.stageCalls(oracle.StageRedundancy)+judge.stageCalls(oracle.StageMissing) != 0 {
		t.Fatalf("short-circuit failed: %v", judge.calls)
	}
}

func TestCompareEscalatesToDirectionStages(t *testing.T) {
	judge := newCountingJudge()
	judge.redund = oracle.Verdict{Kind: oracle.Redundant, Reasoning: "duplicate lookup"}
	judge.missing = oracle.Verdict{Kind: oracle.TrulyMissing, Reasoning: "audit row lost"}
	p := New(judge, Config{MaxConcurrent: 2})
	job := newTestJob(t,
		buildSet(t, "get_users", "a", "SELECT id FROM users", "SELECT id FROM sessions"),
		buildSet(t, "get_users", "b", "SELECT id FROM users", "INSERT INTO audit VALUES (?)"),
	)
	report, err := p.Compare(context.Background(), job)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(report.Common) != 1 {
		t.Fatalf("shared fingerprint lost: %+v", report)
	}
	if len(report.Redundant) != 1 || report.Redundant[0].Verdict.Kind != oracle.Redundant {
		t.Fatalf("target extra not classified: %+v", report.Redundant)
	}
	if len(report.Missing) != 1 || report.Missing[0].Verdict.Kind != oracle.TrulyMissing {
		t.Fatalf("reference extra not classified: %+v", report.Missing)
	}
	if judge.stageCalls(oracle.StageSyntax) != 2 {
		t.Fatalf("each unmatched fingerprint gets one syntax check, got %d", judge.stageCalls(oracle.StageSyntax))
	}
}

func TestCompareNoOverlapGoesToNewFingerprintStage(t *testing.T) {
	judge := newCountingJudge()
	p := New(judge, Config{MaxConcurrent: 2})
	job := newTestJob(t,
		buildSet(t, "get_users", "a", "SELECT id FROM sessions"),
		buildSet(t, "get_users", "b", "SELECT id FROM users"),
	)
	report, err := p.Compare(context.Background(), job)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if judge.stageCalls(oracle.StageRedundancy) != 0 {
		t.Fatalf("no shared fingerprints, redundancy stage must be skipped: %v", judge.calls)
	}
	if len(report.NewlyValid) != 1 || report.NewlyValid[0].Verdict.Kind != oracle.ValidNew {
		t.Fatalf("unexpected newly-valid list: %+v", report.NewlyValid)
	}
}

func TestCompareEmptyReferenceSkipsSyntaxStage(t *testing.T) {
	judge := newCountingJudge()
	p := New(judge, Config{MaxConcurrent: 2})
	job := newTestJob(t,
		buildSet(t, "get_users", "a", "SELECT id FROM users"),
		buildSet(t, "get_users", "b"),
	)
	report, err := p.Compare(context.Background(), job)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if judge.stageCalls(oracle.StageSyntax) != 0 {
		t.Fatalf("no candidate exists, syntax stage must be skipped: %v", judge.calls)
	}
	if len(report.NewlyValid) != 1 || report.NewlyValid[0].Verdict.Kind != oracle.ValidNew {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestCompareInconclusiveDefaults(t *testing.T) {
	judge := newCountingJudge()
	judge.redund = oracle.InconclusiveVerdict("model waffled")
	judge.missing = oracle.InconclusiveVerdict("model waffled")
	p := New(judge, Config{MaxConcurrent: 2})
	job := newTestJob(t,
		buildSet(t, "get_users", "a", "SELECT id FROM users", "SELECT id FROM sessions"),
		buildSet(t, "get_users", "b", "SELECT id FROM users", "INSERT INTO audit VALUES (?)"),
	)
	report, err := p.Compare(context.Background(), job)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(report.Redundant) != 1 || report.Redundant[0].Verdict.Kind != oracle.NotRedundant {
		t.Fatalf("inconclusive redundancy must default to NotRedundant: %+v", report.Redundant)
	}
	if !strings.HasPrefix(report.Redundant[0].Verdict.Reasoning, "inconclusive:") {
		t.Fatalf("default verdict must keep the inconclusive trail: %+v", report.Redundant[0].Verdict)
	}
	if len(report.Missing) != 1 || report.Missing[0].Verdict.Kind != oracle.NotMissing {
		t.Fatalf("inconclusive missing must default to NotMissing: %+v", report.Missing)
	}
}

func TestJobMemoizesJudgments(t *testing.T) {
	judge := newCountingJudge()
	job := newTestJob(t,
		buildSet(t, "get_users", "a", "SELECT 1"),
		buildSet(t, "get_users", "b", "SELECT 2"),
	)
	jc := oracle.JudgmentContext{TargetSQL: "SELECT 1", ReferenceSQL: "SELECT 2"}
	first := job.judge(context.Background(), judge, oracle.StageSyntax, "select 1", "select 2", jc)
	second := job.judge(context.Background(), judge, oracle.StageSyntax, "select 1", "select 2", jc)
	if judge.total() != 1 {
		t.Fatalf("identical judgments must hit the adapter once, got %d", judge.total())
	}
	if first != second {
		t.Fatalf("memoized verdict changed: %+v vs %+v", first, second)
	}
	stats := job.stats()
	if stats.OracleCalls != 1 || stats.CacheHits != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	// A different stage over the same pair is a different question.
	job.judge(context.Background(), judge, oracle.StageRedundancy, "select 1", "", jc)
	if judge.total() != 2 {
		t.Fatalf("distinct stages must not share cache entries, got %d", judge.total())
	}
}

type slowJudge struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (j *slowJudge) Judge(_ context.Context, _ oracle.StageKind, _ oracle.JudgmentContext) (oracle.Verdict, error) {
	j.mu.Lock()
	j.calls++
	first := j.calls == 1
	j.mu.Unlock()
	if first {
		close(j.started)
		<-j.release
	}
	return oracle.Verdict{Kind: oracle.FormatEquivalent}, nil
}

func TestJobSingleflightSharesInFlightCall(t *testing.T) {
	judge := &slowJudge{started: make(chan struct{}), release: make(chan struct{})}
	job := newTestJob(t,
		buildSet(t, "get_users", "a", "SELECT 1"),
		buildSet(t, "get_users", "b", "SELECT 2"),
	)
	jc := oracle.JudgmentContext{TargetSQL: "SELECT 1", ReferenceSQL: "SELECT 2"}

	var wg sync.WaitGroup
	results := make([]oracle.Verdict, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = job.judge(context.Background(), judge, oracle.StageSyntax, "select 1", "select 2", jc)
		}(i)
	}
	<-judge.started
	close(judge.release)
	wg.Wait()

	judge.mu.Lock()
	calls := judge.calls
	judge.mu.Unlock()
	if calls != 1 {
		t.Fatalf("concurrent identical judgments must share one adapter call, got %d", calls)
	}
	for i, v := range results {
		if v.Kind != oracle.FormatEquivalent {
			t.Fatalf("caller %d got %+v", i, v)
		}
	}
}

func TestCompareCancellation(t *testing.T) {
	judge := newCountingJudge()
	p := New(judge, Config{MaxConcurrent: 1})
	job := newTestJob(t,
		buildSet(t, "get_users", "a", "SELECT id FROM sessions"),
		buildSet(t, "get_users", "b", "SELECT id FROM users"),
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Compare(ctx, job); err == nil {
		t.Fatalf("cancelled context must abort the job")
	}
}

func TestNewJobRejectsMalformedUnits(t *testing.T) {
	good := buildSet(t, "get_users", "a", "SELECT 1")
	bad, _ := corpus.BuildFingerprintSet(&corpus.CodeUnit{}, "SELECT 1")
	if _, err := NewJob(good, bad); err == nil {
		t.Fatalf("malformed reference unit must fail the job")
	}
	if _, err := NewJob(nil, good); err == nil {
		t.Fatalf("nil set must fail the job")
	}
}
