// File path: internal/pipeline/job.go
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/nicodishanthj/sqlverdict/internal/common/telemetry"
	"github.com/nicodishanthj/sqlverdict/internal/corpus"
	"github.com/nicodishanthj/sqlverdict/internal/fingerprint"
	"github.com/nicodishanthj/sqlverdict/internal/oracle"
)

// Job pairs one target fingerprint set with one reference set for a single
// comparison. The verdict cache is scoped to the job; identical judgments
// across fingerprints in the same job hit the adapter at most once.
type Job struct {
	ID        string
	Target    *corpus.FingerprintSet
	Reference *corpus.FingerprintSet

	cache sync.Map
	group singleflight.Group

	oracleCalls int64
	cacheHits   int64
	shares      int64
}

// NewJob validates both code units and constructs the job. A malformed unit
// fails the whole job.
func NewJob(target, reference *corpus.FingerprintSet) (*Job, error) {
	if target == nil || reference == nil {
		return nil, &corpus.MalformedUnitError{Missing: []string{"fingerprint set"}}
	}
	if err := target.Owner().Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: target unit: %w", err)
	}
	if err := reference.Owner().Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: reference unit: %w", err)
	}
	return &Job{
		ID:        uuid.NewString(),
		Target:    target,
		Reference: reference,
	}, nil
}

func (j *Job) memoKey(stage oracle.StageKind, a, b fingerprint.Fingerprint) string {
	second := "-"
	if b != "" {
		second = string(b)
	}
	return fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%s",
		stage, a, second,
		j.Target.Owner().FunctionName, j.Reference.Owner().FunctionName)
}

// judge resolves one memoized oracle judgment. The first caller for a cache
// key performs the call; concurrent callers for the same key wait on that
// result. In-flight calls run detached from the job context so a shared
// result can still complete when one caller aborts.
func (j *Job) judge(ctx context.Context, judge oracle.Judge, stage oracle.StageKind,
	a, b fingerprint.Fingerprint, jc oracle.JudgmentContext) oracle.Verdict {

	key := j.memoKey(stage, a, b)
	if cached, ok := j.cache.Load(key); ok {
		atomic.AddInt64(&j.cacheHits, 1)
		telemetry.RecordCacheHit()
		return cached.(oracle.Verdict)
	}
	result, _, shared := j.group.Do(key, func() (interface{}, error) {
		atomic.AddInt64(&j.oracleCalls, 1)
		verdict, err := judge.Judge(context.WithoutCancel(ctx), stage, jc)
		if err != nil {
			verdict = oracle.InconclusiveVerdict(err.Error())
		}
		j.cache.Store(key, verdict)
		return verdict, nil
	})
	if shared {
		atomic.AddInt64(&j.shares, 1)
		telemetry.RecordSingleflightShare()
	}
	return result.(oracle.Verdict)
}

func (j *Job) stats() Stats {
	return Stats{
		OracleCalls:        atomic.LoadInt64(&j.oracleCalls),
		CacheHits:          atomic.LoadInt64(&j.cacheHits),
		SingleflightShares: atomic.LoadInt64(&j.shares),
	}
}
