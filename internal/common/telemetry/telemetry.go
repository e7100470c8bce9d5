// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"expvar"
	"sync"
	"time"
)

var (
	initOnce sync.Once

	oracleCallTotal     *expvar.Map
	oracleCallLatencyMS *expvar.Map
	oracleInconclusive  *expvar.Int

	cacheHitTotal      *expvar.Int
	singleflightShares *expvar.Int

	extractionFallbacks *expvar.Int
	extractedStatements *expvar.Int

	jobsCompleted *expvar.Int
	jobLatencyMS  *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		oracleCallTotal = expvar.NewMap("sqlverdict_oracle_calls_total")
		oracleCallLatencyMS = expvar.NewMap("sqlverdict_oracle_call_latency_ms")
		oracleInconclusive = expvar.NewInt("sqlverdict_oracle_inconclusive_total")

		cacheHitTotal = expvar.NewInt("sqlverdict_verdict_cache_hits_total")
		singleflightShares = expvar.NewInt("sqlverdict_singleflight_shares_total")

		extractionFallbacks = expvar.NewInt("sqlverdict_extraction_fallbacks_total")
		extractedStatements = expvar.NewInt("sqlverdict_extracted_statements_total")

		jobsCompleted = expvar.NewInt("sqlverdict_jobs_completed_total")
		jobLatencyMS = expvar.NewInt("sqlverdict_job_latency_ms")
	})
}

// RecordOracleCall tracks one adapter invocation for the given stage.
func RecordOracleCall(stage string, duration time.Duration, inconclusive bool) {
	ensureInit()
	oracleCallTotal.Add(stage, 1)
	oracleCallLatencyMS.Add(stage, duration.Milliseconds())
	if inconclusive {
		oracleInconclusive.Add(1)
	}
}

// RecordCacheHit tracks a memoized verdict served without an adapter call.
func RecordCacheHit() {
	ensureInit()
	cacheHitTotal.Add(1)
}

// RecordSingleflightShare tracks a caller that waited on an in-flight call
// for the same cache key instead of issuing its own.
func RecordSingleflightShare() {
	ensureInit()
	singleflightShares.Add(1)
}

// RecordExtraction tracks recovered statements and degraded fallbacks.
func RecordExtraction(statements int, degraded bool) {
	ensureInit()
	extractedStatements.Add(int64(statements))
	if degraded {
		extractionFallbacks.Add(1)
	}
}

// RecordJob tracks a completed comparison job.
func RecordJob(duration time.Duration) {
	ensureInit()
	jobsCompleted.Add(1)
	jobLatencyMS.Add(duration.Milliseconds())
}
