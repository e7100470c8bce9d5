// File path: cmd/sqlverdict/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/nicodishanthj/sqlverdict/internal/api"
	"github.com/nicodishanthj/sqlverdict/internal/common"
	"github.com/nicodishanthj/sqlverdict/internal/corpus"
	"github.com/nicodishanthj/sqlverdict/internal/oracle"
	"github.com/nicodishanthj/sqlverdict/internal/pipeline"
	"github.com/nicodishanthj/sqlverdict/internal/sqlite"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("sqlverdict: .env file not loaded", "error", err)
	} else {
		logger.Info("sqlverdict: environment loaded from .env")
	}

	addr := flag.String("addr", ":8081", "listen address")
	catalogPath := flag.String("catalog", defaultCatalogPath(), "path to the SQLite report catalog (empty to disable persistence)")
	datasetPath := flag.String("dataset", "", "run one batch comparison over a dataset file instead of serving")
	outPath := flag.String("out", "", "write batch reports to this file (default stdout)")
	maxConcurrent := flag.Int("max-concurrent", 0, "maximum concurrent oracle judgments per job (0 uses defaults)")

	autoStartDefault := false
	if env := strings.TrimSpace(os.Getenv("SQLVERDICT_AUTOSTART")); env != "" {
		if parsed, err := strconv.ParseBool(env); err == nil {
			autoStartDefault = parsed
		}
	}
	autoStartOracle := flag.Bool("auto-start-oracle", autoStartDefault, "launch the bundled local inference helper before serving")

	flag.Parse()

	logger.Info("sqlverdict: startup initiated", "addr", *addr, "catalog", *catalogPath)

	if *autoStartOracle {
		service, serviceErr := startOracleService(ctx, logger)
		if serviceErr != nil {
			logger.Error("sqlverdict: failed to launch oracle helper", "error", serviceErr)
			fmt.Println("oracle helper startup error:", serviceErr)
			os.Exit(1)
		}
		if service != nil {
			defer stopManagedService(context.Background(), service, logger)
		}
	}

	provider, err := oracle.NewProvider()
	if err != nil {
		logger.Error("sqlverdict: oracle provider unavailable", "error", err)
		fmt.Println("oracle provider error:", err)
		os.Exit(1)
	}
	logger.Info("sqlverdict: oracle provider ready", "provider", provider.Name())
	judge := oracle.NewLLMJudge(provider)

	cfg, err := pipeline.LoadConfig()
	if err != nil {
		logger.Error("sqlverdict: pipeline config load failed", "error", err)
		fmt.Println("pipeline config error:", err)
		os.Exit(1)
	}
	cfg = cfg.Merge(pipeline.Config{MaxConcurrent: *maxConcurrent})
	runner := pipeline.New(judge, cfg)

	var catalog *sqlite.Store
	if trimmed := strings.TrimSpace(*catalogPath); trimmed != "" {
		catalog, err = sqlite.Open(trimmed)
		if err != nil {
			logger.Error("sqlverdict: catalog open failed", "path", trimmed, "error", err)
			fmt.Println("catalog error:", err)
			os.Exit(1)
		}
		defer catalog.Close()
		logger.Info("sqlverdict: report catalog ready", "path", trimmed)
	} else {
		logger.Warn("sqlverdict: report catalog disabled")
	}

	if trimmed := strings.TrimSpace(*datasetPath); trimmed != "" {
		if err := runBatch(ctx, runner, catalog, trimmed, *outPath); err != nil {
			logger.Error("sqlverdict: batch run failed", "error", err)
			fmt.Println("batch error:", err)
			os.Exit(1)
		}
		return
	}

	server, err := api.NewServer(runner, catalog)
	if err != nil {
		logger.Error("sqlverdict: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("sqlverdict: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("sqlverdict: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("sqlverdict: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

// runBatch compares every caller of every function group in the dataset
// against the group's reference caller and emits the reports as one JSON
// array.
func runBatch(ctx context.Context, runner *pipeline.Pipeline, catalog *sqlite.Store,
	datasetPath, outPath string) error {

	logger := common.Logger()
	records, err := corpus.LoadRecords(datasetPath)
	if err != nil {
		return err
	}
	groups := corpus.GroupRecords(records)
	logger.Info("sqlverdict: dataset loaded", "records", len(records), "groups", len(groups))

	var reports []*pipeline.Report
	for _, group := range groups {
		reference, targets := group.SelectReference()
		if reference == nil || len(targets) == 0 {
			continue
		}
		for _, target := range targets {
			job, err := pipeline.NewJob(target, reference)
			if err != nil {
				logger.Warn("sqlverdict: skipping malformed pair",
					"target", target.Owner().FunctionName,
					"reference", reference.Owner().FunctionName,
					"error", err)
				continue
			}
			report, err := runner.Compare(ctx, job)
			if err != nil {
				return fmt.Errorf("compare %s vs %s: %w",
					target.Owner().FunctionName, reference.Owner().FunctionName, err)
			}
			if catalog != nil {
				if err := catalog.SaveReport(ctx, report); err != nil {
					logger.Error("sqlverdict: persist report failed", "job_id", report.JobID, "error", err)
				}
			}
			reports = append(reports, report)
			logger.Info("sqlverdict: comparison complete",
				"job_id", report.JobID,
				"target", report.TargetFunction,
				"common", report.CommonCount(),
				"redundant", len(report.Redundant),
				"missing", len(report.Missing),
				"newly_valid", len(report.NewlyValid),
				"oracle_calls", report.Stats.OracleCalls)
		}
	}

	payload, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}
	if trimmed := strings.TrimSpace(outPath); trimmed != "" {
		if err := os.WriteFile(trimmed, payload, 0o644); err != nil {
			return fmt.Errorf("write reports: %w", err)
		}
		logger.Info("sqlverdict: reports written", "path", trimmed, "count", len(reports))
		return nil
	}
	fmt.Println(string(payload))
	return nil
}

func defaultCatalogPath() string {
	return filepath.Join("data", "reports.db")
}
