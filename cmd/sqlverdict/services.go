// File path: cmd/sqlverdict/services.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nicodishanthj/sqlverdict/internal/common/process"
)

// startOracleService launches the local inference helper named by
// SQLVERDICT_ORACLE_CMD and waits for its ready endpoint. With no command
// configured nothing is launched.
func startOracleService(ctx context.Context, logger *slog.Logger) (*process.ManagedService, error) {
	command := strings.TrimSpace(os.Getenv("SQLVERDICT_ORACLE_CMD"))
	if command == "" {
		logger.Info("launcher: no oracle helper configured")
		return nil, nil
	}
	parts := strings.Fields(command)

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	endpoint := strings.TrimSpace(os.Getenv("SQLVERDICT_LOCAL_ENDPOINT"))
	if endpoint == "" {
		endpoint = "http://127.0.0.1:11434"
		if err := os.Setenv("SQLVERDICT_LOCAL_ENDPOINT", endpoint); err != nil {
			return nil, fmt.Errorf("set SQLVERDICT_LOCAL_ENDPOINT: %w", err)
		}
	}
	readyURL := strings.TrimSpace(os.Getenv("SQLVERDICT_ORACLE_READY_URL"))
	if readyURL == "" {
		readyURL = endpoint
	}

	service, err := process.Start(ctx, process.ServiceConfig{
		Name:         "oracle",
		Command:      parts[0],
		Args:         parts[1:],
		Env:          []string{"PYTHONUNBUFFERED=1"},
		WorkDir:      workDir,
		ReadyURL:     readyURL,
		ReadyTimeout: 2 * time.Minute,
		StopTimeout:  5 * time.Second,
		Logger:       logger.With("component", "launcher", "service", "oracle"),
	})
	if err != nil {
		return nil, err
	}
	return service, nil
}

func stopManagedService(ctx context.Context, service *process.ManagedService, logger *slog.Logger) {
	if service == nil {
		return
	}
	if err := service.Stop(ctx); err != nil {
		logger.Warn("launcher: service stop failed", "error", err)
	}
}
