// Command engine wires the agentic execution core — sandbox, analyzer,
// test generator, verification gate, rate limiter, pipeline, and job
// queue — into a single long-running worker process. It has no HTTP or
// CLI transport of its own (§1 scope): callers drive it by constructing
// *queue.Queue in-process, or by embedding this wiring in a host binary
// that does own a transport.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/loopforge/engine/pkg/analyzer"
	"github.com/loopforge/engine/pkg/config"
	"github.com/loopforge/engine/pkg/generate"
	"github.com/loopforge/engine/pkg/pipeline"
	"github.com/loopforge/engine/pkg/queue"
	"github.com/loopforge/engine/pkg/ratelimit"
	"github.com/loopforge/engine/pkg/sandbox"
	"github.com/loopforge/engine/pkg/testgen"
	"github.com/loopforge/engine/pkg/verify"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	generatorAddr := flag.String("generator-addr", getEnv("GENERATOR_ADDR", "localhost:50051"), "Address of the code-generation gRPC sidecar")
	flag.Parse()

	cfg, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Sandbox.WorkspacePath, 0o755); err != nil {
		slog.Error("failed to create sandbox workspace root", "path", cfg.Sandbox.WorkspacePath, "error", err)
		os.Exit(1)
	}

	generatorClient, err := generate.NewGRPCClient(*generatorAddr)
	if err != nil {
		slog.Error("failed to dial code-generation sidecar", "addr", *generatorAddr, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := generatorClient.Close(); err != nil {
			slog.Warn("failed to close generator connection", "error", err)
		}
	}()

	sandboxExecutor := sandbox.NewContainerExecutor(cfg.Sandbox)
	staticAnalyzer := analyzer.New(sandboxExecutor, cfg.Sandbox.DefaultTimeoutSeconds)
	testGenerator := testgen.New()
	verificationGate := verify.New(cfg.Verification)
	rateLimiter := ratelimit.New(cfg.RateLimit)

	agentPipeline := pipeline.New(cfg, sandboxExecutor, staticAnalyzer, testGenerator, verificationGate, rateLimiter, generatorClient)

	jobQueue := queue.New(cfg.Queue, agentPipeline)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := cfg.Stats()
	slog.Info("starting engine",
		"config_dir", filepath.Clean(*configDir),
		"queue_capacity", stats.QueueCapacity,
		"queue_workers", stats.QueueWorkerCount,
		"max_concurrent_executions", stats.MaxConcurrentExecutions,
		"max_total_iterations", stats.MaxTotalIterations)

	jobQueue.Start(ctx)

	<-ctx.Done()
	slog.Info("shutdown signal received, draining job queue")
	jobQueue.Shutdown()
	slog.Info("engine stopped")
}
