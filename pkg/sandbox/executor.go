package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/loopforge/engine/pkg/config"
	"github.com/loopforge/engine/pkg/models"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Executor runs one ExecutionRequest per call under container isolation
// (§4.1).
type Executor interface {
	Execute(ctx context.Context, req *models.ExecutionRequest) (*models.ExecutionResult, error)
	ExecuteWithRetry(ctx context.Context, req *models.ExecutionRequest, maxRetries int) (*models.ExecutionResult, error)
	CleanupContainer(ctx context.Context, id string) error
}

// ContainerExecutor is the production Executor, backed by testcontainers-go.
type ContainerExecutor struct {
	cfg        *config.SandboxConfig
	sem        chan struct{}
	containers *containerRegistry
}

// NewContainerExecutor builds an Executor admitting at most
// cfg.MaxConcurrentExecutions concurrent container runs (§4.1 "Admission is
// gated by a semaphore").
func NewContainerExecutor(cfg *config.SandboxConfig) *ContainerExecutor {
	return &ContainerExecutor{
		cfg:        cfg,
		sem:        make(chan struct{}, cfg.MaxConcurrentExecutions),
		containers: newContainerRegistry(),
	}
}

// Execute implements the full §4.1 Execute contract.
func (e *ContainerExecutor) Execute(ctx context.Context, req *models.ExecutionRequest) (result *models.ExecutionResult, err error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid execution request: %w", err)
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-e.sem }()

	id := newContainerID()
	log := slog.With("container_id", id, "language", req.Language, "phase", req.Phase)

	workdir, werr := materializeWorkspace(e.cfg.WorkspacePath, id, req.Files)
	if werr != nil {
		return nil, werr
	}
	defer func() {
		if rerr := removeWorkspace(workdir); rerr != nil {
			log.Warn("failed to remove workspace", "error", rerr)
		}
	}()

	script := GenerateEntrypoint(req.Language, req.Phase, req.EntryPoint)

	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	if req.TimeoutSeconds == 0 {
		timeout = time.Duration(e.cfg.DefaultTimeoutSeconds) * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	stdout, stderr, exitCode, runErr := e.runContainer(runCtx, id, req, script, workdir)
	elapsed := time.Since(started)

	result = &models.ExecutionResult{
		ExitCode:        exitCode,
		Stdout:          stdout,
		Stderr:          stderr,
		ContainerID:     id,
		ExecutionTimeMs: elapsed.Milliseconds(),
		Language:        req.Language,
		Phase:           req.Phase,
	}

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		result.ExitCode = -1
		result.Errors = []models.ExecutionError{{Type: models.ErrorTypeTimeout, Message: fmt.Sprintf("execution exceeded %v", timeout)}}
		result.Success = false
		return result, nil
	case runErr != nil:
		result.Success = false
		result.Errors = []models.ExecutionError{{Type: models.ErrorTypeInternal, Message: runErr.Error()}}
		return result, nil
	}

	result.Errors = parseDiagnostics(stdout, stderr)
	result.StackTrace = extractStackTrace(stdout + "\n" + stderr)
	result.Success = exitCode == 0 && !result.HasNonRetryableError()

	return result, nil
}

// ExecuteWithRetry implements §4.1's ExecuteWithRetry / §8's retry
// invariant.
func (e *ContainerExecutor) ExecuteWithRetry(ctx context.Context, req *models.ExecutionRequest, maxRetries int) (*models.ExecutionResult, error) {
	return executeWithRetry(ctx, req, maxRetries, e.Execute)
}

// CleanupContainer idempotently force-removes a container by id, if any
// record of it remains, and clears its workspace.
func (e *ContainerExecutor) CleanupContainer(ctx context.Context, id string) error {
	c, ok := e.containers.take(id)
	if ok {
		if err := testcontainers.TerminateContainer(c); err != nil {
			slog.Warn("failed to terminate container", "container_id", id, "error", err)
		}
	}
	return removeWorkspace(fmt.Sprintf("%s/%s", e.cfg.WorkspacePath, id))
}

// runContainer launches the container, streams output, and waits for exit.
// Always removes the container before returning (§4.1 "Always remove the
// container ... in a guaranteed-release block").
func (e *ContainerExecutor) runContainer(ctx context.Context, id string, req *models.ExecutionRequest, script, workdir string) (stdout, stderr string, exitCode int, err error) {
	image, ok := e.cfg.ImageFor(req.Language)
	if !ok {
		image = "alpine:3.20"
	}

	env := map[string]string{
		"SANDBOX":  "true",
		"LANGUAGE": string(req.Language),
	}
	for k, v := range req.Env {
		env[k] = v
	}

	memBytes := int64(e.cfg.MemoryLimitMB) * 1024 * 1024
	nanoCPUs := int64(e.cfg.CPULimit * 1e9)

	reqDef := testcontainers.ContainerRequest{
		Image:      image,
		Name:       "engine-sandbox-" + id,
		Env:        env,
		Entrypoint: []string{"/bin/sh", "/workspace/entrypoint.sh"},
		WorkingDir: "/workspace",
		WaitingFor: wait.ForExit(),
		Files: []testcontainers.ContainerFile{
			{
				Reader:            bytes.NewReader([]byte(script)),
				ContainerFilePath: "/workspace/entrypoint.sh",
				FileMode:          0o755,
			},
		},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Resources = container.Resources{
				Memory:    memBytes,
				NanoCPUs:  nanoCPUs,
				PidsLimit: &e.cfg.PIDsLimit,
			}
			hc.CapDrop = []string{"ALL"}
			hc.SecurityOpt = []string{"no-new-privileges"}
			hc.ReadonlyRootfs = true
			hc.Tmpfs = map[string]string{"/tmp": "noexec,nosuid,size=100m"}
			hc.Binds = append(hc.Binds, workdir+":/workspace:rw")
			if !req.AllowNetwork {
				hc.NetworkMode = "none"
			}
		},
	}

	c, cerr := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: reqDef,
		Started:          true,
	})
	if cerr != nil {
		return "", "", -1, fmt.Errorf("%w: %v", ErrContainerLaunch, cerr)
	}
	e.containers.put(id, c)
	defer func() {
		if terr := testcontainers.TerminateContainer(c); terr != nil {
			slog.Warn("failed to terminate container", "container_id", id, "error", terr)
		}
		e.containers.take(id)
	}()

	state, serr := c.State(ctx)
	if serr == nil && state != nil {
		exitCode = state.ExitCode
	}

	logs, lerr := c.Logs(ctx)
	if lerr == nil {
		defer logs.Close()
		data, _ := io.ReadAll(logs)
		stdout = string(data)
	}

	if ctx.Err() != nil {
		return stdout, stderr, -1, ctx.Err()
	}

	return stdout, stderr, exitCode, nil
}
