package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/loopforge/engine/pkg/config"
	"github.com/loopforge/engine/pkg/generate"
	"github.com/loopforge/engine/pkg/models"
	"github.com/loopforge/engine/pkg/verify"
)

// defaultBuildRetries bounds ExecuteWithRetry calls the pipeline makes
// against the sandbox for build/test/run phases.
const defaultBuildRetries = 3

// Pipeline is the AgentPipeline (§4.6): it composes the other agentic
// execution core components into the bounded, self-correcting iteration
// loop, directly grounded on
// pkg/agent/controller/iterating.go's IteratingController — a per-iteration
// bounded loop over an accumulator with RecordSuccess/RecordFailure and a
// forced conclusion at the iteration ceiling — generalized from one LLM
// call per iteration into this fixed multi-phase sequence.
type Pipeline struct {
	pipelineCfg *config.PipelineConfig
	sandboxCfg  *config.SandboxConfig

	sandbox   Sandboxed
	analyzer  Analyzed
	testgen   TestsGenerated
	verifier  Verified
	limiter   RateLimited
	generator Generated
}

// New builds a Pipeline from the shared Config and the component
// implementations to drive.
func New(cfg *config.Config, sandbox Sandboxed, analyzer Analyzed, testgen TestsGenerated, verifier Verified, limiter RateLimited, generator Generated) *Pipeline {
	return &Pipeline{
		pipelineCfg: cfg.Pipeline,
		sandboxCfg:  cfg.Sandbox,
		sandbox:     sandbox,
		analyzer:    analyzer,
		testgen:     testgen,
		verifier:    verifier,
		limiter:     limiter,
		generator:   generator,
	}
}

// Execute runs one pipeline request to completion: admission, the iteration
// loop, and cost accounting. It returns a non-nil result even on denial or
// internal error; the returned error is reserved for request validation
// failures that never reached the ledger.
func (p *Pipeline) Execute(ctx context.Context, req *models.PipelineRequest) (*models.PipelineResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline request: %w", err)
	}

	result := &models.PipelineResult{
		ProjectID: req.ProjectID,
		RequestID: uuid.NewString(),
		Status:    models.PipelineStatusRunning,
		StartedAt: time.Now(),
	}

	outcome, err := p.limiter.Check(ctx, req.ProjectID, req.UserID)
	if err != nil {
		result.Finalize(models.PipelineStatusInternalError, fmt.Sprintf("rate limiter check failed: %v", err))
		return result, nil
	}
	if !outcome.Allowed {
		result.Finalize(models.PipelineStatusRateLimited, outcome.Message)
		return result, nil
	}

	status, msg := p.runLoop(ctx, req, result)
	result.Finalize(status, msg)

	cost, rerr := p.limiter.Record(ctx, req.ProjectID, req.UserID, result)
	if rerr != nil {
		slog.Error("failed to record pipeline cost", "project_id", req.ProjectID, "request_id", result.RequestID, "error", rerr)
	} else {
		result.TotalCost = cost
	}

	return result, nil
}

// runLoop drives the bounded iteration sequence, recovering from a panic in
// the driver itself into an InternalError status (§7 "Fatal").
func (p *Pipeline) runLoop(ctx context.Context, req *models.PipelineRequest, result *models.PipelineResult) (status models.PipelineStatus, msg string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline panic recovered", "project_id", req.ProjectID, "panic", r)
			status = models.PipelineStatusInternalError
			msg = fmt.Sprintf("internal error: %v", r)
		}
	}()

	files := models.CloneFiles(req.Files)
	var accumulated []correctionError
	failureCounts := map[models.PipelinePhase]int{}

	maxIterations := p.pipelineCfg.MaxTotalIterations
	if req.MaxIterations > 0 && req.MaxIterations < maxIterations {
		maxIterations = req.MaxIterations
	}

	var lastVerification *models.VerificationResult

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if cancelled(ctx) {
			return models.PipelineStatusCancelled, "cancelled: " + ctx.Err().Error()
		}
		result.Iterations = iteration

		if iteration == 1 || len(accumulated) > 0 {
			genFiles, genErr := p.generate(ctx, req, files, accumulated, result)
			if genErr != nil {
				return models.PipelineStatusGenerationFailed, genErr.Error()
			}
			if genFiles != nil {
				files = genFiles
			}
		}

		if cancelled(ctx) {
			return models.PipelineStatusCancelled, "cancelled: " + ctx.Err().Error()
		}

		analysis, saErr := p.runStaticAnalysis(ctx, req, files, result)
		if saErr != nil {
			accumulated = append(accumulated, errorsFromExecutionErrors(analysis.SyntaxErrors)...)
			accumulated = append(accumulated, errorsFromExecutionErrors(analysis.LintErrors)...)
			failureCounts[models.PhaseStaticAnalysis]++
			if failureCounts[models.PhaseStaticAnalysis] >= p.pipelineCfg.MaxSelfCorrectionAttempts {
				return models.PipelineStatusStaticAnalysisFailed, "static analysis failed after max self-correction attempts"
			}
			continue
		}

		if cancelled(ctx) {
			return models.PipelineStatusCancelled, "cancelled: " + ctx.Err().Error()
		}

		buildResult, buildErr := p.runBuild(ctx, req, files, result)
		if buildErr != nil {
			accumulated = append(accumulated, errorsFromExecutionErrors(buildResult.Errors)...)
			failureCounts[models.PhaseBuild]++
			if failureCounts[models.PhaseBuild] >= p.pipelineCfg.MaxSelfCorrectionAttempts {
				return models.PipelineStatusBuildFailed, "build failed after max self-correction attempts"
			}
			continue
		}

		if testFile := p.runTestGeneration(req, files, result); testFile != nil {
			files = append(files, *testFile)
		}

		if cancelled(ctx) {
			return models.PipelineStatusCancelled, "cancelled: " + ctx.Err().Error()
		}

		testResults, testExecResult, testErr := p.runTestExecution(ctx, req, files, result)
		if testErr != nil {
			accumulated = append(accumulated, errorsFromExecutionErrors(testExecResult.Errors)...)
			failureCounts[models.PhaseTestExecution]++
			if failureCounts[models.PhaseTestExecution] >= p.pipelineCfg.MaxSelfCorrectionAttempts {
				return models.PipelineStatusTestsFailed, "tests failed after max self-correction attempts"
			}
			continue
		}

		var runtimeErrs []models.ExecutionError
		if req.RunAfterBuild {
			if cancelled(ctx) {
				return models.PipelineStatusCancelled, "cancelled: " + ctx.Err().Error()
			}
			runResult, runErr := p.runExecution(ctx, req, files, result)
			if runErr != nil {
				accumulated = append(accumulated, errorsFromExecutionErrors(runResult.Errors)...)
				failureCounts[models.PhaseExecution]++
				if failureCounts[models.PhaseExecution] >= p.pipelineCfg.MaxSelfCorrectionAttempts {
					return models.PipelineStatusRuntimeFailed, "runtime execution failed after max self-correction attempts"
				}
				continue
			}
			runtimeErrs = runResult.Errors
		}

		verification := p.verifier.Verify(req.ProjectID, verify.Artifacts{
			Analysis:      analysis,
			TestResults:   testResults,
			Files:         files,
			BuildOutput:   buildResult.CombinedOutput(),
			RuntimeErrors: runtimeErrs,
		})
		result.AppendPhase(models.PhaseResult{Phase: models.PhaseVerification, Success: verification.Passed})
		lastVerification = verification

		if verification.Passed {
			result.OutputFiles = files
			result.Verification = verification
			return models.PipelineStatusSuccess, ""
		}

		accumulated = append(accumulated, errorsFromIssues(verification.Issues)...)
		failureCounts[models.PhaseVerification]++
		if failureCounts[models.PhaseVerification] >= p.pipelineCfg.MaxSelfCorrectionAttempts {
			result.Verification = verification
			return models.PipelineStatusVerificationFailed, "verification failed after max self-correction attempts"
		}
	}

	if lastVerification != nil {
		result.Verification = lastVerification
	}
	return models.PipelineStatusVerificationFailed, "max iterations exhausted without passing verification"
}

func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (p *Pipeline) generate(ctx context.Context, req *models.PipelineRequest, files []models.ProjectFile, accumulated []correctionError, result *models.PipelineResult) ([]models.ProjectFile, error) {
	start := time.Now()
	genReq := &generate.Request{
		ProjectID:     req.ProjectID,
		Language:      req.Language,
		Prompt:        buildPrompt(req.Prompt, accumulated),
		ExistingFiles: files,
		Context:       req.Context,
	}

	genResult, err := p.generator.Generate(ctx, genReq)
	phase := models.PhaseResult{Phase: models.PhaseGenerate, Duration: time.Since(start)}
	if err != nil {
		phase.Success = false
		phase.Errors = []models.ExecutionError{{Type: models.ErrorTypeGeneration, Message: err.Error()}}
		result.AppendPhase(phase)
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	if !genResult.Success {
		phase.Success = false
		phase.Errors = []models.ExecutionError{{Type: models.ErrorTypeGeneration, Message: genResult.Error}}
		result.AppendPhase(phase)
		return nil, errors.New(genResult.Error)
	}

	phase.Success = true
	phase.TokensUsed = genResult.TokensUsed
	phase.OutputFiles = genResult.Files
	result.AppendPhase(phase)

	if len(genResult.Files) > 0 {
		return genResult.Files, nil
	}
	return nil, nil
}

func (p *Pipeline) runStaticAnalysis(ctx context.Context, req *models.PipelineRequest, files []models.ProjectFile, result *models.PipelineResult) (*models.StaticAnalysisResult, error) {
	start := time.Now()
	analysis, err := p.analyzer.Analyze(ctx, req.ProjectID, req.Language, files)
	phase := models.PhaseResult{Phase: models.PhaseStaticAnalysis, Duration: time.Since(start)}
	if err != nil {
		phase.Success = false
		phase.Errors = []models.ExecutionError{{Type: models.ErrorTypeInternal, Message: err.Error()}}
		result.AppendPhase(phase)
		return &models.StaticAnalysisResult{}, fmt.Errorf("static analysis failed: %w", err)
	}

	phase.Success = analysis.PassesGate
	phase.Analysis = analysis
	phase.Errors = append(append([]models.ExecutionError{}, analysis.SyntaxErrors...), analysis.LintErrors...)
	result.AppendPhase(phase)

	if !analysis.PassesGate {
		return analysis, fmt.Errorf("static analysis gate failed")
	}
	return analysis, nil
}

func (p *Pipeline) runBuild(ctx context.Context, req *models.PipelineRequest, files []models.ProjectFile, result *models.PipelineResult) (*models.ExecutionResult, error) {
	return p.runSandboxPhase(ctx, req, files, models.ExecutionPhaseBuild, models.PhaseBuild, result)
}

func (p *Pipeline) runTestGeneration(req *models.PipelineRequest, files []models.ProjectFile, result *models.PipelineResult) *models.ProjectFile {
	start := time.Now()
	testFile, err := p.testgen.Generate(req.Language, files)
	phase := models.PhaseResult{Phase: models.PhaseTestGeneration, Duration: time.Since(start)}
	if err != nil {
		phase.Success = false
		phase.Errors = []models.ExecutionError{{Type: models.ErrorTypeInternal, Message: err.Error()}}
		result.AppendPhase(phase)
		return nil
	}
	phase.Success = true
	if testFile != nil {
		phase.OutputFiles = []models.ProjectFile{*testFile}
	}
	result.AppendPhase(phase)
	return testFile
}

func (p *Pipeline) runTestExecution(ctx context.Context, req *models.PipelineRequest, files []models.ProjectFile, result *models.PipelineResult) (*models.TestResults, *models.ExecutionResult, error) {
	execResult, err := p.runSandboxPhase(ctx, req, files, models.ExecutionPhaseTest, models.PhaseTestExecution, result)
	if err != nil {
		return nil, execResult, err
	}
	return parseTestResults(execResult), execResult, nil
}

func (p *Pipeline) runExecution(ctx context.Context, req *models.PipelineRequest, files []models.ProjectFile, result *models.PipelineResult) (*models.ExecutionResult, error) {
	return p.runSandboxPhase(ctx, req, files, models.ExecutionPhaseRun, models.PhaseExecution, result)
}

func (p *Pipeline) runSandboxPhase(ctx context.Context, req *models.PipelineRequest, files []models.ProjectFile, execPhase models.ExecutionPhase, pipelinePhase models.PipelinePhase, result *models.PipelineResult) (*models.ExecutionResult, error) {
	start := time.Now()
	timeout := p.sandboxCfg.DefaultTimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	execReq := &models.ExecutionRequest{
		ProjectID:      req.ProjectID,
		Language:       req.Language,
		Files:          files,
		EntryPoint:     req.EntryPoint,
		Phase:          execPhase,
		TimeoutSeconds: timeout,
		AllowNetwork:   false,
	}

	execResult, err := p.sandbox.ExecuteWithRetry(ctx, execReq, defaultBuildRetries)
	phase := models.PhaseResult{Phase: pipelinePhase, Duration: time.Since(start)}
	if err != nil {
		phase.Success = false
		phase.Errors = []models.ExecutionError{{Type: models.ErrorTypeInternal, Message: err.Error()}}
		result.AppendPhase(phase)
		return &models.ExecutionResult{}, fmt.Errorf("%s failed: %w", pipelinePhase, err)
	}

	exitCode := execResult.ExitCode
	phase.Success = execResult.Success
	phase.ExitCode = &exitCode
	phase.Errors = execResult.Errors
	phase.Output = execResult.CombinedOutput()
	phase.TokensUsed = 0
	result.AppendPhase(phase)

	if !execResult.Success {
		return execResult, fmt.Errorf("%s failed with exit code %d", pipelinePhase, exitCode)
	}
	return execResult, nil
}

// parseTestResults extracts a TestResults summary from sandbox stdout/stderr.
// Sandboxed test runners are expected to print a single trailing JSON object
// of the shape {"total":n,"passed":n,"failed":n,"skipped":n}; if none is
// found, a single synthetic result is derived from the exit code so the
// verification gate still has something to score against.
func parseTestResults(execResult *models.ExecutionResult) *models.TestResults {
	if tr, ok := parseTestResultsJSON(execResult.CombinedOutput()); ok {
		return tr
	}
	if execResult.Success {
		return &models.TestResults{Total: 1, Passed: 1}
	}
	return &models.TestResults{Total: 1, Failed: 1}
}
