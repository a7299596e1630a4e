package models

// Language identifies the programming language a pipeline targets.
type Language string

// Supported languages (§6). Any other value fails IsValid and is rejected by
// PipelineRequest.Validate; at the sandbox layer, a language with no
// configured image runs on a minimal base image.
const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageNode       Language = "node"
	LanguageCSharp     Language = "csharp"
	LanguageDotnet     Language = "dotnet"
	LanguageJava       Language = "java"
	LanguageGo         Language = "go"
	LanguageGolang     Language = "golang"
	LanguageRust       Language = "rust"
	LanguageRuby       Language = "ruby"
	LanguagePHP        Language = "php"
)

// IsValid reports whether l is one of the supported languages.
func (l Language) IsValid() bool {
	switch l {
	case LanguagePython, LanguageJavaScript, LanguageTypeScript, LanguageNode,
		LanguageCSharp, LanguageDotnet, LanguageJava, LanguageGo, LanguageGolang,
		LanguageRust, LanguageRuby, LanguagePHP:
		return true
	default:
		return false
	}
}

// PipelineStatus is the terminal (or transient) status of a pipeline run.
type PipelineStatus string

// Pipeline statuses (§4.6).
const (
	PipelineStatusPending               PipelineStatus = "pending"
	PipelineStatusRunning               PipelineStatus = "running"
	PipelineStatusSuccess               PipelineStatus = "success"
	PipelineStatusGenerationFailed      PipelineStatus = "generation_failed"
	PipelineStatusStaticAnalysisFailed  PipelineStatus = "static_analysis_failed"
	PipelineStatusBuildFailed           PipelineStatus = "build_failed"
	PipelineStatusTestsFailed           PipelineStatus = "tests_failed"
	PipelineStatusRuntimeFailed         PipelineStatus = "runtime_failed"
	PipelineStatusVerificationFailed    PipelineStatus = "verification_failed"
	PipelineStatusRateLimited           PipelineStatus = "rate_limited"
	PipelineStatusCancelled             PipelineStatus = "cancelled"
	PipelineStatusInternalError         PipelineStatus = "internal_error"
)

// IsTerminal reports whether the status ends the pipeline's lifecycle.
func (s PipelineStatus) IsTerminal() bool {
	switch s {
	case PipelineStatusPending, PipelineStatusRunning:
		return false
	default:
		return true
	}
}

// PipelinePhase tags one step of the per-iteration phase sequence (§8).
type PipelinePhase string

// Pipeline phases, in the fixed per-iteration order.
const (
	PhaseGenerate         PipelinePhase = "generate"
	PhaseStaticAnalysis   PipelinePhase = "static_analysis"
	PhaseBuild            PipelinePhase = "build"
	PhaseTestGeneration   PipelinePhase = "test_generation"
	PhaseTestExecution    PipelinePhase = "test_execution"
	PhaseExecution        PipelinePhase = "execution"
	PhaseVerification     PipelinePhase = "verification"
)

// ExecutionPhase selects the entrypoint script commands a sandbox
// invocation runs (§3, §6).
type ExecutionPhase string

// Execution phases recognized by the SandboxExecutor.
const (
	ExecutionPhaseStaticAnalysis      ExecutionPhase = "static_analysis"
	ExecutionPhaseDependencyResolve   ExecutionPhase = "dependency_resolution"
	ExecutionPhaseBuild               ExecutionPhase = "build"
	ExecutionPhaseRun                 ExecutionPhase = "run"
	ExecutionPhaseTest                ExecutionPhase = "test"
)

// IsValid reports whether p is a recognized execution phase.
func (p ExecutionPhase) IsValid() bool {
	switch p {
	case ExecutionPhaseStaticAnalysis, ExecutionPhaseDependencyResolve,
		ExecutionPhaseBuild, ExecutionPhaseRun, ExecutionPhaseTest:
		return true
	default:
		return false
	}
}

// ErrorType is the taxonomy of structured execution/diagnostic errors (§7).
type ErrorType string

// Error type taxonomy.
const (
	ErrorTypeTimeout              ErrorType = "Timeout"
	ErrorTypeInternal             ErrorType = "Internal"
	ErrorTypeLint                 ErrorType = "Lint"
	ErrorTypeSyntax               ErrorType = "SyntaxError"
	ErrorTypeCompile              ErrorType = "CompileError"
	ErrorTypeImport               ErrorType = "ImportError"
	ErrorTypeModuleNotFound       ErrorType = "ModuleNotFoundError"
	ErrorTypeRuntime              ErrorType = "Runtime"
	ErrorTypeGeneration           ErrorType = "GenerationError"
	ErrorTypeException            ErrorType = "Exception"
)

// nonRetryableErrorTypes are terminal — ExecuteWithRetry must not retry them.
var nonRetryableErrorTypes = map[ErrorType]bool{
	ErrorTypeSyntax:         true,
	ErrorTypeImport:         true,
	ErrorTypeModuleNotFound: true,
	ErrorTypeCompile:        true,
}

// IsRetryable reports whether a failure of this error type may be retried.
// Matching is also attempted against the raw message by callers, since the
// source data sometimes carries the class name only in the message text.
func (t ErrorType) IsRetryable() bool {
	return !nonRetryableErrorTypes[t]
}

// IssueSeverity is the severity of a verification issue (§4.4, §7).
type IssueSeverity string

// Issue severities, in ascending order of severity.
const (
	SeverityInfo     IssueSeverity = "info"
	SeverityWarning  IssueSeverity = "warning"
	SeverityError    IssueSeverity = "error"
	SeverityCritical IssueSeverity = "critical"
)

// VerificationCategory names one of the five deterministic checks (§4.4).
type VerificationCategory string

// Verification categories and their spec weights.
const (
	CategoryQuality VerificationCategory = "quality"
	CategoryTests   VerificationCategory = "tests"
	CategorySecurity VerificationCategory = "security"
	CategoryBuild   VerificationCategory = "build"
	CategoryRuntime VerificationCategory = "runtime"
)

// CategoryWeight returns the spec-mandated weight for a verification
// category (§4.4: Quality 0.30, Tests 0.30, Security 0.20, Build 0.15,
// Runtime 0.05).
func CategoryWeight(c VerificationCategory) float64 {
	switch c {
	case CategoryQuality:
		return 0.30
	case CategoryTests:
		return 0.30
	case CategorySecurity:
		return 0.20
	case CategoryBuild:
		return 0.15
	case CategoryRuntime:
		return 0.05
	default:
		return 0
	}
}

// JobStatus is the lifecycle status of a queued PipelineJob (§3, §4.7).
type JobStatus string

// Job statuses. Monotonically advance Queued → Running → terminal.
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether the job status ends the job's lifecycle.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}
