package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tyemirov/vanix/internal/steps/checkout"
	"github.com/tyemirov/vanix/internal/steps/install"
	"github.com/tyemirov/vanix/internal/steps/publish"
	"github.com/tyemirov/vanix/internal/steps/script"
	"github.com/tyemirov/vanix/internal/steps/shared"
	"github.com/tyemirov/vanix/internal/steps/toolchain"
)

const (
	checkoutExecutorMissingMessageConstant = "checkout executor not configured"
	runtimeExecutorMissingMessageConstant  = "runtime executor not configured"
	installExecutorMissingMessageConstant  = "install executor not configured"
	scriptExecutorMissingMessageConstant   = "script executor not configured"
	publishExecutorMissingMessageConstant  = "publish executor not configured"
	stepFailureTemplateConstant            = "%s step failed: %s"
	runStartedEventConstant                = "job_run_started"
	runCompletedEventConstant              = "job_run_complete"
	stepCompletedEventConstant             = "job_step_complete"
	stepFailedEventConstant                = "job_step_failed"
	jobFieldNameConstant                   = "job"
	runIdentifierFieldNameConstant         = "run_id"
	triggerFieldNameConstant               = "trigger"
	stepFieldNameConstant                  = "step"
	durationFieldNameConstant              = "duration"
	stateFieldNameConstant                 = "state"
	errorFieldNameConstant                 = "error"
	detailSkippedConstant                  = "skipped"
	detailRuntimeTemplateConstant          = "%s %s"
	detailCommittedPushTemplateConstant    = "committed and pushed %s to %s"
	detailPushOnlyTemplateConstant         = "pushed %s to %s"
)

// Trigger identifies what started a job run.
type Trigger string

// Supported run triggers.
const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// StepName identifies one of the five pipeline steps.
type StepName string

// Pipeline steps in their fixed execution order.
const (
	StepNameCheckout     StepName = "checkout"
	StepNameRuntime      StepName = "runtime"
	StepNameDependencies StepName = "dependencies"
	StepNameScript       StepName = "script"
	StepNamePublish      StepName = "publish"
)

// StepStatus reports how a pipeline step ended.
type StepStatus string

// Supported step statuses.
const (
	StepStatusSucceeded StepStatus = "succeeded"
	StepStatusFailed    StepStatus = "failed"
)

// RunState reports how a complete run ended.
type RunState string

// Supported run states.
const (
	RunStateSucceeded RunState = "succeeded"
	RunStateFailed    RunState = "failed"
)

// ErrCheckoutExecutorNotConfigured indicates the checkout executor dependency was missing.
var ErrCheckoutExecutorNotConfigured = errors.New(checkoutExecutorMissingMessageConstant)

// ErrRuntimeExecutorNotConfigured indicates the runtime executor dependency was missing.
var ErrRuntimeExecutorNotConfigured = errors.New(runtimeExecutorMissingMessageConstant)

// ErrInstallExecutorNotConfigured indicates the install executor dependency was missing.
var ErrInstallExecutorNotConfigured = errors.New(installExecutorMissingMessageConstant)

// ErrScriptExecutorNotConfigured indicates the script executor dependency was missing.
var ErrScriptExecutorNotConfigured = errors.New(scriptExecutorMissingMessageConstant)

// ErrPublishExecutorNotConfigured indicates the publish executor dependency was missing.
var ErrPublishExecutorNotConfigured = errors.New(publishExecutorMissingMessageConstant)

// StepFailureError reports which pipeline step halted the run.
type StepFailureError struct {
	Step  StepName
	Cause error
}

// Error describes the failed step.
func (failure StepFailureError) Error() string {
	return fmt.Sprintf(stepFailureTemplateConstant, failure.Step, failure.Cause)
}

// Unwrap exposes the underlying step error.
func (failure StepFailureError) Unwrap() error {
	return failure.Cause
}

// CheckoutExecutor runs the source checkout step.
type CheckoutExecutor interface {
	Execute(executionContext context.Context, options checkout.Options) (checkout.Result, error)
}

// RuntimeExecutor runs the runtime verification step.
type RuntimeExecutor interface {
	Execute(executionContext context.Context, options toolchain.Options) (toolchain.Result, error)
}

// InstallExecutor runs the dependency installation step.
type InstallExecutor interface {
	Execute(executionContext context.Context, options install.Options) (install.Result, error)
}

// ScriptExecutor runs the job script step.
type ScriptExecutor interface {
	Execute(executionContext context.Context, options script.Options) (script.Result, error)
}

// PublishExecutor runs the commit and push step.
type PublishExecutor interface {
	Execute(executionContext context.Context, options publish.Options) (publish.Result, error)
}

// RunnerDependencies enumerates the collaborators a Runner needs.
type RunnerDependencies struct {
	CheckoutExecutor CheckoutExecutor
	RuntimeExecutor  RuntimeExecutor
	InstallExecutor  InstallExecutor
	ScriptExecutor   ScriptExecutor
	PublishExecutor  PublishExecutor
	Logger           *zap.Logger
	Clock            shared.Clock
}

// RunRequest identifies a single run of the job.
type RunRequest struct {
	RunIdentifier string
	Trigger       Trigger
}

// StepRecord captures the outcome of one pipeline step.
type StepRecord struct {
	Name     StepName
	Status   StepStatus
	Duration time.Duration
	Detail   string
}

// RunSummary captures the outcome of a complete run.
type RunSummary struct {
	RunIdentifier  string
	JobName        string
	Trigger        Trigger
	StartedAt      time.Time
	CompletedAt    time.Time
	Steps          []StepRecord
	State          RunState
	FailureMessage string
}

// Runner executes a job definition through its five step pipeline.
//
// The order never varies: checkout, runtime, dependencies, script, publish.
// The first failing step halts the run and later steps never execute.
type Runner struct {
	definition       Definition
	checkoutExecutor CheckoutExecutor
	runtimeExecutor  RuntimeExecutor
	installExecutor  InstallExecutor
	scriptExecutor   ScriptExecutor
	publishExecutor  PublishExecutor
	logger           *zap.Logger
	clock            shared.Clock
}

// NewRunner constructs a Runner from the provided definition and dependencies.
func NewRunner(definition Definition, dependencies RunnerDependencies) (*Runner, error) {
	if validationError := validateDefinition(definition); validationError != nil {
		return nil, validationError
	}
	if dependencies.CheckoutExecutor == nil {
		return nil, ErrCheckoutExecutorNotConfigured
	}
	if dependencies.RuntimeExecutor == nil {
		return nil, ErrRuntimeExecutorNotConfigured
	}
	if dependencies.InstallExecutor == nil {
		return nil, ErrInstallExecutorNotConfigured
	}
	if dependencies.ScriptExecutor == nil {
		return nil, ErrScriptExecutorNotConfigured
	}
	if dependencies.PublishExecutor == nil {
		return nil, ErrPublishExecutorNotConfigured
	}

	runnerLogger := dependencies.Logger
	if runnerLogger == nil {
		runnerLogger = zap.NewNop()
	}
	runnerClock := dependencies.Clock
	if runnerClock == nil {
		runnerClock = shared.SystemClock{}
	}

	return &Runner{
		definition:       definition,
		checkoutExecutor: dependencies.CheckoutExecutor,
		runtimeExecutor:  dependencies.RuntimeExecutor,
		installExecutor:  dependencies.InstallExecutor,
		scriptExecutor:   dependencies.ScriptExecutor,
		publishExecutor:  dependencies.PublishExecutor,
		logger:           runnerLogger,
		clock:            runnerClock,
	}, nil
}

// Definition returns the job definition the runner executes.
func (runner *Runner) Definition() Definition {
	return runner.definition
}

// Run executes the pipeline once and reports the outcome.
func (runner *Runner) Run(executionContext context.Context, request RunRequest) (RunSummary, error) {
	runTrigger := request.Trigger
	if len(runTrigger) == 0 {
		runTrigger = TriggerManual
	}

	summary := RunSummary{
		RunIdentifier: request.RunIdentifier,
		JobName:       runner.definition.Name,
		Trigger:       runTrigger,
		StartedAt:     runner.clock.Now(),
		Steps:         make([]StepRecord, 0, 5),
	}

	runner.logger.Info(
		runStartedEventConstant,
		zap.String(jobFieldNameConstant, summary.JobName),
		zap.String(runIdentifierFieldNameConstant, summary.RunIdentifier),
		zap.String(triggerFieldNameConstant, string(runTrigger)),
	)

	checkoutResult, checkoutError := runner.runCheckoutStep(executionContext, &summary)
	if checkoutError != nil {
		return runner.completeRun(summary, StepNameCheckout, checkoutError)
	}

	if runtimeError := runner.runRuntimeStep(executionContext, &summary); runtimeError != nil {
		return runner.completeRun(summary, StepNameRuntime, runtimeError)
	}

	if installError := runner.runInstallStep(executionContext, &summary); installError != nil {
		return runner.completeRun(summary, StepNameDependencies, installError)
	}

	if scriptError := runner.runScriptStep(executionContext, &summary); scriptError != nil {
		return runner.completeRun(summary, StepNameScript, scriptError)
	}

	if publishError := runner.runPublishStep(executionContext, &summary, checkoutResult.ReferenceName); publishError != nil {
		return runner.completeRun(summary, StepNamePublish, publishError)
	}

	return runner.completeRun(summary, "", nil)
}

func (runner *Runner) runCheckoutStep(executionContext context.Context, summary *RunSummary) (checkout.Result, error) {
	stepStart := runner.clock.Now()
	checkoutResult, checkoutError := runner.checkoutExecutor.Execute(executionContext, checkout.Options{
		RepositoryPath: runner.definition.Workspace,
		ReferenceName:  runner.definition.Repository.Reference,
	})
	runner.recordStep(summary, StepNameCheckout, stepStart, checkoutError, checkoutResult.ReferenceName)
	return checkoutResult, checkoutError
}

func (runner *Runner) runRuntimeStep(executionContext context.Context, summary *RunSummary) error {
	stepStart := runner.clock.Now()
	runtimeResult, runtimeError := runner.runtimeExecutor.Execute(executionContext, toolchain.Options{
		RepositoryPath:   runner.definition.Workspace,
		ToolName:         runner.definition.Runtime.Tool,
		PinnedVersion:    runner.definition.Runtime.Version,
		InstallCommand:   runner.definition.Runtime.InstallCommand,
		InstallArguments: runner.definition.Runtime.InstallArguments,
	})
	runtimeDetail := ""
	if runtimeError == nil {
		runtimeDetail = fmt.Sprintf(detailRuntimeTemplateConstant, runtimeResult.ToolName, runtimeResult.DetectedVersion)
	}
	runner.recordStep(summary, StepNameRuntime, stepStart, runtimeError, runtimeDetail)
	return runtimeError
}

func (runner *Runner) runInstallStep(executionContext context.Context, summary *RunSummary) error {
	stepStart := runner.clock.Now()
	installResult, installError := runner.installExecutor.Execute(executionContext, install.Options{
		RepositoryPath: runner.definition.Workspace,
		Command:        runner.definition.Dependencies.Command,
		Arguments:      runner.definition.Dependencies.Arguments,
	})
	installDetail := ""
	if installError == nil && installResult.Skipped {
		installDetail = detailSkippedConstant
	}
	runner.recordStep(summary, StepNameDependencies, stepStart, installError, installDetail)
	return installError
}

func (runner *Runner) runScriptStep(executionContext context.Context, summary *RunSummary) error {
	stepStart := runner.clock.Now()
	scriptResult, scriptError := runner.scriptExecutor.Execute(executionContext, script.Options{
		RepositoryPath:       runner.definition.Workspace,
		Command:              runner.definition.Script.Command,
		Arguments:            runner.definition.Script.Arguments,
		EnvironmentVariables: runner.definition.Script.Environment,
	})
	runner.recordStep(summary, StepNameScript, stepStart, scriptError, scriptResult.CommandLine)
	return scriptError
}

func (runner *Runner) runPublishStep(executionContext context.Context, summary *RunSummary, resolvedReference string) error {
	stepStart := runner.clock.Now()
	publishResult, publishError := runner.publishExecutor.Execute(executionContext, publish.Options{
		RepositoryPath:            runner.definition.Workspace,
		RemoteName:                runner.definition.Publish.Remote,
		ReferenceName:             resolvedReference,
		AuthorName:                runner.definition.Publish.AuthorName,
		AuthorEmail:               runner.definition.Publish.AuthorEmail,
		CommitMessage:             runner.definition.Publish.Message,
		CredentialEnvironmentName: runner.definition.Publish.CredentialEnvironment,
	})
	publishDetail := ""
	if publishError == nil {
		detailTemplate := detailPushOnlyTemplateConstant
		if publishResult.CommitCreated {
			detailTemplate = detailCommittedPushTemplateConstant
		}
		publishDetail = fmt.Sprintf(detailTemplate, publishResult.PushedReference, publishResult.PushedRemote)
	}
	runner.recordStep(summary, StepNamePublish, stepStart, publishError, publishDetail)
	return publishError
}

func (runner *Runner) recordStep(summary *RunSummary, stepName StepName, stepStart time.Time, stepError error, stepDetail string) {
	stepDuration := runner.clock.Now().Sub(stepStart)
	stepStatus := StepStatusSucceeded
	if stepError != nil {
		stepStatus = StepStatusFailed
		stepDetail = ""
		runner.logger.Error(
			stepFailedEventConstant,
			zap.String(stepFieldNameConstant, string(stepName)),
			zap.Duration(durationFieldNameConstant, stepDuration),
			zap.String(errorFieldNameConstant, stepError.Error()),
		)
	} else {
		runner.logger.Info(
			stepCompletedEventConstant,
			zap.String(stepFieldNameConstant, string(stepName)),
			zap.Duration(durationFieldNameConstant, stepDuration),
		)
	}

	summary.Steps = append(summary.Steps, StepRecord{
		Name:     stepName,
		Status:   stepStatus,
		Duration: stepDuration,
		Detail:   stepDetail,
	})
}

func (runner *Runner) completeRun(summary RunSummary, failedStep StepName, stepError error) (RunSummary, error) {
	summary.CompletedAt = runner.clock.Now()

	var runError error
	if stepError != nil {
		summary.State = RunStateFailed
		failure := StepFailureError{Step: failedStep, Cause: stepError}
		summary.FailureMessage = failure.Error()
		runError = failure
	} else {
		summary.State = RunStateSucceeded
	}

	runner.logger.Info(
		runCompletedEventConstant,
		zap.String(jobFieldNameConstant, summary.JobName),
		zap.String(runIdentifierFieldNameConstant, summary.RunIdentifier),
		zap.String(stateFieldNameConstant, string(summary.State)),
		zap.Duration(durationFieldNameConstant, summary.CompletedAt.Sub(summary.StartedAt)),
	)

	return summary, runError
}
