package jobs_test

import (
	"context"

	"go.uber.org/zap"

	"github.com/tyemirov/vanix/cmd/cli/jobs"
	"github.com/tyemirov/vanix/internal/steps/checkout"
	"github.com/tyemirov/vanix/internal/steps/install"
	"github.com/tyemirov/vanix/internal/steps/publish"
	"github.com/tyemirov/vanix/internal/steps/script"
	"github.com/tyemirov/vanix/internal/steps/toolchain"
	"github.com/tyemirov/vanix/internal/workflow"
)

const testReferenceNameConstant = "main"

type stepRecorder struct {
	executedSteps []string
	scriptFailure error
}

type stubCheckoutExecutor struct {
	recorder *stepRecorder
}

func (executor *stubCheckoutExecutor) Execute(executionContext context.Context, options checkout.Options) (checkout.Result, error) {
	executor.recorder.executedSteps = append(executor.recorder.executedSteps, string(workflow.StepNameCheckout))
	return checkout.Result{RepositoryPath: options.RepositoryPath, ReferenceName: testReferenceNameConstant}, nil
}

type stubRuntimeExecutor struct {
	recorder *stepRecorder
}

func (executor *stubRuntimeExecutor) Execute(executionContext context.Context, options toolchain.Options) (toolchain.Result, error) {
	executor.recorder.executedSteps = append(executor.recorder.executedSteps, string(workflow.StepNameRuntime))
	return toolchain.Result{}, nil
}

type stubInstallExecutor struct {
	recorder *stepRecorder
}

func (executor *stubInstallExecutor) Execute(executionContext context.Context, options install.Options) (install.Result, error) {
	executor.recorder.executedSteps = append(executor.recorder.executedSteps, string(workflow.StepNameDependencies))
	return install.Result{}, nil
}

type stubScriptExecutor struct {
	recorder *stepRecorder
}

func (executor *stubScriptExecutor) Execute(executionContext context.Context, options script.Options) (script.Result, error) {
	executor.recorder.executedSteps = append(executor.recorder.executedSteps, string(workflow.StepNameScript))
	if executor.recorder.scriptFailure != nil {
		return script.Result{}, executor.recorder.scriptFailure
	}
	return script.Result{}, nil
}

type stubPublishExecutor struct {
	recorder *stepRecorder
}

func (executor *stubPublishExecutor) Execute(executionContext context.Context, options publish.Options) (publish.Result, error) {
	executor.recorder.executedSteps = append(executor.recorder.executedSteps, string(workflow.StepNamePublish))
	return publish.Result{CommitCreated: true, PushedReference: options.ReferenceName}, nil
}

func newStubCoordinatorFactory(recorder *stepRecorder, capturedDefinitions *[]workflow.Definition) jobs.CoordinatorFactory {
	return func(definition workflow.Definition, commandLogger *zap.Logger, humanReadableLogging bool) (*workflow.RunCoordinator, error) {
		*capturedDefinitions = append(*capturedDefinitions, definition)

		runnerInstance, runnerError := workflow.NewRunner(definition, workflow.RunnerDependencies{
			CheckoutExecutor: &stubCheckoutExecutor{recorder: recorder},
			RuntimeExecutor:  &stubRuntimeExecutor{recorder: recorder},
			InstallExecutor:  &stubInstallExecutor{recorder: recorder},
			ScriptExecutor:   &stubScriptExecutor{recorder: recorder},
			PublishExecutor:  &stubPublishExecutor{recorder: recorder},
			Logger:           commandLogger,
		})
		if runnerError != nil {
			return nil, runnerError
		}

		return workflow.NewRunCoordinator(workflow.CoordinatorDependencies{
			Runner: runnerInstance,
			Logger: commandLogger,
		})
	}
}

func cancelledInterruptContext(parentContext context.Context) (context.Context, context.CancelFunc) {
	interruptContext, cancelInterrupt := context.WithCancel(parentContext)
	cancelInterrupt()
	return interruptContext, cancelInterrupt
}

var (
	_ workflow.CheckoutExecutor = (*stubCheckoutExecutor)(nil)
	_ workflow.RuntimeExecutor  = (*stubRuntimeExecutor)(nil)
	_ workflow.InstallExecutor  = (*stubInstallExecutor)(nil)
	_ workflow.ScriptExecutor   = (*stubScriptExecutor)(nil)
	_ workflow.PublishExecutor  = (*stubPublishExecutor)(nil)
)
