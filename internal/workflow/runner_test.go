package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/vanix/internal/steps/checkout"
	"github.com/tyemirov/vanix/internal/steps/install"
	"github.com/tyemirov/vanix/internal/steps/publish"
	"github.com/tyemirov/vanix/internal/steps/script"
	"github.com/tyemirov/vanix/internal/steps/toolchain"
	"github.com/tyemirov/vanix/internal/workflow"
)

const (
	definitionJobNameConstant       = "uid-action"
	definitionWorkspaceConstant     = "/srv/jobs/uid-action"
	definitionReferenceConstant     = "main"
	resolvedReferenceConstant       = "nightly"
	runIdentifierConstant           = "run-0001"
	stepFailureMessageConstant      = "step blew up"
	subtestNameTemplateConstant     = "%d_%s"
	scriptCommandLineConstant       = "python3 src/main.py --gh::uid-action"
	detectedRuntimeVersionConstant  = "3.10.14"
	definitionCredentialEnvConstant = "VANIX_PUSH_TOKEN"
)

type stepInvocationRecorder struct {
	invokedSteps []workflow.StepName
}

func (recorder *stepInvocationRecorder) record(stepName workflow.StepName) {
	recorder.invokedSteps = append(recorder.invokedSteps, stepName)
}

type stubCheckoutExecutor struct {
	recorder        *stepInvocationRecorder
	result          checkout.Result
	executionError  error
	recordedOptions []checkout.Options
}

func (stub *stubCheckoutExecutor) Execute(_ context.Context, options checkout.Options) (checkout.Result, error) {
	stub.recorder.record(workflow.StepNameCheckout)
	stub.recordedOptions = append(stub.recordedOptions, options)
	return stub.result, stub.executionError
}

type stubRuntimeExecutor struct {
	recorder        *stepInvocationRecorder
	result          toolchain.Result
	executionError  error
	recordedOptions []toolchain.Options
}

func (stub *stubRuntimeExecutor) Execute(_ context.Context, options toolchain.Options) (toolchain.Result, error) {
	stub.recorder.record(workflow.StepNameRuntime)
	stub.recordedOptions = append(stub.recordedOptions, options)
	return stub.result, stub.executionError
}

type stubInstallExecutor struct {
	recorder        *stepInvocationRecorder
	result          install.Result
	executionError  error
	recordedOptions []install.Options
}

func (stub *stubInstallExecutor) Execute(_ context.Context, options install.Options) (install.Result, error) {
	stub.recorder.record(workflow.StepNameDependencies)
	stub.recordedOptions = append(stub.recordedOptions, options)
	return stub.result, stub.executionError
}

type stubScriptExecutor struct {
	recorder        *stepInvocationRecorder
	result          script.Result
	executionError  error
	recordedOptions []script.Options
}

func (stub *stubScriptExecutor) Execute(_ context.Context, options script.Options) (script.Result, error) {
	stub.recorder.record(workflow.StepNameScript)
	stub.recordedOptions = append(stub.recordedOptions, options)
	return stub.result, stub.executionError
}

type stubPublishExecutor struct {
	recorder        *stepInvocationRecorder
	result          publish.Result
	executionError  error
	recordedOptions []publish.Options
}

func (stub *stubPublishExecutor) Execute(_ context.Context, options publish.Options) (publish.Result, error) {
	stub.recorder.record(workflow.StepNamePublish)
	stub.recordedOptions = append(stub.recordedOptions, options)
	return stub.result, stub.executionError
}

type pipelineFixture struct {
	recorder     *stepInvocationRecorder
	checkoutStub *stubCheckoutExecutor
	runtimeStub  *stubRuntimeExecutor
	installStub  *stubInstallExecutor
	scriptStub   *stubScriptExecutor
	publishStub  *stubPublishExecutor
	runner       *workflow.Runner
}

func buildRunnerDefinition() workflow.Definition {
	return workflow.Definition{
		Name:      definitionJobNameConstant,
		Schedule:  workflow.DefaultScheduleExpressionConstant,
		Workspace: definitionWorkspaceConstant,
		Repository: workflow.RepositoryDefinition{
			Remote:    "origin",
			Reference: definitionReferenceConstant,
		},
		Runtime: workflow.RuntimeDefinition{Tool: "python3", Version: "3.10"},
		Dependencies: workflow.InstallDefinition{
			Command:   "pip3",
			Arguments: []string{"install", "--requirement", "requirements.txt"},
		},
		Script: workflow.ScriptDefinition{
			Command:   "python3",
			Arguments: []string{"src/main.py", "--gh::uid-action"},
		},
		Publish: workflow.PublishDefinition{
			Remote:                "origin",
			AuthorName:            "vanix-bot",
			AuthorEmail:           "vanix-bot@users.noreply.github.com",
			Message:               "Refresh availability lists",
			CredentialEnvironment: definitionCredentialEnvConstant,
		},
	}
}

func newPipelineFixture(testInstance *testing.T) *pipelineFixture {
	recorder := &stepInvocationRecorder{}
	fixture := &pipelineFixture{
		recorder: recorder,
		checkoutStub: &stubCheckoutExecutor{
			recorder: recorder,
			result: checkout.Result{
				RepositoryPath: definitionWorkspaceConstant,
				ReferenceName:  resolvedReferenceConstant,
			},
		},
		runtimeStub: &stubRuntimeExecutor{
			recorder: recorder,
			result:   toolchain.Result{ToolName: "python3", DetectedVersion: detectedRuntimeVersionConstant},
		},
		installStub: &stubInstallExecutor{recorder: recorder},
		scriptStub: &stubScriptExecutor{
			recorder: recorder,
			result:   script.Result{CommandLine: scriptCommandLineConstant},
		},
		publishStub: &stubPublishExecutor{
			recorder: recorder,
			result: publish.Result{
				CommitCreated:   true,
				PushedRemote:    "origin",
				PushedReference: resolvedReferenceConstant,
			},
		},
	}

	runnerInstance, constructionError := workflow.NewRunner(buildRunnerDefinition(), workflow.RunnerDependencies{
		CheckoutExecutor: fixture.checkoutStub,
		RuntimeExecutor:  fixture.runtimeStub,
		InstallExecutor:  fixture.installStub,
		ScriptExecutor:   fixture.scriptStub,
		PublishExecutor:  fixture.publishStub,
	})
	require.NoError(testInstance, constructionError)
	fixture.runner = runnerInstance
	return fixture
}

func fullPipelineOrder() []workflow.StepName {
	return []workflow.StepName{
		workflow.StepNameCheckout,
		workflow.StepNameRuntime,
		workflow.StepNameDependencies,
		workflow.StepNameScript,
		workflow.StepNamePublish,
	}
}

func TestNewRunnerValidatesDependencies(testInstance *testing.T) {
	completeDependencies := func() workflow.RunnerDependencies {
		recorder := &stepInvocationRecorder{}
		return workflow.RunnerDependencies{
			CheckoutExecutor: &stubCheckoutExecutor{recorder: recorder},
			RuntimeExecutor:  &stubRuntimeExecutor{recorder: recorder},
			InstallExecutor:  &stubInstallExecutor{recorder: recorder},
			ScriptExecutor:   &stubScriptExecutor{recorder: recorder},
			PublishExecutor:  &stubPublishExecutor{recorder: recorder},
		}
	}

	testCases := []struct {
		name          string
		definition    workflow.Definition
		mutate        func(dependencies *workflow.RunnerDependencies)
		expectedError error
	}{
		{
			name:          "invalid_definition",
			definition:    workflow.Definition{},
			mutate:        func(*workflow.RunnerDependencies) {},
			expectedError: workflow.ErrDefinitionNameRequired,
		},
		{
			name:          "missing_checkout_executor",
			definition:    buildRunnerDefinition(),
			mutate:        func(dependencies *workflow.RunnerDependencies) { dependencies.CheckoutExecutor = nil },
			expectedError: workflow.ErrCheckoutExecutorNotConfigured,
		},
		{
			name:          "missing_runtime_executor",
			definition:    buildRunnerDefinition(),
			mutate:        func(dependencies *workflow.RunnerDependencies) { dependencies.RuntimeExecutor = nil },
			expectedError: workflow.ErrRuntimeExecutorNotConfigured,
		},
		{
			name:          "missing_install_executor",
			definition:    buildRunnerDefinition(),
			mutate:        func(dependencies *workflow.RunnerDependencies) { dependencies.InstallExecutor = nil },
			expectedError: workflow.ErrInstallExecutorNotConfigured,
		},
		{
			name:          "missing_script_executor",
			definition:    buildRunnerDefinition(),
			mutate:        func(dependencies *workflow.RunnerDependencies) { dependencies.ScriptExecutor = nil },
			expectedError: workflow.ErrScriptExecutorNotConfigured,
		},
		{
			name:          "missing_publish_executor",
			definition:    buildRunnerDefinition(),
			mutate:        func(dependencies *workflow.RunnerDependencies) { dependencies.PublishExecutor = nil },
			expectedError: workflow.ErrPublishExecutorNotConfigured,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(subtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			dependencies := completeDependencies()
			testCase.mutate(&dependencies)

			runnerInstance, constructionError := workflow.NewRunner(testCase.definition, dependencies)

			require.ErrorIs(subtestInstance, constructionError, testCase.expectedError)
			require.Nil(subtestInstance, runnerInstance)
		})
	}
}

func TestRunExecutesStepsInFixedOrder(testInstance *testing.T) {
	fixture := newPipelineFixture(testInstance)

	summary, runError := fixture.runner.Run(context.Background(), workflow.RunRequest{
		RunIdentifier: runIdentifierConstant,
		Trigger:       workflow.TriggerManual,
	})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, fullPipelineOrder(), fixture.recorder.invokedSteps)
	require.Equal(testInstance, workflow.RunStateSucceeded, summary.State)
	require.Equal(testInstance, definitionJobNameConstant, summary.JobName)
	require.Equal(testInstance, runIdentifierConstant, summary.RunIdentifier)
	require.Equal(testInstance, workflow.TriggerManual, summary.Trigger)
	require.Empty(testInstance, summary.FailureMessage)
	require.False(testInstance, summary.CompletedAt.Before(summary.StartedAt))

	require.Len(testInstance, summary.Steps, 5)
	for stepIndex, stepRecord := range summary.Steps {
		require.Equal(testInstance, fullPipelineOrder()[stepIndex], stepRecord.Name)
		require.Equal(testInstance, workflow.StepStatusSucceeded, stepRecord.Status)
	}
	require.Equal(testInstance, resolvedReferenceConstant, summary.Steps[0].Detail)
	require.Equal(testInstance, scriptCommandLineConstant, summary.Steps[3].Detail)
}

func TestRunProducesIdenticalSequenceForAllTriggers(testInstance *testing.T) {
	manualFixture := newPipelineFixture(testInstance)
	scheduledFixture := newPipelineFixture(testInstance)

	manualSummary, manualError := manualFixture.runner.Run(context.Background(), workflow.RunRequest{
		RunIdentifier: runIdentifierConstant,
		Trigger:       workflow.TriggerManual,
	})
	scheduledSummary, scheduledError := scheduledFixture.runner.Run(context.Background(), workflow.RunRequest{
		RunIdentifier: runIdentifierConstant,
		Trigger:       workflow.TriggerScheduled,
	})

	require.NoError(testInstance, manualError)
	require.NoError(testInstance, scheduledError)
	require.Equal(testInstance, manualFixture.recorder.invokedSteps, scheduledFixture.recorder.invokedSteps)
	require.Equal(testInstance, workflow.TriggerManual, manualSummary.Trigger)
	require.Equal(testInstance, workflow.TriggerScheduled, scheduledSummary.Trigger)

	manualStepNames := make([]workflow.StepName, 0, len(manualSummary.Steps))
	for _, stepRecord := range manualSummary.Steps {
		manualStepNames = append(manualStepNames, stepRecord.Name)
	}
	scheduledStepNames := make([]workflow.StepName, 0, len(scheduledSummary.Steps))
	for _, stepRecord := range scheduledSummary.Steps {
		scheduledStepNames = append(scheduledStepNames, stepRecord.Name)
	}
	require.Equal(testInstance, manualStepNames, scheduledStepNames)
}

func TestRunHaltsPipelineAtFirstFailure(testInstance *testing.T) {
	stepFailure := errors.New(stepFailureMessageConstant)

	testCases := []struct {
		name           string
		failStep       func(fixture *pipelineFixture)
		expectedStep   workflow.StepName
		expectedInvoke []workflow.StepName
	}{
		{
			name:           "checkout_failure",
			failStep:       func(fixture *pipelineFixture) { fixture.checkoutStub.executionError = stepFailure },
			expectedStep:   workflow.StepNameCheckout,
			expectedInvoke: fullPipelineOrder()[:1],
		},
		{
			name:           "runtime_failure",
			failStep:       func(fixture *pipelineFixture) { fixture.runtimeStub.executionError = stepFailure },
			expectedStep:   workflow.StepNameRuntime,
			expectedInvoke: fullPipelineOrder()[:2],
		},
		{
			name:           "install_failure",
			failStep:       func(fixture *pipelineFixture) { fixture.installStub.executionError = stepFailure },
			expectedStep:   workflow.StepNameDependencies,
			expectedInvoke: fullPipelineOrder()[:3],
		},
		{
			name:           "script_failure",
			failStep:       func(fixture *pipelineFixture) { fixture.scriptStub.executionError = stepFailure },
			expectedStep:   workflow.StepNameScript,
			expectedInvoke: fullPipelineOrder()[:4],
		},
		{
			name:           "publish_failure",
			failStep:       func(fixture *pipelineFixture) { fixture.publishStub.executionError = stepFailure },
			expectedStep:   workflow.StepNamePublish,
			expectedInvoke: fullPipelineOrder(),
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(subtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			fixture := newPipelineFixture(subtestInstance)
			testCase.failStep(fixture)

			summary, runError := fixture.runner.Run(context.Background(), workflow.RunRequest{
				RunIdentifier: runIdentifierConstant,
				Trigger:       workflow.TriggerScheduled,
			})

			var failure workflow.StepFailureError
			require.ErrorAs(subtestInstance, runError, &failure)
			require.Equal(subtestInstance, testCase.expectedStep, failure.Step)
			require.ErrorIs(subtestInstance, runError, stepFailure)

			require.Equal(subtestInstance, testCase.expectedInvoke, fixture.recorder.invokedSteps)
			require.Equal(subtestInstance, workflow.RunStateFailed, summary.State)
			require.NotEmpty(subtestInstance, summary.FailureMessage)
			require.Len(subtestInstance, summary.Steps, len(testCase.expectedInvoke))
			require.Equal(subtestInstance, workflow.StepStatusFailed, summary.Steps[len(summary.Steps)-1].Status)
		})
	}
}

func TestRunScriptFailureSkipsPublish(testInstance *testing.T) {
	fixture := newPipelineFixture(testInstance)
	fixture.scriptStub.executionError = errors.New(stepFailureMessageConstant)

	_, runError := fixture.runner.Run(context.Background(), workflow.RunRequest{
		RunIdentifier: runIdentifierConstant,
		Trigger:       workflow.TriggerScheduled,
	})

	require.Error(testInstance, runError)
	require.Empty(testInstance, fixture.publishStub.recordedOptions)
}

func TestRunThreadsResolvedReferenceIntoPublish(testInstance *testing.T) {
	fixture := newPipelineFixture(testInstance)

	_, runError := fixture.runner.Run(context.Background(), workflow.RunRequest{
		RunIdentifier: runIdentifierConstant,
		Trigger:       workflow.TriggerManual,
	})

	require.NoError(testInstance, runError)

	require.Len(testInstance, fixture.checkoutStub.recordedOptions, 1)
	require.Equal(testInstance, definitionWorkspaceConstant, fixture.checkoutStub.recordedOptions[0].RepositoryPath)
	require.Equal(testInstance, definitionReferenceConstant, fixture.checkoutStub.recordedOptions[0].ReferenceName)

	require.Len(testInstance, fixture.publishStub.recordedOptions, 1)
	publishedOptions := fixture.publishStub.recordedOptions[0]
	require.Equal(testInstance, resolvedReferenceConstant, publishedOptions.ReferenceName)
	require.Equal(testInstance, "vanix-bot", publishedOptions.AuthorName)
	require.Equal(testInstance, "Refresh availability lists", publishedOptions.CommitMessage)
	require.Equal(testInstance, definitionCredentialEnvConstant, publishedOptions.CredentialEnvironmentName)

	require.Len(testInstance, fixture.runtimeStub.recordedOptions, 1)
	require.Equal(testInstance, "python3", fixture.runtimeStub.recordedOptions[0].ToolName)
	require.Equal(testInstance, "3.10", fixture.runtimeStub.recordedOptions[0].PinnedVersion)

	require.Len(testInstance, fixture.scriptStub.recordedOptions, 1)
	require.Equal(testInstance, []string{"src/main.py", "--gh::uid-action"}, fixture.scriptStub.recordedOptions[0].Arguments)
}

func TestRunMarksSkippedInstallStep(testInstance *testing.T) {
	fixture := newPipelineFixture(testInstance)
	fixture.installStub.result = install.Result{Skipped: true}

	summary, runError := fixture.runner.Run(context.Background(), workflow.RunRequest{
		RunIdentifier: runIdentifierConstant,
		Trigger:       workflow.TriggerManual,
	})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, "skipped", summary.Steps[2].Detail)
	require.Equal(testInstance, workflow.StepStatusSucceeded, summary.Steps[2].Status)
}

func TestRunDefaultsBlankTriggerToManual(testInstance *testing.T) {
	fixture := newPipelineFixture(testInstance)

	summary, runError := fixture.runner.Run(context.Background(), workflow.RunRequest{RunIdentifier: runIdentifierConstant})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, workflow.TriggerManual, summary.Trigger)
}
