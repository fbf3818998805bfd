// Package jobs assembles the CLI commands that execute, schedule, and serve
// the configured job.
package jobs

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/vanix/internal/workflow"
)

const (
	runCommandUseNameConstant          = "run"
	runCommandShortDescriptionConstant = "Execute the job once and exit"
	runCommandLongDescriptionConstant  = "run dispatches a single manual job run: source checkout, runtime setup, dependency installation, script execution, and publish of the results."
	runCompleteMessageConstant         = "job_run_complete"
	jobNameFieldConstant               = "job"
	runIdentifierFieldConstant         = "run_id"
	runStateFieldConstant              = "state"
	stepCountFieldNameConstant         = "step_count"
)

// RunCommandBuilder assembles the single-shot job execution command.
type RunCommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() Configuration
	CoordinatorFactory           CoordinatorFactory
}

// Build constructs the job run command.
func (builder *RunCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   runCommandUseNameConstant,
		Short: runCommandShortDescriptionConstant,
		Long:  runCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().String(definitionFlagNameConstant, "", definitionFlagUsageConstant)

	return command, nil
}

func (builder *RunCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	commandLogger := resolveLogger(builder.LoggerProvider)

	definition, definitionError := resolveDefinition(resolveDefinitionPath(command, configuration))
	if definitionError != nil {
		return definitionError
	}

	coordinator, coordinatorError := builder.resolveCoordinatorFactory()(definition, commandLogger, humanReadableLogging(builder.HumanReadableLoggingProvider))
	if coordinatorError != nil {
		return coordinatorError
	}

	summary, dispatchError := coordinator.Dispatch(command.Context(), workflow.TriggerManual)

	commandLogger.Info(
		runCompleteMessageConstant,
		zap.String(jobNameFieldConstant, definition.Name),
		zap.String(runIdentifierFieldConstant, summary.RunIdentifier),
		zap.String(runStateFieldConstant, string(summary.State)),
		zap.Int(stepCountFieldNameConstant, len(summary.Steps)),
	)

	return dispatchError
}

func (builder *RunCommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *RunCommandBuilder) resolveCoordinatorFactory() CoordinatorFactory {
	if builder.CoordinatorFactory == nil {
		return buildRunCoordinator
	}
	return builder.CoordinatorFactory
}
