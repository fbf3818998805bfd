// Package sweep assembles the CLI command that probes vanity name availability.
package sweep

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	sweepservice "github.com/tyemirov/vanix/internal/sweep"
	flagutils "github.com/tyemirov/vanix/internal/utils/flags"
)

const (
	commandUseNameConstant          = "sweep"
	commandShortDescriptionConstant = "Probe vanity name availability and refresh the list files"
	commandLongDescriptionConstant  = "sweep enumerates candidate vanity names or reads them from a file, probes which names are unclaimed, and writes the sorted availability list."
	workflowActionFlagNameConstant  = "gh::uid-action"
	workflowActionFlagUsageConstant = "Refresh the id and group availability lists inside the workspace"
	fromFileFlagNameConstant        = "from-file"
	fromFileFlagUsageConstant       = "Check candidates from the configured input file instead of generating them"
	endpointFlagNameConstant        = "endpoint"
	endpointFlagUsageConstant       = "Community namespace to probe"
	patternFlagNameConstant         = "pattern"
	patternFlagUsageConstant        = "Regular expression a generated candidate must match"
	minimumLengthFlagNameConstant   = "min-length"
	minimumLengthFlagUsageConstant  = "Shortest candidate length to generate"
	maximumLengthFlagNameConstant   = "max-length"
	maximumLengthFlagUsageConstant  = "Longest candidate length to generate"
	outputFileFlagNameConstant      = "output"
	outputFileFlagUsageConstant     = "File receiving the sorted availability list"
	inputFileFlagNameConstant       = "input"
	inputFileFlagUsageConstant      = "File holding candidate names for file-based sweeps"
	workerCountFlagNameConstant     = "workers"
	workerCountFlagUsageConstant    = "Number of concurrent availability probes"
	baseURLFlagNameConstant         = "base-url"
	baseURLFlagUsageConstant        = "Override the community profile base URL"
	workspaceFallbackPathConstant   = "."
	sweepSummaryTemplateConstant    = "%d of %d candidates available, written to %s\n"
)

// LoggerProvider supplies the logger used during command execution.
type LoggerProvider func() *zap.Logger

// Service performs availability sweeps on behalf of the command.
type Service interface {
	Run(executionContext context.Context, options sweepservice.Options) (sweepservice.Result, error)
	RunWorkflowAction(executionContext context.Context, workspacePath string) error
}

// ServiceFactory builds sweep services from resolved configuration.
type ServiceFactory func(commandLogger *zap.Logger, configuration Configuration) (Service, error)

// CommandBuilder assembles the sweep command with its dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() Configuration
	ServiceFactory        ServiceFactory
}

// Build constructs the sweep command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseNameConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	flagutils.AddToggleFlag(command.Flags(), nil, workflowActionFlagNameConstant, "", false, workflowActionFlagUsageConstant)
	flagutils.AddToggleFlag(command.Flags(), nil, fromFileFlagNameConstant, "", false, fromFileFlagUsageConstant)
	command.Flags().String(endpointFlagNameConstant, "", endpointFlagUsageConstant)
	command.Flags().String(patternFlagNameConstant, "", patternFlagUsageConstant)
	command.Flags().Int(minimumLengthFlagNameConstant, 0, minimumLengthFlagUsageConstant)
	command.Flags().Int(maximumLengthFlagNameConstant, 0, maximumLengthFlagUsageConstant)
	command.Flags().String(outputFileFlagNameConstant, "", outputFileFlagUsageConstant)
	command.Flags().String(inputFileFlagNameConstant, "", inputFileFlagUsageConstant)
	command.Flags().Int(workerCountFlagNameConstant, 0, workerCountFlagUsageConstant)
	command.Flags().String(baseURLFlagNameConstant, "", baseURLFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.applyFlagOverrides(command, builder.resolveConfiguration())
	commandLogger := resolveLogger(builder.LoggerProvider)

	sweepServiceInstance, serviceError := builder.resolveServiceFactory()(commandLogger, configuration)
	if serviceError != nil {
		return serviceError
	}

	if toggleFlagEnabled(command, workflowActionFlagNameConstant) {
		return sweepServiceInstance.RunWorkflowAction(command.Context(), resolveWorkspacePath(command))
	}

	options := sweepservice.Options{
		Endpoint:       sweepservice.Endpoint(configuration.Endpoint),
		MinimumLength:  configuration.MinimumLength,
		MaximumLength:  configuration.MaximumLength,
		Pattern:        configuration.Pattern,
		OutputFilePath: configuration.OutputFile,
	}
	if toggleFlagEnabled(command, fromFileFlagNameConstant) {
		options.InputFilePath = configuration.InputFile
	}

	result, runError := sweepServiceInstance.Run(command.Context(), options)
	if runError != nil {
		return runError
	}

	fmt.Fprintf(command.OutOrStdout(), sweepSummaryTemplateConstant, result.AvailableCount, result.CandidateCount, result.OutputFilePath)
	return nil
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) applyFlagOverrides(command *cobra.Command, configuration Configuration) Configuration {
	if command == nil {
		return configuration
	}

	updated := configuration
	if command.Flags().Changed(endpointFlagNameConstant) {
		if flagValue, flagError := command.Flags().GetString(endpointFlagNameConstant); flagError == nil {
			updated.Endpoint = flagValue
		}
	}
	if command.Flags().Changed(patternFlagNameConstant) {
		if flagValue, flagError := command.Flags().GetString(patternFlagNameConstant); flagError == nil {
			updated.Pattern = flagValue
		}
	}
	if command.Flags().Changed(minimumLengthFlagNameConstant) {
		if flagValue, flagError := command.Flags().GetInt(minimumLengthFlagNameConstant); flagError == nil {
			updated.MinimumLength = flagValue
		}
	}
	if command.Flags().Changed(maximumLengthFlagNameConstant) {
		if flagValue, flagError := command.Flags().GetInt(maximumLengthFlagNameConstant); flagError == nil {
			updated.MaximumLength = flagValue
		}
	}
	if command.Flags().Changed(outputFileFlagNameConstant) {
		if flagValue, flagError := command.Flags().GetString(outputFileFlagNameConstant); flagError == nil {
			updated.OutputFile = flagValue
		}
	}
	if command.Flags().Changed(inputFileFlagNameConstant) {
		if flagValue, flagError := command.Flags().GetString(inputFileFlagNameConstant); flagError == nil {
			updated.InputFile = flagValue
		}
	}
	if command.Flags().Changed(workerCountFlagNameConstant) {
		if flagValue, flagError := command.Flags().GetInt(workerCountFlagNameConstant); flagError == nil {
			updated.Workers = flagValue
		}
	}
	if command.Flags().Changed(baseURLFlagNameConstant) {
		if flagValue, flagError := command.Flags().GetString(baseURLFlagNameConstant); flagError == nil {
			updated.BaseURL = flagValue
		}
	}

	return updated.Sanitize()
}

func (builder *CommandBuilder) resolveServiceFactory() ServiceFactory {
	if builder.ServiceFactory != nil {
		return builder.ServiceFactory
	}
	return defaultServiceFactory
}

func defaultServiceFactory(commandLogger *zap.Logger, configuration Configuration) (Service, error) {
	availabilityChecker, checkerError := sweepservice.NewAvailabilityChecker(commandLogger, nil, sweepservice.CheckerConfiguration{
		BaseURL:     configuration.BaseURL,
		WorkerCount: configuration.Workers,
	})
	if checkerError != nil {
		return nil, checkerError
	}

	return sweepservice.NewService(sweepservice.ServiceDependencies{
		Checker: availabilityChecker,
		Logger:  commandLogger,
	})
}

func resolveLogger(loggerProvider LoggerProvider) *zap.Logger {
	if loggerProvider == nil {
		return zap.NewNop()
	}
	if commandLogger := loggerProvider(); commandLogger != nil {
		return commandLogger
	}
	return zap.NewNop()
}

func resolveWorkspacePath(command *cobra.Command) string {
	executionFlags, flagsAvailable := flagutils.ResolveExecutionFlags(command)
	if flagsAvailable {
		workspacePath := strings.TrimSpace(executionFlags.Workspace)
		if len(workspacePath) > 0 {
			return workspacePath
		}
	}
	return workspaceFallbackPathConstant
}

func toggleFlagEnabled(command *cobra.Command, flagName string) bool {
	flagValue, _, flagError := flagutils.BoolFlag(command, flagName)
	return flagError == nil && flagValue
}
