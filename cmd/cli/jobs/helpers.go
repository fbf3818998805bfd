package jobs

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	flagutils "github.com/tyemirov/vanix/internal/utils/flags"
	"github.com/tyemirov/vanix/internal/workflow"
)

const (
	definitionFlagNameConstant        = "definition"
	definitionFlagUsageConstant       = "Path to a job definition file (defaults to the embedded uid-action preset)"
	defaultPresetNameConstant         = "uid-action"
	presetUnavailableTemplateConstant = "embedded job preset %q is unavailable"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CoordinatorFactory wires a job definition into a dispatchable run coordinator.
type CoordinatorFactory func(definition workflow.Definition, logger *zap.Logger, humanReadableLogging bool) (*workflow.RunCoordinator, error)

func buildRunCoordinator(definition workflow.Definition, logger *zap.Logger, humanReadableLogging bool) (*workflow.RunCoordinator, error) {
	runnerInstance, runnerError := workflow.NewRunnerFromDefinition(definition, workflow.BuilderOptions{
		Logger:               logger,
		HumanReadableLogging: humanReadableLogging,
	})
	if runnerError != nil {
		return nil, runnerError
	}

	return workflow.NewRunCoordinator(workflow.CoordinatorDependencies{
		Runner: runnerInstance,
		Logger: logger,
	})
}

func resolveDefinitionPath(command *cobra.Command, configuration Configuration) string {
	if command != nil {
		if flagValue, flagChanged, flagError := flagutils.StringFlag(command, definitionFlagNameConstant); flagError == nil && flagChanged {
			return strings.TrimSpace(flagValue)
		}
	}
	return configuration.Definition
}

func resolveDefinition(definitionPath string) (workflow.Definition, error) {
	trimmedPath := strings.TrimSpace(definitionPath)
	if len(trimmedPath) > 0 {
		return workflow.LoadDefinition(trimmedPath)
	}

	presetCatalog := workflow.NewEmbeddedPresetCatalog()
	definition, presetFound, loadError := presetCatalog.Load(defaultPresetNameConstant)
	if loadError != nil {
		return workflow.Definition{}, loadError
	}
	if !presetFound {
		return workflow.Definition{}, fmt.Errorf(presetUnavailableTemplateConstant, defaultPresetNameConstant)
	}

	return definition, nil
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	if logger := provider(); logger != nil {
		return logger
	}
	return zap.NewNop()
}

func humanReadableLogging(provider func() bool) bool {
	if provider == nil {
		return false
	}
	return provider()
}
