// Package script runs a job's main command inside the checked out workspace.
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tyemirov/vanix/internal/execshell"
	"github.com/tyemirov/vanix/internal/steps/shared"
)

const (
	repositoryPathRequiredMessageConstant = "repository path must be provided"
	commandRequiredMessageConstant        = "script command must be provided"
	toolExecutorMissingMessageConstant    = "tool executor not configured"
	scriptFailureTemplateConstant         = "script execution failed: %w"
	commandLineSeparatorConstant          = " "
)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrCommandRequired indicates the script command option was empty.
var ErrCommandRequired = errors.New(commandRequiredMessageConstant)

// ErrToolExecutorNotConfigured indicates the tool executor dependency was missing.
var ErrToolExecutorNotConfigured = errors.New(toolExecutorMissingMessageConstant)

// Dependencies enumerates external collaborators required for script execution.
type Dependencies struct {
	ToolExecutor shared.ToolExecutor
}

// Options configures a script execution operation.
type Options struct {
	RepositoryPath string
	Command        string
	// Arguments are forwarded verbatim, including flags the script itself interprets.
	Arguments            []string
	EnvironmentVariables map[string]string
}

// Result captures the executed command for reporting.
type Result struct {
	CommandLine string
}

// Service executes job scripts.
type Service struct {
	toolExecutor shared.ToolExecutor
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.ToolExecutor == nil {
		return nil, ErrToolExecutorNotConfigured
	}
	return &Service{toolExecutor: dependencies.ToolExecutor}, nil
}

// Execute runs the script command in the workspace and fails on any nonzero exit.
func (service *Service) Execute(executionContext context.Context, options Options) (Result, error) {
	trimmedRepositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}

	trimmedCommand := strings.TrimSpace(options.Command)
	if len(trimmedCommand) == 0 {
		return Result{}, ErrCommandRequired
	}

	commandName, commandNameError := execshell.NewCommandName(trimmedCommand)
	if commandNameError != nil {
		return Result{}, commandNameError
	}

	if _, executionError := service.toolExecutor.ExecuteTool(executionContext, commandName, execshell.CommandDetails{
		Arguments:            options.Arguments,
		WorkingDirectory:     trimmedRepositoryPath,
		EnvironmentVariables: options.EnvironmentVariables,
	}); executionError != nil {
		return Result{}, fmt.Errorf(scriptFailureTemplateConstant, executionError)
	}

	commandLineParts := append([]string{trimmedCommand}, options.Arguments...)
	return Result{CommandLine: strings.Join(commandLineParts, commandLineSeparatorConstant)}, nil
}
