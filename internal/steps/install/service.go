// Package install runs a job's dependency installation command inside the checked out workspace.
package install

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
	toolExecutorMissingMessageConstant    = "tool executor not configured"
	installFailureTemplateConstant        = "failed to install dependencies: %w"
)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrToolExecutorNotConfigured indicates the tool executor dependency was missing.
var ErrToolExecutorNotConfigured = errors.New(toolExecutorMissingMessageConstant)

// Dependencies enumerates external collaborators required for dependency installation.
type Dependencies struct {
	ToolExecutor shared.ToolExecutor
}

// Options configures a dependency installation operation.
type Options struct {
	RepositoryPath string
	// Command names the installer executable, for example pip3. A blank
	// command skips the step entirely.
	Command   string
	Arguments []string
}

// Result captures the installation outcome.
type Result struct {
	// Skipped reports that no install command was configured.
	Skipped bool
}

// Service installs job dependencies.
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

// Execute runs the configured install command in the workspace, or skips when none is configured.
func (service *Service) Execute(executionContext context.Context, options Options) (Result, error) {
	trimmedRepositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}

	trimmedCommand := strings.TrimSpace(options.Command)
	if len(trimmedCommand) == 0 {
		return Result{Skipped: true}, nil
	}

	commandName, commandNameError := execshell.NewCommandName(trimmedCommand)
	if commandNameError != nil {
		return Result{}, commandNameError
	}

	if _, installError := service.toolExecutor.ExecuteTool(executionContext, commandName, execshell.CommandDetails{
		Arguments:        options.Arguments,
		WorkingDirectory: trimmedRepositoryPath,
	}); installError != nil {
		return Result{}, fmt.Errorf(installFailureTemplateConstant, installError)
	}

	return Result{}, nil
}
