// Package checkout synchronizes the job workspace with its upstream before a run.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tyemirov/vanix/internal/execshell"
	"github.com/tyemirov/vanix/internal/steps/shared"
)

const (
	repositoryPathRequiredMessageConstant       = "repository path must be provided"
	gitExecutorMissingMessageConstant           = "git executor not configured"
	repositoryManagerMissingMessageConstant     = "repository manager not configured"
	referenceNotResolvedMessageConstant         = "checkout reference could not be resolved"
	referenceResolutionFailureTemplateConstant  = "failed to resolve current branch: %w"
	gitFetchFailureTemplateConstant             = "failed to fetch updates: %w"
	gitCheckoutFailureTemplateConstant          = "failed to checkout reference %q: %w"
	gitPullFailureTemplateConstant              = "failed to pull latest changes: %w"
	gitFetchSubcommandConstant                  = "fetch"
	gitFetchPruneFlagConstant                   = "--prune"
	gitCheckoutSubcommandConstant               = "checkout"
	gitPullSubcommandConstant                   = "pull"
	gitPullFastForwardFlagConstant              = "--ff-only"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
	detachedHeadReferenceConstant               = "HEAD"
)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// ErrReferenceNotResolved indicates the triggering reference could not be determined.
var ErrReferenceNotResolved = errors.New(referenceNotResolvedMessageConstant)

// Dependencies enumerates external collaborators required for checkout operations.
type Dependencies struct {
	GitExecutor       shared.GitExecutor
	RepositoryManager shared.GitRepositoryManager
}

// Options configures a checkout operation.
type Options struct {
	RepositoryPath string
	// ReferenceName selects the branch to synchronize. When blank the
	// currently checked out branch is used.
	ReferenceName string
}

// Result captures the observable outcomes of a checkout.
type Result struct {
	RepositoryPath string
	// ReferenceName reports the branch the workspace now tracks. Later steps
	// publish to this reference.
	ReferenceName string
}

// Service synchronizes a repository checkout through git.
type Service struct {
	executor          shared.GitExecutor
	repositoryManager shared.GitRepositoryManager
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	return &Service{executor: dependencies.GitExecutor, repositoryManager: dependencies.RepositoryManager}, nil
}

// Execute fetches upstream state and aligns the workspace with the triggering reference.
func (service *Service) Execute(executionContext context.Context, options Options) (Result, error) {
	trimmedRepositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}

	resolvedReference := strings.TrimSpace(options.ReferenceName)
	if len(resolvedReference) == 0 {
		currentBranch, currentBranchError := service.repositoryManager.GetCurrentBranch(executionContext, trimmedRepositoryPath)
		if currentBranchError != nil {
			return Result{}, fmt.Errorf(referenceResolutionFailureTemplateConstant, currentBranchError)
		}
		resolvedReference = strings.TrimSpace(currentBranch)
	}
	if len(resolvedReference) == 0 || resolvedReference == detachedHeadReferenceConstant {
		return Result{}, ErrReferenceNotResolved
	}

	if fetchError := service.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitFetchSubcommandConstant, gitFetchPruneFlagConstant},
		WorkingDirectory: trimmedRepositoryPath,
	}); fetchError != nil {
		return Result{}, fmt.Errorf(gitFetchFailureTemplateConstant, fetchError)
	}

	if checkoutError := service.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCheckoutSubcommandConstant, resolvedReference},
		WorkingDirectory: trimmedRepositoryPath,
	}); checkoutError != nil {
		return Result{}, fmt.Errorf(gitCheckoutFailureTemplateConstant, resolvedReference, checkoutError)
	}

	if pullError := service.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitPullSubcommandConstant, gitPullFastForwardFlagConstant},
		WorkingDirectory: trimmedRepositoryPath,
	}); pullError != nil {
		return Result{}, fmt.Errorf(gitPullFailureTemplateConstant, pullError)
	}

	return Result{RepositoryPath: trimmedRepositoryPath, ReferenceName: resolvedReference}, nil
}

func (service *Service) executeGit(executionContext context.Context, details execshell.CommandDetails) error {
	if details.EnvironmentVariables == nil {
		details.EnvironmentVariables = map[string]string{}
	}
	details.EnvironmentVariables[gitTerminalPromptEnvironmentNameConstant] = gitTerminalPromptEnvironmentDisableConstant
	_, executionError := service.executor.ExecuteGit(executionContext, details)
	return executionError
}
