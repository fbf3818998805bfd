package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tyemirov/vanix/internal/execshell"
)

const (
	gitStatusSubcommandConstant               = "status"
	gitStatusPorcelainFlagConstant            = "--porcelain"
	gitRevParseSubcommandConstant             = "rev-parse"
	gitAbbrevRefFlagConstant                  = "--abbrev-ref"
	gitHeadReferenceConstant                  = "HEAD"
	gitRemoteSubcommandConstant               = "remote"
	gitRemoteGetURLSubcommandConstant         = "get-url"
	repositoryPathFieldNameConstant           = "repository_path"
	remoteNameFieldNameConstant               = "remote_name"
	requiredValueMessageConstant              = "value required"
	executorNotConfiguredMessageConstant      = "git executor not configured"
	repositoryOperationErrorTemplateConstant  = "%s operation failed"
	repositoryOperationErrorWithCauseConstant = "%s operation failed: %s"
	invalidRepositoryInputTemplateConstant    = "%s: %s"
	cleanWorktreeOperationNameConstant        = RepositoryOperationName("CheckCleanWorktree")
	currentBranchOperationNameConstant        = RepositoryOperationName("GetCurrentBranch")
	getRemoteURLOperationNameConstant         = RepositoryOperationName("GetRemoteURL")
)

// GitCommandExecutor exposes the subset of execshell functionality required by RepositoryManager.
type GitCommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager answers repository state queries through execshell.
type RepositoryManager struct {
	executor GitCommandExecutor
}

var (
	// ErrGitExecutorNotConfigured indicates the RepositoryManager was constructed without a git executor.
	ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidRepositoryInputError indicates validation failures for repository operations.
type InvalidRepositoryInputError struct {
	FieldName string
	Message   string
}

// Error describes the validation failure.
func (inputError InvalidRepositoryInputError) Error() string {
	return fmt.Sprintf(invalidRepositoryInputTemplateConstant, inputError.FieldName, inputError.Message)
}

// RepositoryOperationName captures descriptive names for repository operations.
type RepositoryOperationName string

// RepositoryOperationError wraps execution failures for git operations.
type RepositoryOperationError struct {
	Operation RepositoryOperationName
	Cause     error
}

// Error describes the repository operation failure.
func (operationError RepositoryOperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(repositoryOperationErrorTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(repositoryOperationErrorWithCauseConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying error.
func (operationError RepositoryOperationError) Unwrap() error {
	return operationError.Cause
}

// NewRepositoryManager constructs a RepositoryManager for the provided executor.
func NewRepositoryManager(executor GitCommandExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CheckCleanWorktree returns true when the repository has no staged or unstaged changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	status, statusError := manager.WorktreeStatus(executionContext, repositoryPath)
	if statusError != nil {
		return false, statusError
	}
	return len(status) == 0, nil
}

// WorktreeStatus returns the porcelain status entries for the repository.
func (manager *RepositoryManager) WorktreeStatus(executionContext context.Context, repositoryPath string) ([]string, error) {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return nil, InvalidRepositoryInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant},
		WorkingDirectory: trimmedPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return nil, RepositoryOperationError{Operation: cleanWorktreeOperationNameConstant, Cause: executionError}
	}

	trimmedOutput := strings.TrimSpace(executionResult.StandardOutput)
	if len(trimmedOutput) == 0 {
		return nil, nil
	}

	lines := strings.Split(trimmedOutput, "\n")
	entries := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); len(trimmed) > 0 {
			entries = append(entries, trimmed)
		}
	}
	return entries, nil
}

// GetCurrentBranch resolves the current branch name.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return "", InvalidRepositoryInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant},
		WorkingDirectory: trimmedPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return "", RepositoryOperationError{Operation: currentBranchOperationNameConstant, Cause: executionError}
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// GetRemoteURL returns the configured remote URL for the given remote name.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return "", InvalidRepositoryInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	trimmedRemote := strings.TrimSpace(remoteName)
	if len(trimmedRemote) == 0 {
		return "", InvalidRepositoryInputError{FieldName: remoteNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitRemoteGetURLSubcommandConstant, trimmedRemote},
		WorkingDirectory: trimmedPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return "", RepositoryOperationError{Operation: getRemoteURLOperationNameConstant, Cause: executionError}
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}
