// Package dependencies resolves default collaborators for the job step services.
package dependencies

import (
	"go.uber.org/zap"

	"github.com/tyemirov/vanix/internal/execshell"
	"github.com/tyemirov/vanix/internal/gitrepo"
	"github.com/tyemirov/vanix/internal/steps/shared"
)

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
func ResolveGitExecutor(existing shared.GitExecutor, logger *zap.Logger, humanReadableLogging bool) (shared.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveToolExecutor returns the provided executor or constructs a shell-backed default.
func ResolveToolExecutor(existing shared.ToolExecutor, logger *zap.Logger, humanReadableLogging bool) (shared.ToolExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveGitRepositoryManager returns the provided repository manager or constructs one from the executor.
func ResolveGitRepositoryManager(existing shared.GitRepositoryManager, executor shared.GitExecutor) (shared.GitRepositoryManager, error) {
	if existing != nil {
		return existing, nil
	}
	return gitrepo.NewRepositoryManager(executor)
}
