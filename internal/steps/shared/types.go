// Package shared declares collaborator contracts used across the job step services.
package shared

import (
	"context"
	"os"
	"time"

	"github.com/tyemirov/vanix/internal/execshell"
)

// OriginRemoteNameConstant identifies the default upstream remote.
const OriginRemoteNameConstant = "origin"

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// GitExecutor exposes the subset of shell execution used by git-backed steps.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ToolExecutor exposes shell execution for configured executables.
type ToolExecutor interface {
	ExecuteTool(executionContext context.Context, toolName execshell.CommandName, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitRepositoryManager exposes repository state queries.
type GitRepositoryManager interface {
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	WorktreeStatus(executionContext context.Context, repositoryPath string) ([]string, error)
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
}

// CredentialResolver looks up a push credential by environment variable name.
type CredentialResolver func(environmentName string) (string, bool)

// EnvironmentCredentialResolver resolves credentials from process environment variables.
func EnvironmentCredentialResolver(environmentName string) (string, bool) {
	credentialValue, credentialAvailable := os.LookupEnv(environmentName)
	if !credentialAvailable || len(credentialValue) == 0 {
		return "", false
	}
	return credentialValue, true
}
