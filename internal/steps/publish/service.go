// Package publish records workspace changes as a commit and pushes the triggering reference.
package publish

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/tyemirov/vanix/internal/execshell"
	"github.com/tyemirov/vanix/internal/steps/shared"
)

const (
	repositoryPathRequiredMessageConstant       = "repository path must be provided"
	referenceRequiredMessageConstant            = "push reference must be provided"
	authorNameRequiredMessageConstant           = "commit author name must be provided"
	authorEmailRequiredMessageConstant          = "commit author email must be provided"
	commitMessageRequiredMessageConstant        = "commit message must be provided"
	gitExecutorMissingMessageConstant           = "git executor not configured"
	repositoryManagerMissingMessageConstant     = "repository manager not configured"
	worktreeInspectionFailureTemplateConstant   = "failed to inspect worktree: %w"
	stageFailureTemplateConstant                = "failed to stage changes: %w"
	commitFailureTemplateConstant               = "failed to create commit: %w"
	pushFailureTemplateConstant                 = "failed to push %s to %s: %w"
	credentialNotSetTemplateConstant            = "push credential environment variable %s is not set"
	gitAddSubcommandConstant                    = "add"
	gitAddAllFlagConstant                       = "--all"
	gitCommitSubcommandConstant                 = "commit"
	gitCommitMessageFlagConstant                = "-m"
	gitPushSubcommandConstant                   = "push"
	gitConfigOptionFlagConstant                 = "-c"
	gitAuthorNameEnvironmentNameConstant        = "GIT_AUTHOR_NAME"
	gitAuthorEmailEnvironmentNameConstant       = "GIT_AUTHOR_EMAIL"
	gitCommitterNameEnvironmentNameConstant     = "GIT_COMMITTER_NAME"
	gitCommitterEmailEnvironmentNameConstant    = "GIT_COMMITTER_EMAIL"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
	authorizationHeaderTemplateConstant         = "http.extraheader=AUTHORIZATION: basic %s"
	credentialUserPrefixConstant                = "x-access-token:"
)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrReferenceRequired indicates the push reference option was empty.
var ErrReferenceRequired = errors.New(referenceRequiredMessageConstant)

// ErrAuthorNameRequired indicates the commit author name option was empty.
var ErrAuthorNameRequired = errors.New(authorNameRequiredMessageConstant)

// ErrAuthorEmailRequired indicates the commit author email option was empty.
var ErrAuthorEmailRequired = errors.New(authorEmailRequiredMessageConstant)

// ErrCommitMessageRequired indicates the commit message option was empty.
var ErrCommitMessageRequired = errors.New(commitMessageRequiredMessageConstant)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// CredentialNotFoundError reports a configured credential variable that resolved to nothing.
type CredentialNotFoundError struct {
	EnvironmentName string
}

// Error describes the missing credential.
func (credentialError CredentialNotFoundError) Error() string {
	return fmt.Sprintf(credentialNotSetTemplateConstant, credentialError.EnvironmentName)
}

// Dependencies enumerates external collaborators required for publishing.
type Dependencies struct {
	GitExecutor       shared.GitExecutor
	RepositoryManager shared.GitRepositoryManager
	// CredentialResolver defaults to reading process environment variables.
	CredentialResolver shared.CredentialResolver
}

// Options configures a publish operation.
type Options struct {
	RepositoryPath string
	// RemoteName defaults to origin when blank.
	RemoteName string
	// ReferenceName is the reference the job ran against. The push always
	// targets this reference rather than a fixed branch.
	ReferenceName string
	AuthorName    string
	AuthorEmail   string
	CommitMessage string
	// CredentialEnvironmentName optionally names the variable holding the
	// push token. When set, the variable must resolve to a nonempty value.
	CredentialEnvironmentName string
}

// Result captures the publish outcome.
type Result struct {
	// CommitCreated reports whether the worktree held changes worth committing.
	CommitCreated   bool
	PushedRemote    string
	PushedReference string
}

// Service commits workspace changes and pushes them to the triggering reference.
type Service struct {
	executor           shared.GitExecutor
	repositoryManager  shared.GitRepositoryManager
	credentialResolver shared.CredentialResolver
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	credentialResolver := dependencies.CredentialResolver
	if credentialResolver == nil {
		credentialResolver = shared.EnvironmentCredentialResolver
	}
	return &Service{
		executor:           dependencies.GitExecutor,
		repositoryManager:  dependencies.RepositoryManager,
		credentialResolver: credentialResolver,
	}, nil
}

// Execute commits pending changes when present and always pushes the reference.
func (service *Service) Execute(executionContext context.Context, options Options) (Result, error) {
	trimmedRepositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}

	trimmedReference := strings.TrimSpace(options.ReferenceName)
	if len(trimmedReference) == 0 {
		return Result{}, ErrReferenceRequired
	}

	trimmedAuthorName := strings.TrimSpace(options.AuthorName)
	if len(trimmedAuthorName) == 0 {
		return Result{}, ErrAuthorNameRequired
	}

	trimmedAuthorEmail := strings.TrimSpace(options.AuthorEmail)
	if len(trimmedAuthorEmail) == 0 {
		return Result{}, ErrAuthorEmailRequired
	}

	trimmedCommitMessage := strings.TrimSpace(options.CommitMessage)
	if len(trimmedCommitMessage) == 0 {
		return Result{}, ErrCommitMessageRequired
	}

	trimmedRemoteName := strings.TrimSpace(options.RemoteName)
	if len(trimmedRemoteName) == 0 {
		trimmedRemoteName = shared.OriginRemoteNameConstant
	}

	pushArguments, credentialError := service.buildPushArguments(options.CredentialEnvironmentName, trimmedRemoteName, trimmedReference)
	if credentialError != nil {
		return Result{}, credentialError
	}

	statusEntries, statusError := service.repositoryManager.WorktreeStatus(executionContext, trimmedRepositoryPath)
	if statusError != nil {
		return Result{}, fmt.Errorf(worktreeInspectionFailureTemplateConstant, statusError)
	}

	commitCreated := false
	if len(statusEntries) > 0 {
		if stageError := service.executeGit(executionContext, execshell.CommandDetails{
			Arguments:        []string{gitAddSubcommandConstant, gitAddAllFlagConstant},
			WorkingDirectory: trimmedRepositoryPath,
		}); stageError != nil {
			return Result{}, fmt.Errorf(stageFailureTemplateConstant, stageError)
		}

		if commitError := service.executeGit(executionContext, execshell.CommandDetails{
			Arguments:        []string{gitCommitSubcommandConstant, gitCommitMessageFlagConstant, trimmedCommitMessage},
			WorkingDirectory: trimmedRepositoryPath,
			EnvironmentVariables: map[string]string{
				gitAuthorNameEnvironmentNameConstant:     trimmedAuthorName,
				gitAuthorEmailEnvironmentNameConstant:    trimmedAuthorEmail,
				gitCommitterNameEnvironmentNameConstant:  trimmedAuthorName,
				gitCommitterEmailEnvironmentNameConstant: trimmedAuthorEmail,
			},
		}); commitError != nil {
			return Result{}, fmt.Errorf(commitFailureTemplateConstant, commitError)
		}
		commitCreated = true
	}

	if pushError := service.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        pushArguments,
		WorkingDirectory: trimmedRepositoryPath,
	}); pushError != nil {
		return Result{}, fmt.Errorf(pushFailureTemplateConstant, trimmedReference, trimmedRemoteName, pushError)
	}

	return Result{
		CommitCreated:   commitCreated,
		PushedRemote:    trimmedRemoteName,
		PushedReference: trimmedReference,
	}, nil
}

func (service *Service) buildPushArguments(credentialEnvironmentName string, remoteName string, referenceName string) ([]string, error) {
	trimmedCredentialName := strings.TrimSpace(credentialEnvironmentName)
	if len(trimmedCredentialName) == 0 {
		return []string{gitPushSubcommandConstant, remoteName, referenceName}, nil
	}

	credentialValue, credentialFound := service.credentialResolver(trimmedCredentialName)
	if !credentialFound {
		return nil, CredentialNotFoundError{EnvironmentName: trimmedCredentialName}
	}

	encodedCredential := base64.StdEncoding.EncodeToString([]byte(credentialUserPrefixConstant + credentialValue))
	authorizationHeader := fmt.Sprintf(authorizationHeaderTemplateConstant, encodedCredential)
	return []string{gitConfigOptionFlagConstant, authorizationHeader, gitPushSubcommandConstant, remoteName, referenceName}, nil
}

func (service *Service) executeGit(executionContext context.Context, details execshell.CommandDetails) error {
	if details.EnvironmentVariables == nil {
		details.EnvironmentVariables = map[string]string{}
	}
	details.EnvironmentVariables[gitTerminalPromptEnvironmentNameConstant] = gitTerminalPromptEnvironmentDisableConstant
	_, executionError := service.executor.ExecuteGit(executionContext, details)
	return executionError
}
