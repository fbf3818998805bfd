package gitrepo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/vanix/internal/execshell"
	"github.com/tyemirov/vanix/internal/gitrepo"
)

const (
	testRepositoryPathConstant               = "/tmp/repo"
	testBranchNameConstant                   = "main"
	testRemoteNameConstant                   = "origin"
	testRemoteURLConstant                    = "git@github.com:owner/example.git"
	testCleanWorktreeCaseNameConstant        = "clean"
	testDirtyWorktreeCaseNameConstant        = "dirty"
	testWorktreeErrorCaseNameConstant        = "error"
	testValidationCaseNameConstant           = "validation"
	testCurrentBranchSuccessCaseNameConstant = "current_branch_success"
	testCurrentBranchErrorCaseNameConstant   = "current_branch_error"
	testGetRemoteSuccessCaseNameConstant     = "get_remote_success"
	testGetRemoteErrorCaseNameConstant       = "get_remote_error"
	testExecutorFailureMessageConstant       = "git failed"
	testDirtyStatusEntryConstant             = " M data/gh#u-id.txt"
	testSecondDirtyStatusEntryConstant       = "?? data/gh#u-groups.txt"
)

type stubGitExecutor struct {
	executeFunc     func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error)
	recordedDetails []execshell.CommandDetails
}

func (executor *stubGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	if executor.executeFunc != nil {
		return executor.executeFunc(executionContext, details)
	}
	return execshell.ExecutionResult{}, nil
}

func TestNewRepositoryManagerValidation(testInstance *testing.T) {
	testInstance.Run(testValidationCaseNameConstant, func(testInstance *testing.T) {
		manager, creationError := gitrepo.NewRepositoryManager(nil)
		require.Error(testInstance, creationError)
		require.ErrorIs(testInstance, creationError, gitrepo.ErrGitExecutorNotConfigured)
		require.Nil(testInstance, manager)
	})
}

func TestCheckCleanWorktree(testInstance *testing.T) {
	testCases := []struct {
		name        string
		executor    *stubGitExecutor
		expected    bool
		expectError bool
	}{
		{
			name: testCleanWorktreeCaseNameConstant,
			executor: &stubGitExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: ""}, nil
			}},
			expected: true,
		},
		{
			name: testDirtyWorktreeCaseNameConstant,
			executor: &stubGitExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testDirtyStatusEntryConstant}, nil
			}},
			expected: false,
		},
		{
			name: testWorktreeErrorCaseNameConstant,
			executor: &stubGitExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{}, errors.New(testExecutorFailureMessageConstant)
			}},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager, creationError := gitrepo.NewRepositoryManager(testCase.executor)
			require.NoError(testInstance, creationError)

			cleanWorktree, checkError := manager.CheckCleanWorktree(context.Background(), testRepositoryPathConstant)
			if testCase.expectError {
				require.Error(testInstance, checkError)
				var operationError gitrepo.RepositoryOperationError
				require.ErrorAs(testInstance, checkError, &operationError)
				return
			}
			require.NoError(testInstance, checkError)
			require.Equal(testInstance, testCase.expected, cleanWorktree)
			require.Len(testInstance, testCase.executor.recordedDetails, 1)
			require.Equal(testInstance, []string{"status", "--porcelain"}, testCase.executor.recordedDetails[0].Arguments)
			require.Equal(testInstance, testRepositoryPathConstant, testCase.executor.recordedDetails[0].WorkingDirectory)
		})
	}
}

func TestWorktreeStatusSplitsEntries(testInstance *testing.T) {
	executor := &stubGitExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
		return execshell.ExecutionResult{StandardOutput: testDirtyStatusEntryConstant + "\n" + testSecondDirtyStatusEntryConstant + "\n"}, nil
	}}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	statusEntries, statusError := manager.WorktreeStatus(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, statusError)
	require.Len(testInstance, statusEntries, 2)
}

func TestWorktreeStatusValidatesRepositoryPath(testInstance *testing.T) {
	manager, creationError := gitrepo.NewRepositoryManager(&stubGitExecutor{})
	require.NoError(testInstance, creationError)

	_, statusError := manager.WorktreeStatus(context.Background(), "   ")
	var inputError gitrepo.InvalidRepositoryInputError
	require.ErrorAs(testInstance, statusError, &inputError)
}

func TestGetCurrentBranch(testInstance *testing.T) {
	testCases := []struct {
		name        string
		executor    *stubGitExecutor
		expected    string
		expectError bool
	}{
		{
			name: testCurrentBranchSuccessCaseNameConstant,
			executor: &stubGitExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testBranchNameConstant + "\n"}, nil
			}},
			expected: testBranchNameConstant,
		},
		{
			name: testCurrentBranchErrorCaseNameConstant,
			executor: &stubGitExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{}, errors.New(testExecutorFailureMessageConstant)
			}},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager, creationError := gitrepo.NewRepositoryManager(testCase.executor)
			require.NoError(testInstance, creationError)

			branchName, branchError := manager.GetCurrentBranch(context.Background(), testRepositoryPathConstant)
			if testCase.expectError {
				require.Error(testInstance, branchError)
				require.Contains(testInstance, branchError.Error(), string(gitrepo.RepositoryOperationName("GetCurrentBranch")))
				return
			}
			require.NoError(testInstance, branchError)
			require.Equal(testInstance, testCase.expected, branchName)
			require.Equal(testInstance, []string{"rev-parse", "--abbrev-ref", "HEAD"}, testCase.executor.recordedDetails[0].Arguments)
		})
	}
}

func TestGetRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name        string
		executor    *stubGitExecutor
		expected    string
		expectError bool
	}{
		{
			name: testGetRemoteSuccessCaseNameConstant,
			executor: &stubGitExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testRemoteURLConstant + "\n"}, nil
			}},
			expected: testRemoteURLConstant,
		},
		{
			name: testGetRemoteErrorCaseNameConstant,
			executor: &stubGitExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{}, errors.New(testExecutorFailureMessageConstant)
			}},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager, creationError := gitrepo.NewRepositoryManager(testCase.executor)
			require.NoError(testInstance, creationError)

			remoteURL, remoteError := manager.GetRemoteURL(context.Background(), testRepositoryPathConstant, testRemoteNameConstant)
			if testCase.expectError {
				require.Error(testInstance, remoteError)
				return
			}
			require.NoError(testInstance, remoteError)
			require.Equal(testInstance, testCase.expected, remoteURL)
			require.Equal(testInstance, []string{"remote", "get-url", testRemoteNameConstant}, testCase.executor.recordedDetails[0].Arguments)
		})
	}
}
