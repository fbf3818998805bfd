package sweep_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/vanix/internal/sweep"
)

const (
	outputFileNameConstant        = "available.txt"
	inputFileNameConstant         = "checkable.txt"
	identifierListFileName        = "gh#u-id.txt"
	groupListFileName             = "gh#u-groups.txt"
	checkerFailureMessageConstant = "availability check exploded"
)

type stubCandidateChecker struct {
	availableNames     []string
	checkError         error
	recordedEndpoints  []sweep.Endpoint
	recordedCandidates [][]string
}

func (checker *stubCandidateChecker) CheckAvailability(_ context.Context, endpoint sweep.Endpoint, candidateNames []string) ([]string, error) {
	checker.recordedEndpoints = append(checker.recordedEndpoints, endpoint)
	checker.recordedCandidates = append(checker.recordedCandidates, append([]string(nil), candidateNames...))
	if checker.checkError != nil {
		return nil, checker.checkError
	}
	return checker.availableNames, nil
}

var _ sweep.CandidateChecker = (*stubCandidateChecker)(nil)

func newSweepService(testInstance *testing.T, checkerStub *stubCandidateChecker) *sweep.Service {
	serviceInstance, constructionError := sweep.NewService(sweep.ServiceDependencies{Checker: checkerStub})
	require.NoError(testInstance, constructionError)
	return serviceInstance
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	serviceInstance, constructionError := sweep.NewService(sweep.ServiceDependencies{})
	require.ErrorIs(testInstance, constructionError, sweep.ErrCheckerNotConfigured)
	require.Nil(testInstance, serviceInstance)
}

func TestRunGeneratesChecksAndSaves(testInstance *testing.T) {
	checkerStub := &stubCandidateChecker{availableNames: []string{"z", "a"}}
	serviceInstance := newSweepService(testInstance, checkerStub)
	outputFilePath := filepath.Join(testInstance.TempDir(), outputFileNameConstant)

	sweepResult, runError := serviceInstance.Run(context.Background(), sweep.Options{
		Endpoint:       sweep.EndpointID,
		MinimumLength:  1,
		MaximumLength:  1,
		OutputFilePath: outputFilePath,
	})
	require.NoError(testInstance, runError)

	require.Equal(testInstance, 37, sweepResult.CandidateCount)
	require.Equal(testInstance, 2, sweepResult.AvailableCount)
	require.Equal(testInstance, outputFilePath, sweepResult.OutputFilePath)

	require.Equal(testInstance, []sweep.Endpoint{sweep.EndpointID}, checkerStub.recordedEndpoints)
	require.Len(testInstance, checkerStub.recordedCandidates, 1)
	require.Len(testInstance, checkerStub.recordedCandidates[0], 37)

	listContent, readError := os.ReadFile(outputFilePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "a\nz", string(listContent))
}

func TestRunLoadsCandidatesFromInputFile(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	inputFilePath := filepath.Join(temporaryDirectory, inputFileNameConstant)
	outputFilePath := filepath.Join(temporaryDirectory, outputFileNameConstant)
	require.NoError(testInstance, os.WriteFile(inputFilePath, []byte("alpha\nbeta"), 0o644))

	checkerStub := &stubCandidateChecker{availableNames: []string{"beta"}}
	serviceInstance := newSweepService(testInstance, checkerStub)

	sweepResult, runError := serviceInstance.Run(context.Background(), sweep.Options{
		Endpoint:       sweep.EndpointGroups,
		InputFilePath:  inputFilePath,
		OutputFilePath: outputFilePath,
	})
	require.NoError(testInstance, runError)

	require.Equal(testInstance, 2, sweepResult.CandidateCount)
	require.Equal(testInstance, [][]string{{"alpha", "beta"}}, checkerStub.recordedCandidates)
}

func TestRunRequiresOutputPath(testInstance *testing.T) {
	serviceInstance := newSweepService(testInstance, &stubCandidateChecker{})

	_, runError := serviceInstance.Run(context.Background(), sweep.Options{Endpoint: sweep.EndpointID, MinimumLength: 1, MaximumLength: 1})
	require.ErrorIs(testInstance, runError, sweep.ErrOutputPathRequired)
}

func TestRunSurfacesCheckerFailures(testInstance *testing.T) {
	checkerFailure := errors.New(checkerFailureMessageConstant)
	checkerStub := &stubCandidateChecker{checkError: checkerFailure}
	serviceInstance := newSweepService(testInstance, checkerStub)
	outputFilePath := filepath.Join(testInstance.TempDir(), outputFileNameConstant)

	_, runError := serviceInstance.Run(context.Background(), sweep.Options{
		Endpoint:       sweep.EndpointID,
		MinimumLength:  1,
		MaximumLength:  1,
		OutputFilePath: outputFilePath,
	})
	require.ErrorIs(testInstance, runError, checkerFailure)

	_, statError := os.Stat(outputFilePath)
	require.ErrorIs(testInstance, statError, os.ErrNotExist)
}

func TestRunWorkflowActionWritesBothLists(testInstance *testing.T) {
	workspacePath := testInstance.TempDir()
	checkerStub := &stubCandidateChecker{availableNames: []string{"abc"}}
	serviceInstance := newSweepService(testInstance, checkerStub)

	actionError := serviceInstance.RunWorkflowAction(context.Background(), workspacePath)
	require.NoError(testInstance, actionError)

	require.Equal(testInstance, []sweep.Endpoint{sweep.EndpointID, sweep.EndpointGroups}, checkerStub.recordedEndpoints)
	require.Len(testInstance, checkerStub.recordedCandidates, 2)
	require.Len(testInstance, checkerStub.recordedCandidates[0], 54871)
	require.Len(testInstance, checkerStub.recordedCandidates[1], 56315)

	identifierContent, identifierReadError := os.ReadFile(filepath.Join(workspacePath, identifierListFileName))
	require.NoError(testInstance, identifierReadError)
	require.Equal(testInstance, "abc", string(identifierContent))

	groupContent, groupReadError := os.ReadFile(filepath.Join(workspacePath, groupListFileName))
	require.NoError(testInstance, groupReadError)
	require.Equal(testInstance, "abc", string(groupContent))
}

func TestRunWorkflowActionStopsAtFirstFailure(testInstance *testing.T) {
	workspacePath := testInstance.TempDir()
	checkerFailure := errors.New(checkerFailureMessageConstant)
	checkerStub := &stubCandidateChecker{checkError: checkerFailure}
	serviceInstance := newSweepService(testInstance, checkerStub)

	actionError := serviceInstance.RunWorkflowAction(context.Background(), workspacePath)
	require.ErrorIs(testInstance, actionError, checkerFailure)

	require.Equal(testInstance, []sweep.Endpoint{sweep.EndpointID}, checkerStub.recordedEndpoints)

	_, statError := os.Stat(filepath.Join(workspacePath, groupListFileName))
	require.ErrorIs(testInstance, statError, os.ErrNotExist)
}
