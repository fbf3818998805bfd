package jobs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyemirov/vanix/cmd/cli/jobs"
	"github.com/tyemirov/vanix/internal/workflow"
)

const (
	listenAddressFlagArgumentConstant = "--listen-address"
	ephemeralListenAddressConstant    = "127.0.0.1:0"
	unresolvableListenAddressConstant = "listener.invalid:0"
)

func newServeCommandBuilder(recorder *stepRecorder, capturedDefinitions *[]workflow.Definition, interruptFactory jobs.InterruptContextFactory) *jobs.ServeCommandBuilder {
	return &jobs.ServeCommandBuilder{
		LoggerProvider:          func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider:   func() jobs.Configuration { return jobs.DefaultConfiguration() },
		CoordinatorFactory:      newStubCoordinatorFactory(recorder, capturedDefinitions),
		InterruptContextFactory: interruptFactory,
	}
}

func TestServeCommandStartsAndShutsDown(testInstance *testing.T) {
	recorder := &stepRecorder{}
	capturedDefinitions := []workflow.Definition{}

	command, buildError := newServeCommandBuilder(recorder, &capturedDefinitions, cancelledInterruptContext).Build()
	require.NoError(testInstance, buildError)

	command.SetArgs([]string{listenAddressFlagArgumentConstant, ephemeralListenAddressConstant})
	require.NoError(testInstance, command.Execute())

	require.Len(testInstance, capturedDefinitions, 1)
	require.Equal(testInstance, presetJobNameConstant, capturedDefinitions[0].Name)
	require.Empty(testInstance, recorder.executedSteps)
}

func TestServeCommandSurfacesListenFailures(testInstance *testing.T) {
	recorder := &stepRecorder{}
	capturedDefinitions := []workflow.Definition{}

	command, buildError := newServeCommandBuilder(recorder, &capturedDefinitions, context.WithCancel).Build()
	require.NoError(testInstance, buildError)

	command.SetArgs([]string{listenAddressFlagArgumentConstant, unresolvableListenAddressConstant})
	require.Error(testInstance, command.Execute())
}
