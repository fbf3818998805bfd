package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	runActiveMessageConstant     = "a run of this job is already active"
	runnerMissingMessageConstant = "runner not configured"
	detachedRunRejectedEventName = "job_run_rejected"
	reasonFieldNameConstant      = "reason"
	overlappingRunReasonConstant = "active_run_in_progress"
)

// ErrRunActive indicates a dispatch was rejected because a run is still in progress.
var ErrRunActive = errors.New(runActiveMessageConstant)

// ErrRunnerNotConfigured indicates the coordinator was built without a runner.
var ErrRunnerNotConfigured = errors.New(runnerMissingMessageConstant)

// CoordinatorDependencies enumerates the collaborators a RunCoordinator needs.
type CoordinatorDependencies struct {
	Runner *Runner
	Logger *zap.Logger
	// RunIdentifierFactory defaults to random UUIDs.
	RunIdentifierFactory func() string
}

// RunCoordinator serializes job runs so at most one is active at a time.
type RunCoordinator struct {
	runner            *Runner
	logger            *zap.Logger
	identifierFactory func() string

	stateMutex  sync.Mutex
	runActive   bool
	lastSummary *RunSummary
}

// NewRunCoordinator constructs a RunCoordinator from the provided dependencies.
func NewRunCoordinator(dependencies CoordinatorDependencies) (*RunCoordinator, error) {
	if dependencies.Runner == nil {
		return nil, ErrRunnerNotConfigured
	}

	coordinatorLogger := dependencies.Logger
	if coordinatorLogger == nil {
		coordinatorLogger = zap.NewNop()
	}
	identifierFactory := dependencies.RunIdentifierFactory
	if identifierFactory == nil {
		identifierFactory = uuid.NewString
	}

	return &RunCoordinator{
		runner:            dependencies.Runner,
		logger:            coordinatorLogger,
		identifierFactory: identifierFactory,
	}, nil
}

// JobName returns the name of the coordinated job.
func (coordinator *RunCoordinator) JobName() string {
	return coordinator.runner.Definition().Name
}

// Dispatch executes a run synchronously and returns its summary.
func (coordinator *RunCoordinator) Dispatch(executionContext context.Context, runTrigger Trigger) (RunSummary, error) {
	runIdentifier, claimError := coordinator.claimRun(runTrigger)
	if claimError != nil {
		return RunSummary{}, claimError
	}

	summary, runError := coordinator.runner.Run(executionContext, RunRequest{
		RunIdentifier: runIdentifier,
		Trigger:       runTrigger,
	})
	coordinator.finishRun(summary)
	return summary, runError
}

// DispatchDetached starts a run in the background and returns its identifier immediately.
func (coordinator *RunCoordinator) DispatchDetached(executionContext context.Context, runTrigger Trigger) (string, error) {
	runIdentifier, claimError := coordinator.claimRun(runTrigger)
	if claimError != nil {
		return "", claimError
	}

	detachedContext := context.WithoutCancel(executionContext)
	go func() {
		summary, _ := coordinator.runner.Run(detachedContext, RunRequest{
			RunIdentifier: runIdentifier,
			Trigger:       runTrigger,
		})
		coordinator.finishRun(summary)
	}()

	return runIdentifier, nil
}

// LastSummary returns the most recent completed run summary when one exists.
func (coordinator *RunCoordinator) LastSummary() (RunSummary, bool) {
	coordinator.stateMutex.Lock()
	defer coordinator.stateMutex.Unlock()
	if coordinator.lastSummary == nil {
		return RunSummary{}, false
	}
	return *coordinator.lastSummary, true
}

// RunActive reports whether a run is currently in progress.
func (coordinator *RunCoordinator) RunActive() bool {
	coordinator.stateMutex.Lock()
	defer coordinator.stateMutex.Unlock()
	return coordinator.runActive
}

func (coordinator *RunCoordinator) claimRun(runTrigger Trigger) (string, error) {
	coordinator.stateMutex.Lock()
	defer coordinator.stateMutex.Unlock()

	if coordinator.runActive {
		coordinator.logger.Warn(
			detachedRunRejectedEventName,
			zap.String(jobFieldNameConstant, coordinator.runner.Definition().Name),
			zap.String(triggerFieldNameConstant, string(runTrigger)),
			zap.String(reasonFieldNameConstant, overlappingRunReasonConstant),
		)
		return "", ErrRunActive
	}

	coordinator.runActive = true
	return coordinator.identifierFactory(), nil
}

func (coordinator *RunCoordinator) finishRun(summary RunSummary) {
	coordinator.stateMutex.Lock()
	defer coordinator.stateMutex.Unlock()
	coordinator.runActive = false
	coordinator.lastSummary = &summary
}
