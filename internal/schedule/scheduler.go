// Package schedule fires job runs on a cron expression.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tyemirov/vanix/internal/workflow"
)

const (
	dispatcherMissingMessageConstant       = "dispatcher not configured"
	scheduleExpressionRequiredMessage      = "schedule expression must be provided"
	schedulerAlreadyStartedMessageConstant = "scheduler already started"
	scheduleParseFailureTemplateConstant   = "failed to parse schedule %q: %w"
	schedulerStartedEventConstant          = "schedule_started"
	tickDispatchedEventConstant            = "schedule_tick_dispatched"
	tickDroppedEventConstant               = "schedule_tick_dropped"
	tickFailedEventConstant                = "schedule_tick_failed"
	jobFieldNameConstant                   = "job"
	scheduleFieldNameConstant              = "schedule"
	nextRunFieldNameConstant               = "next_run"
	runIdentifierFieldNameConstant         = "run_id"
	stateFieldNameConstant                 = "state"
	errorFieldNameConstant                 = "error"
	activeRunReasonConstant                = "active_run_in_progress"
	reasonFieldNameConstant                = "reason"
)

// ErrDispatcherNotConfigured indicates the dispatcher dependency was missing.
var ErrDispatcherNotConfigured = errors.New(dispatcherMissingMessageConstant)

// ErrScheduleExpressionRequired indicates the schedule expression was empty.
var ErrScheduleExpressionRequired = errors.New(scheduleExpressionRequiredMessage)

// ErrSchedulerAlreadyStarted indicates Start was called twice.
var ErrSchedulerAlreadyStarted = errors.New(schedulerAlreadyStartedMessageConstant)

// Dispatcher starts job runs on behalf of the scheduler.
type Dispatcher interface {
	JobName() string
	Dispatch(executionContext context.Context, runTrigger workflow.Trigger) (workflow.RunSummary, error)
}

// Dependencies enumerates the collaborators a Scheduler needs.
type Dependencies struct {
	Dispatcher Dispatcher
	Logger     *zap.Logger
}

// Scheduler triggers scheduled runs from a five-field cron expression.
//
// Ticks that arrive while a run is still active are dropped rather than
// queued, so a slow run never stacks up repeat executions behind itself.
type Scheduler struct {
	dispatcher Dispatcher
	logger     *zap.Logger

	stateMutex sync.Mutex
	cronRunner *cron.Cron
}

// NewScheduler constructs a Scheduler from the provided dependencies.
func NewScheduler(dependencies Dependencies) (*Scheduler, error) {
	if dependencies.Dispatcher == nil {
		return nil, ErrDispatcherNotConfigured
	}

	schedulerLogger := dependencies.Logger
	if schedulerLogger == nil {
		schedulerLogger = zap.NewNop()
	}

	return &Scheduler{
		dispatcher: dependencies.Dispatcher,
		logger:     schedulerLogger,
	}, nil
}

// Start registers the schedule expression and begins firing ticks.
func (scheduler *Scheduler) Start(scheduleExpression string) error {
	trimmedExpression := strings.TrimSpace(scheduleExpression)
	if len(trimmedExpression) == 0 {
		return ErrScheduleExpressionRequired
	}

	scheduler.stateMutex.Lock()
	defer scheduler.stateMutex.Unlock()

	if scheduler.cronRunner != nil {
		return ErrSchedulerAlreadyStarted
	}

	cronRunner := cron.New()
	if _, scheduleError := cronRunner.AddFunc(trimmedExpression, scheduler.runScheduledTick); scheduleError != nil {
		return fmt.Errorf(scheduleParseFailureTemplateConstant, trimmedExpression, scheduleError)
	}

	cronRunner.Start()
	scheduler.cronRunner = cronRunner

	scheduler.logger.Info(
		schedulerStartedEventConstant,
		zap.String(jobFieldNameConstant, scheduler.dispatcher.JobName()),
		zap.String(scheduleFieldNameConstant, trimmedExpression),
		zap.Time(nextRunFieldNameConstant, cronRunner.Entries()[0].Next),
	)

	return nil
}

// Stop halts tick delivery and waits for an in-flight tick to finish.
func (scheduler *Scheduler) Stop() {
	scheduler.stateMutex.Lock()
	cronRunner := scheduler.cronRunner
	scheduler.cronRunner = nil
	scheduler.stateMutex.Unlock()

	if cronRunner == nil {
		return
	}

	stopContext := cronRunner.Stop()
	<-stopContext.Done()
}

// NextRun reports when the next tick fires, when the scheduler is running.
func (scheduler *Scheduler) NextRun() (time.Time, bool) {
	scheduler.stateMutex.Lock()
	defer scheduler.stateMutex.Unlock()

	if scheduler.cronRunner == nil {
		return time.Time{}, false
	}
	cronEntries := scheduler.cronRunner.Entries()
	if len(cronEntries) == 0 {
		return time.Time{}, false
	}
	return cronEntries[0].Next, true
}

func (scheduler *Scheduler) runScheduledTick() {
	summary, dispatchError := scheduler.dispatcher.Dispatch(context.Background(), workflow.TriggerScheduled)
	if dispatchError != nil {
		if errors.Is(dispatchError, workflow.ErrRunActive) {
			scheduler.logger.Warn(
				tickDroppedEventConstant,
				zap.String(jobFieldNameConstant, scheduler.dispatcher.JobName()),
				zap.String(reasonFieldNameConstant, activeRunReasonConstant),
			)
			return
		}

		scheduler.logger.Error(
			tickFailedEventConstant,
			zap.String(jobFieldNameConstant, scheduler.dispatcher.JobName()),
			zap.String(runIdentifierFieldNameConstant, summary.RunIdentifier),
			zap.String(errorFieldNameConstant, dispatchError.Error()),
		)
		return
	}

	scheduler.logger.Info(
		tickDispatchedEventConstant,
		zap.String(jobFieldNameConstant, scheduler.dispatcher.JobName()),
		zap.String(runIdentifierFieldNameConstant, summary.RunIdentifier),
		zap.String(stateFieldNameConstant, string(summary.State)),
	)
}
