package jobs

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/vanix/internal/schedule"
)

const (
	scheduleCommandUseNameConstant          = "schedule"
	scheduleCommandShortDescriptionConstant = "Run the job on its cron schedule until interrupted"
	scheduleCommandLongDescriptionConstant  = "schedule fires the job at the definition's cron expression and keeps running until SIGINT or SIGTERM arrives."
	scheduleStartedMessageConstant          = "job_schedule_started"
	scheduleStoppedMessageConstant          = "job_schedule_stopped"
	scheduleExpressionFieldConstant         = "schedule"
	nextActivationFieldNameConstant         = "next_activation"
)

// InterruptContextFactory derives a context that ends when shutdown is requested.
type InterruptContextFactory func(parentContext context.Context) (context.Context, context.CancelFunc)

// ScheduleCommandBuilder assembles the cron schedule command.
type ScheduleCommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() Configuration
	CoordinatorFactory           CoordinatorFactory
	InterruptContextFactory      InterruptContextFactory
}

// Build constructs the job schedule command.
func (builder *ScheduleCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   scheduleCommandUseNameConstant,
		Short: scheduleCommandShortDescriptionConstant,
		Long:  scheduleCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().String(definitionFlagNameConstant, "", definitionFlagUsageConstant)

	return command, nil
}

func (builder *ScheduleCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	commandLogger := resolveLogger(builder.LoggerProvider)

	definition, definitionError := resolveDefinition(resolveDefinitionPath(command, configuration))
	if definitionError != nil {
		return definitionError
	}

	coordinator, coordinatorError := builder.resolveCoordinatorFactory()(definition, commandLogger, humanReadableLogging(builder.HumanReadableLoggingProvider))
	if coordinatorError != nil {
		return coordinatorError
	}

	scheduler, schedulerError := schedule.NewScheduler(schedule.Dependencies{
		Dispatcher: coordinator,
		Logger:     commandLogger,
	})
	if schedulerError != nil {
		return schedulerError
	}

	if startError := scheduler.Start(definition.Schedule); startError != nil {
		return startError
	}
	defer scheduler.Stop()

	startedFields := []zap.Field{
		zap.String(jobNameFieldConstant, definition.Name),
		zap.String(scheduleExpressionFieldConstant, definition.Schedule),
	}
	if nextActivation, activationPlanned := scheduler.NextRun(); activationPlanned {
		startedFields = append(startedFields, zap.Time(nextActivationFieldNameConstant, nextActivation))
	}
	commandLogger.Info(scheduleStartedMessageConstant, startedFields...)

	waitContext, stopWaiting := builder.resolveInterruptContextFactory()(command.Context())
	defer stopWaiting()
	<-waitContext.Done()

	commandLogger.Info(scheduleStoppedMessageConstant, zap.String(jobNameFieldConstant, definition.Name))
	return nil
}

func (builder *ScheduleCommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *ScheduleCommandBuilder) resolveCoordinatorFactory() CoordinatorFactory {
	if builder.CoordinatorFactory == nil {
		return buildRunCoordinator
	}
	return builder.CoordinatorFactory
}

func (builder *ScheduleCommandBuilder) resolveInterruptContextFactory() InterruptContextFactory {
	if builder.InterruptContextFactory == nil {
		return newSignalInterruptContext
	}
	return builder.InterruptContextFactory
}

func newSignalInterruptContext(parentContext context.Context) (context.Context, context.CancelFunc) {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return signal.NotifyContext(parentContext, os.Interrupt, syscall.SIGTERM)
}
