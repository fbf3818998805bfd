package jobs

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/vanix/internal/dispatch"
	"github.com/tyemirov/vanix/internal/schedule"
	flagutils "github.com/tyemirov/vanix/internal/utils/flags"
)

const (
	serveCommandUseNameConstant          = "serve"
	serveCommandShortDescriptionConstant = "Serve job dispatch and status over HTTP alongside the cron schedule"
	serveCommandLongDescriptionConstant  = "serve keeps the cron schedule active and exposes manual dispatch and run status endpoints until SIGINT or SIGTERM arrives."
	listenAddressFlagNameConstant        = "listen-address"
	listenAddressFlagUsageConstant       = "Address the HTTP server binds to"
	serveStartedMessageConstant          = "dispatch_server_started"
	serveStoppedMessageConstant          = "dispatch_server_stopped"
	listenAddressFieldNameConstant       = "listen_address"
	serverReadHeaderTimeoutConstant      = 5 * time.Second
	serverShutdownTimeoutConstant        = 10 * time.Second
)

// ServeCommandBuilder assembles the HTTP dispatch server command.
type ServeCommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() Configuration
	CoordinatorFactory           CoordinatorFactory
	InterruptContextFactory      InterruptContextFactory
}

// Build constructs the job serve command.
func (builder *ServeCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   serveCommandUseNameConstant,
		Short: serveCommandShortDescriptionConstant,
		Long:  serveCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().String(definitionFlagNameConstant, "", definitionFlagUsageConstant)
	command.Flags().String(listenAddressFlagNameConstant, "", listenAddressFlagUsageConstant)

	return command, nil
}

func (builder *ServeCommandBuilder) run(command *cobra.Command, arguments []string) error {
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

	gin.SetMode(gin.ReleaseMode)
	dispatchServer, serverError := dispatch.NewServer(dispatch.Dependencies{
		Dispatcher: coordinator,
		Schedule:   scheduler,
		Logger:     commandLogger,
	})
	if serverError != nil {
		return serverError
	}

	listenAddress := resolveListenAddress(command, configuration)
	httpServer := &http.Server{
		Addr:              listenAddress,
		Handler:           dispatchServer.Handler(),
		ReadHeaderTimeout: serverReadHeaderTimeoutConstant,
	}

	serveFailures := make(chan error, 1)
	go func() {
		if listenError := httpServer.ListenAndServe(); listenError != nil && !errors.Is(listenError, http.ErrServerClosed) {
			serveFailures <- listenError
		}
	}()

	commandLogger.Info(
		serveStartedMessageConstant,
		zap.String(jobNameFieldConstant, definition.Name),
		zap.String(listenAddressFieldNameConstant, listenAddress),
		zap.String(scheduleExpressionFieldConstant, definition.Schedule),
	)

	waitContext, stopWaiting := builder.resolveInterruptContextFactory()(command.Context())
	defer stopWaiting()

	select {
	case listenError := <-serveFailures:
		return listenError
	case <-waitContext.Done():
	}

	shutdownContext, cancelShutdown := context.WithTimeout(context.Background(), serverShutdownTimeoutConstant)
	defer cancelShutdown()
	if shutdownError := httpServer.Shutdown(shutdownContext); shutdownError != nil {
		return shutdownError
	}

	commandLogger.Info(serveStoppedMessageConstant, zap.String(jobNameFieldConstant, definition.Name))
	return nil
}

func (builder *ServeCommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *ServeCommandBuilder) resolveCoordinatorFactory() CoordinatorFactory {
	if builder.CoordinatorFactory == nil {
		return buildRunCoordinator
	}
	return builder.CoordinatorFactory
}

func (builder *ServeCommandBuilder) resolveInterruptContextFactory() InterruptContextFactory {
	if builder.InterruptContextFactory == nil {
		return newSignalInterruptContext
	}
	return builder.InterruptContextFactory
}

func resolveListenAddress(command *cobra.Command, configuration Configuration) string {
	if command != nil {
		if flagValue, flagChanged, flagError := flagutils.StringFlag(command, listenAddressFlagNameConstant); flagError == nil && flagChanged {
			trimmedValue := strings.TrimSpace(flagValue)
			if len(trimmedValue) > 0 {
				return trimmedValue
			}
		}
	}
	return configuration.ListenAddress
}
