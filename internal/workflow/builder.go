package workflow

import (
	"go.uber.org/zap"

	"github.com/tyemirov/vanix/internal/steps/checkout"
	"github.com/tyemirov/vanix/internal/steps/dependencies"
	"github.com/tyemirov/vanix/internal/steps/install"
	"github.com/tyemirov/vanix/internal/steps/publish"
	"github.com/tyemirov/vanix/internal/steps/script"
	"github.com/tyemirov/vanix/internal/steps/toolchain"
)

// BuilderOptions tunes how the default step services are constructed.
type BuilderOptions struct {
	Logger               *zap.Logger
	HumanReadableLogging bool
}

// NewRunnerFromDefinition wires the five default step services into a Runner.
func NewRunnerFromDefinition(definition Definition, builderOptions BuilderOptions) (*Runner, error) {
	builderLogger := builderOptions.Logger
	if builderLogger == nil {
		builderLogger = zap.NewNop()
	}

	gitExecutor, gitExecutorError := dependencies.ResolveGitExecutor(nil, builderLogger, builderOptions.HumanReadableLogging)
	if gitExecutorError != nil {
		return nil, gitExecutorError
	}

	toolExecutor, toolExecutorError := dependencies.ResolveToolExecutor(nil, builderLogger, builderOptions.HumanReadableLogging)
	if toolExecutorError != nil {
		return nil, toolExecutorError
	}

	repositoryManager, repositoryManagerError := dependencies.ResolveGitRepositoryManager(nil, gitExecutor)
	if repositoryManagerError != nil {
		return nil, repositoryManagerError
	}

	checkoutService, checkoutServiceError := checkout.NewService(checkout.Dependencies{
		GitExecutor:       gitExecutor,
		RepositoryManager: repositoryManager,
	})
	if checkoutServiceError != nil {
		return nil, checkoutServiceError
	}

	runtimeService, runtimeServiceError := toolchain.NewService(toolchain.Dependencies{
		ToolExecutor: toolExecutor,
	})
	if runtimeServiceError != nil {
		return nil, runtimeServiceError
	}

	installService, installServiceError := install.NewService(install.Dependencies{
		ToolExecutor: toolExecutor,
	})
	if installServiceError != nil {
		return nil, installServiceError
	}

	scriptService, scriptServiceError := script.NewService(script.Dependencies{
		ToolExecutor: toolExecutor,
	})
	if scriptServiceError != nil {
		return nil, scriptServiceError
	}

	publishService, publishServiceError := publish.NewService(publish.Dependencies{
		GitExecutor:       gitExecutor,
		RepositoryManager: repositoryManager,
	})
	if publishServiceError != nil {
		return nil, publishServiceError
	}

	return NewRunner(definition, RunnerDependencies{
		CheckoutExecutor: checkoutService,
		RuntimeExecutor:  runtimeService,
		InstallExecutor:  installService,
		ScriptExecutor:   scriptService,
		PublishExecutor:  publishService,
		Logger:           builderLogger,
	})
}
