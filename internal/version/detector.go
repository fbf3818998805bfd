// Package version resolves the binary's version string from build metadata
// with a git describe fallback for source builds.
package version

import (
	"context"
	"errors"
	"os"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/vanix/internal/execshell"
	"github.com/tyemirov/vanix/internal/steps/shared"
)

const (
	unknownVersionFallbackConstant            = "unknown"
	develVersionValueConstant                 = "devel"
	gitRevParseSubcommandConstant             = "rev-parse"
	gitShowTopLevelFlagConstant               = "--show-toplevel"
	gitDescribeSubcommandConstant             = "describe"
	gitTagsFlagConstant                       = "--tags"
	gitExactMatchFlagConstant                 = "--exact-match"
	gitLongFlagConstant                       = "--long"
	gitDirtyFlagConstant                      = "--dirty"
	gitTerminalPromptEnvironmentNameConstant  = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentValueConstant = "0"
	gitExecutorMissingMessageConstant         = "git executor not configured"
)

// BuildInfoProvider exposes runtime build metadata.
type BuildInfoProvider interface {
	Read() (*debug.BuildInfo, bool)
}

// Dependencies describes the collaborators required for version detection.
type Dependencies struct {
	BuildInfoProvider BuildInfoProvider
	GitExecutor       shared.GitExecutor
	WorkingDirectory  string
}

// Detector resolves the application version string.
type Detector struct {
	buildInfoProvider BuildInfoProvider
	gitExecutor       shared.GitExecutor
	workingDirectory  string
}

// NewDetector constructs a Detector, filling missing collaborators with defaults.
func NewDetector(dependencies Dependencies) (*Detector, error) {
	buildInfoProvider := dependencies.BuildInfoProvider
	if buildInfoProvider == nil {
		buildInfoProvider = runtimeBuildInfoProvider{}
	}

	gitExecutor := dependencies.GitExecutor
	if gitExecutor == nil {
		defaultExecutor, executorError := newDefaultGitExecutor()
		if executorError != nil {
			return nil, executorError
		}
		gitExecutor = defaultExecutor
	}

	workingDirectory := strings.TrimSpace(dependencies.WorkingDirectory)
	if len(workingDirectory) == 0 {
		if currentDirectory, workingDirectoryError := os.Getwd(); workingDirectoryError == nil {
			workingDirectory = currentDirectory
		}
	}

	return &Detector{
		buildInfoProvider: buildInfoProvider,
		gitExecutor:       gitExecutor,
		workingDirectory:  workingDirectory,
	}, nil
}

// Detect resolves the application version in one call.
func Detect(executionContext context.Context, dependencies Dependencies) string {
	detector, detectorError := NewDetector(dependencies)
	if detectorError != nil {
		return unknownVersionFallbackConstant
	}
	return detector.Version(executionContext)
}

// Version returns the module version recorded at build time, falling back to
// git describe output and finally to "unknown".
func (detector *Detector) Version(executionContext context.Context) string {
	if detector == nil {
		return unknownVersionFallbackConstant
	}

	if buildVersion := detector.versionFromBuildInfo(); len(buildVersion) > 0 {
		return buildVersion
	}

	repositoryRoot := detector.resolveRepositoryRoot(executionContext)
	describeArgumentSets := [][]string{
		{gitDescribeSubcommandConstant, gitTagsFlagConstant, gitExactMatchFlagConstant},
		{gitDescribeSubcommandConstant, gitTagsFlagConstant, gitLongFlagConstant, gitDirtyFlagConstant},
	}
	for _, describeArguments := range describeArgumentSets {
		if describedVersion := detector.describeVersion(executionContext, repositoryRoot, describeArguments); len(describedVersion) > 0 {
			return describedVersion
		}
	}

	return unknownVersionFallbackConstant
}

func (detector *Detector) versionFromBuildInfo() string {
	if detector.buildInfoProvider == nil {
		return ""
	}

	buildInfo, buildInfoAvailable := detector.buildInfoProvider.Read()
	if !buildInfoAvailable || buildInfo == nil {
		return ""
	}

	trimmedVersion := strings.TrimSpace(buildInfo.Main.Version)
	if len(trimmedVersion) == 0 || strings.EqualFold(trimmedVersion, develVersionValueConstant) {
		return ""
	}

	return trimmedVersion
}

func (detector *Detector) resolveRepositoryRoot(executionContext context.Context) string {
	if len(detector.workingDirectory) == 0 {
		return ""
	}

	executionResult, executionError := detector.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitShowTopLevelFlagConstant},
		WorkingDirectory: detector.workingDirectory,
	})
	if executionError != nil {
		return detector.workingDirectory
	}

	trimmedRepositoryRoot := strings.TrimSpace(executionResult.StandardOutput)
	if len(trimmedRepositoryRoot) == 0 {
		return detector.workingDirectory
	}

	return trimmedRepositoryRoot
}

func (detector *Detector) describeVersion(executionContext context.Context, repositoryRoot string, describeArguments []string) string {
	executionResult, executionError := detector.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        describeArguments,
		WorkingDirectory: repositoryRoot,
	})
	if executionError != nil {
		return ""
	}

	return strings.TrimSpace(executionResult.StandardOutput)
}

func (detector *Detector) executeGit(executionContext context.Context, commandDetails execshell.CommandDetails) (execshell.ExecutionResult, error) {
	if detector.gitExecutor == nil {
		return execshell.ExecutionResult{}, errors.New(gitExecutorMissingMessageConstant)
	}

	environmentVariables := commandDetails.EnvironmentVariables
	if environmentVariables == nil {
		environmentVariables = map[string]string{}
	}
	environmentVariables[gitTerminalPromptEnvironmentNameConstant] = gitTerminalPromptEnvironmentValueConstant
	commandDetails.EnvironmentVariables = environmentVariables

	return detector.gitExecutor.ExecuteGit(executionContext, commandDetails)
}

type runtimeBuildInfoProvider struct{}

func (runtimeBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}

func newDefaultGitExecutor() (shared.GitExecutor, error) {
	shellExecutor, executorError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner(), false)
	if executorError != nil {
		return nil, executorError
	}
	return shellExecutor, nil
}
