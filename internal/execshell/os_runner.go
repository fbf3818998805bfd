package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

const environmentAssignmentTemplateConstant = "%s=%s"

// OSCommandRunner executes shell commands using the operating system process API.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs an OSCommandRunner instance.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes the command and captures its output streams.
//
// Non-zero exit codes are reported through ExecutionResult rather than an
// error; errors are reserved for commands that could not be started.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	executableCommand := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	if len(command.Details.WorkingDirectory) > 0 {
		executableCommand.Dir = command.Details.WorkingDirectory
	}
	if len(command.Details.EnvironmentVariables) > 0 {
		mergedEnvironment := os.Environ()
		for environmentName, environmentValue := range command.Details.EnvironmentVariables {
			mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentName, environmentValue))
		}
		executableCommand.Env = mergedEnvironment
	}
	if len(command.Details.StandardInput) > 0 {
		executableCommand.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	standardOutputBuffer := bytes.Buffer{}
	standardErrorBuffer := bytes.Buffer{}
	executableCommand.Stdout = &standardOutputBuffer
	executableCommand.Stderr = &standardErrorBuffer

	runError := executableCommand.Run()
	executionResult := ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
	}
	if runError != nil {
		var exitError *exec.ExitError
		if errors.As(runError, &exitError) {
			executionResult.ExitCode = exitError.ExitCode()
			return executionResult, nil
		}
		return executionResult, runError
	}

	return executionResult, nil
}
