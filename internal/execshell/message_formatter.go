package execshell

import (
	"fmt"
	"strings"
)

const (
	startedMessageTemplateConstant          = "Running %s"
	successMessageTemplateConstant          = "Completed %s"
	failureMessageTemplateConstant          = "%s exited with code %d"
	failureDetailMessageTemplateConstant    = "%s: %s"
	executionFailureMessageTemplateConstant = "Failed to run %s: %v"
	gitStatusSubcommandConstant             = "status"
	gitRevParseSubcommandConstant           = "rev-parse"
	gitRemoteSubcommandConstant             = "remote"
)

// CommandMessageFormatter renders human-readable command lifecycle messages.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command that is about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return fmt.Sprintf(startedMessageTemplateConstant, formatter.renderCommand(command))
}

// BuildSuccessMessage describes a command that completed successfully.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(successMessageTemplateConstant, formatter.renderCommand(command))
}

// BuildFailureMessage describes a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	failureMessage := fmt.Sprintf(failureMessageTemplateConstant, formatter.renderCommand(command), result.ExitCode)
	firstErrorLine := firstNonEmptyLine(result.StandardError)
	if len(firstErrorLine) == 0 {
		firstErrorLine = firstNonEmptyLine(result.StandardOutput)
	}
	if len(firstErrorLine) > 0 {
		failureMessage = fmt.Sprintf(failureDetailMessageTemplateConstant, failureMessage, firstErrorLine)
	}
	return failureMessage
}

// BuildExecutionFailureMessage describes a command the runner could not execute.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, cause error) string {
	return fmt.Sprintf(executionFailureMessageTemplateConstant, formatter.renderCommand(command), cause)
}

// shouldLogStartMessage suppresses start messages for quick repository queries.
func (formatter CommandMessageFormatter) shouldLogStartMessage(command ShellCommand) bool {
	if command.Name != CommandGit {
		return true
	}
	if len(command.Details.Arguments) == 0 {
		return true
	}
	switch command.Details.Arguments[0] {
	case gitStatusSubcommandConstant, gitRevParseSubcommandConstant, gitRemoteSubcommandConstant:
		return false
	default:
		return true
	}
}

func (formatter CommandMessageFormatter) renderCommand(command ShellCommand) string {
	renderedParts := append([]string{string(command.Name)}, command.Details.Arguments...)
	return strings.TrimSpace(strings.Join(renderedParts, " "))
}

func firstNonEmptyLine(content string) string {
	for _, contentLine := range strings.Split(content, "\n") {
		trimmedLine := strings.TrimSpace(contentLine)
		if len(trimmedLine) > 0 {
			return trimmedLine
		}
	}
	return ""
}
