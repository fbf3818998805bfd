// Package toolchain verifies that the runtime a job depends on is present at its pinned version.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/tyemirov/vanix/internal/execshell"
	"github.com/tyemirov/vanix/internal/steps/shared"
)

const (
	repositoryPathRequiredMessageConstant  = "repository path must be provided"
	toolNameRequiredMessageConstant        = "runtime tool name must be provided"
	pinnedVersionRequiredMessageConstant   = "pinned runtime version must be provided"
	toolExecutorMissingMessageConstant     = "tool executor not configured"
	versionNotDetectedMessageConstant      = "runtime version could not be detected"
	provisionFailureTemplateConstant       = "failed to provision runtime: %w"
	probeFailureTemplateConstant           = "failed to probe %s version: %w"
	invalidPinnedVersionTemplateConstant   = "pinned version %q is not a valid version"
	versionMismatchTemplateConstant        = "%s version %s does not satisfy pinned version %s"
	versionProbeFlagConstant               = "--version"
	versionPrefixConstant                  = "v"
	versionSegmentSeparatorConstant        = "."
	versionNotDetectedDetailTemplate       = "%w: %s"
	pinnedVersionMajorSegmentCountConstant = 0
	pinnedVersionMinorSegmentCountConstant = 1
)

var versionTokenExpression = regexp.MustCompile(`\d+(?:\.\d+)*`)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrToolNameRequired indicates the runtime tool name option was empty.
var ErrToolNameRequired = errors.New(toolNameRequiredMessageConstant)

// ErrPinnedVersionRequired indicates the pinned version option was empty.
var ErrPinnedVersionRequired = errors.New(pinnedVersionRequiredMessageConstant)

// ErrToolExecutorNotConfigured indicates the tool executor dependency was missing.
var ErrToolExecutorNotConfigured = errors.New(toolExecutorMissingMessageConstant)

// ErrVersionNotDetected indicates the probed runtime produced no recognizable version.
var ErrVersionNotDetected = errors.New(versionNotDetectedMessageConstant)

// VersionMismatchError reports a runtime whose detected version diverges from the pin.
type VersionMismatchError struct {
	ToolName        string
	PinnedVersion   string
	DetectedVersion string
}

// Error describes the version mismatch.
func (mismatchError VersionMismatchError) Error() string {
	return fmt.Sprintf(versionMismatchTemplateConstant, mismatchError.ToolName, mismatchError.DetectedVersion, mismatchError.PinnedVersion)
}

// Dependencies enumerates external collaborators required for runtime verification.
type Dependencies struct {
	ToolExecutor shared.ToolExecutor
}

// Options configures a runtime verification operation.
type Options struct {
	RepositoryPath string
	// ToolName names the runtime executable, for example python3.
	ToolName string
	// PinnedVersion holds the version the job expects. Precision controls the
	// comparison: "3" matches any 3.x, "3.12" matches any 3.12.x, "3.12.1"
	// matches exactly.
	PinnedVersion string
	// InstallCommand optionally provisions the runtime before probing.
	InstallCommand   string
	InstallArguments []string
}

// Result captures the verified runtime details.
type Result struct {
	ToolName        string
	DetectedVersion string
}

// Service verifies runtime availability and version pins.
type Service struct {
	toolExecutor shared.ToolExecutor
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.ToolExecutor == nil {
		return nil, ErrToolExecutorNotConfigured
	}
	return &Service{toolExecutor: dependencies.ToolExecutor}, nil
}

// Execute optionally provisions the runtime, probes its version, and enforces the pin.
func (service *Service) Execute(executionContext context.Context, options Options) (Result, error) {
	trimmedRepositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}

	trimmedToolName := strings.TrimSpace(options.ToolName)
	if len(trimmedToolName) == 0 {
		return Result{}, ErrToolNameRequired
	}

	trimmedPinnedVersion := strings.TrimSpace(options.PinnedVersion)
	if len(trimmedPinnedVersion) == 0 {
		return Result{}, ErrPinnedVersionRequired
	}

	normalizedPinnedVersion := ensureVersionPrefix(trimmedPinnedVersion)
	if !semver.IsValid(normalizedPinnedVersion) {
		return Result{}, fmt.Errorf(invalidPinnedVersionTemplateConstant, trimmedPinnedVersion)
	}

	trimmedInstallCommand := strings.TrimSpace(options.InstallCommand)
	if len(trimmedInstallCommand) > 0 {
		installToolName, installToolNameError := execshell.NewCommandName(trimmedInstallCommand)
		if installToolNameError != nil {
			return Result{}, installToolNameError
		}
		if _, installError := service.toolExecutor.ExecuteTool(executionContext, installToolName, execshell.CommandDetails{
			Arguments:        options.InstallArguments,
			WorkingDirectory: trimmedRepositoryPath,
		}); installError != nil {
			return Result{}, fmt.Errorf(provisionFailureTemplateConstant, installError)
		}
	}

	probeToolName, probeToolNameError := execshell.NewCommandName(trimmedToolName)
	if probeToolNameError != nil {
		return Result{}, probeToolNameError
	}
	probeResult, probeError := service.toolExecutor.ExecuteTool(executionContext, probeToolName, execshell.CommandDetails{
		Arguments:        []string{versionProbeFlagConstant},
		WorkingDirectory: trimmedRepositoryPath,
	})
	if probeError != nil {
		return Result{}, fmt.Errorf(probeFailureTemplateConstant, trimmedToolName, probeError)
	}

	detectedVersion := extractVersionToken(probeResult.StandardOutput)
	if len(detectedVersion) == 0 {
		detectedVersion = extractVersionToken(probeResult.StandardError)
	}
	if len(detectedVersion) == 0 {
		return Result{}, fmt.Errorf(versionNotDetectedDetailTemplate, ErrVersionNotDetected, trimmedToolName)
	}

	if !pinSatisfied(trimmedPinnedVersion, detectedVersion) {
		return Result{}, VersionMismatchError{
			ToolName:        trimmedToolName,
			PinnedVersion:   trimmedPinnedVersion,
			DetectedVersion: detectedVersion,
		}
	}

	return Result{ToolName: trimmedToolName, DetectedVersion: detectedVersion}, nil
}

func extractVersionToken(probeOutput string) string {
	return versionTokenExpression.FindString(probeOutput)
}

func pinSatisfied(pinnedVersion string, detectedVersion string) bool {
	normalizedPinned := ensureVersionPrefix(pinnedVersion)
	normalizedDetected := ensureVersionPrefix(detectedVersion)
	if !semver.IsValid(normalizedDetected) {
		return false
	}

	switch strings.Count(pinnedVersion, versionSegmentSeparatorConstant) {
	case pinnedVersionMajorSegmentCountConstant:
		return semver.Major(normalizedDetected) == semver.Major(normalizedPinned)
	case pinnedVersionMinorSegmentCountConstant:
		return semver.MajorMinor(normalizedDetected) == semver.MajorMinor(normalizedPinned)
	default:
		return semver.Compare(semver.Canonical(normalizedDetected), semver.Canonical(normalizedPinned)) == 0
	}
}

func ensureVersionPrefix(versionValue string) string {
	trimmedVersion := strings.TrimSpace(versionValue)
	if strings.HasPrefix(trimmedVersion, versionPrefixConstant) {
		return trimmedVersion
	}
	return versionPrefixConstant + trimmedVersion
}
