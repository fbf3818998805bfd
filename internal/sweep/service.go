package sweep

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	// DefaultDataDirectoryConstant is where standalone sweeps keep their lists.
	DefaultDataDirectoryConstant = "data"
	// DefaultOutputFileNameConstant receives available names from standalone sweeps.
	DefaultOutputFileNameConstant = "Available.txt"
	// DefaultInputFileNameConstant feeds candidates into file-based sweeps.
	DefaultInputFileNameConstant = "Checkable.txt"

	workflowIdentifierListFileNameConstant  = "gh#u-id.txt"
	workflowGroupListFileNameConstant       = "gh#u-groups.txt"
	workflowIdentifierMinimumLengthConstant = 3
	workflowIdentifierMaximumLengthConstant = 3
	workflowGroupMinimumLengthConstant      = 2
	workflowGroupMaximumLengthConstant      = 3
	workspaceFallbackPathConstant           = "."

	checkerMissingMessageConstant     = "availability checker must be configured"
	outputPathRequiredMessageConstant = "output file path must be provided"
	sweepStartedEventConstant         = "sweep_started"
	sweepCompleteEventConstant        = "sweep_complete"
	minimumLengthFieldNameConstant    = "minimum_length"
	maximumLengthFieldNameConstant    = "maximum_length"
	inputPathFieldNameConstant        = "input_path"
	outputPathFieldNameConstant       = "output_path"
)

// ErrCheckerNotConfigured indicates the availability checker dependency was missing.
var ErrCheckerNotConfigured = errors.New(checkerMissingMessageConstant)

// ErrOutputPathRequired indicates a sweep without an output file path.
var ErrOutputPathRequired = errors.New(outputPathRequiredMessageConstant)

// CandidateChecker probes candidate names for availability.
type CandidateChecker interface {
	CheckAvailability(executionContext context.Context, endpoint Endpoint, candidateNames []string) ([]string, error)
}

// ServiceDependencies enumerates the collaborators a Service requires.
type ServiceDependencies struct {
	Checker CandidateChecker
	Logger  *zap.Logger
}

// Options configure one sweep pass. Candidates come from the input file when
// InputFilePath is set and from length-bounded generation otherwise.
type Options struct {
	Endpoint       Endpoint
	MinimumLength  int
	MaximumLength  int
	Pattern        string
	InputFilePath  string
	OutputFilePath string
}

// Result summarizes one sweep pass.
type Result struct {
	CandidateCount int
	AvailableCount int
	OutputFilePath string
}

// Service runs generate, check, and save passes over one endpoint at a time.
type Service struct {
	checker CandidateChecker
	logger  *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Checker == nil {
		return nil, ErrCheckerNotConfigured
	}

	serviceLogger := dependencies.Logger
	if serviceLogger == nil {
		serviceLogger = zap.NewNop()
	}

	return &Service{checker: dependencies.Checker, logger: serviceLogger}, nil
}

// Run performs one sweep pass and writes the available names to the output file.
func (service *Service) Run(executionContext context.Context, options Options) (Result, error) {
	trimmedOutputPath := strings.TrimSpace(options.OutputFilePath)
	if len(trimmedOutputPath) == 0 {
		return Result{}, ErrOutputPathRequired
	}

	trimmedInputPath := strings.TrimSpace(options.InputFilePath)

	service.logger.Info(
		sweepStartedEventConstant,
		zap.String(endpointFieldNameConstant, string(options.Endpoint)),
		zap.Int(minimumLengthFieldNameConstant, options.MinimumLength),
		zap.Int(maximumLengthFieldNameConstant, options.MaximumLength),
		zap.String(inputPathFieldNameConstant, trimmedInputPath),
		zap.String(outputPathFieldNameConstant, trimmedOutputPath),
	)

	var candidateNames []string
	var candidateError error
	if len(trimmedInputPath) > 0 {
		candidateNames, candidateError = LoadNames(trimmedInputPath)
	} else {
		candidateNames, candidateError = GenerateCandidates(GeneratorOptions{
			MinimumLength: options.MinimumLength,
			MaximumLength: options.MaximumLength,
			Pattern:       options.Pattern,
		})
	}
	if candidateError != nil {
		return Result{}, candidateError
	}

	availableNames, checkError := service.checker.CheckAvailability(executionContext, options.Endpoint, candidateNames)
	if checkError != nil {
		return Result{}, checkError
	}

	if saveError := SaveNames(trimmedOutputPath, availableNames); saveError != nil {
		return Result{}, saveError
	}

	sweepResult := Result{
		CandidateCount: len(candidateNames),
		AvailableCount: len(availableNames),
		OutputFilePath: trimmedOutputPath,
	}

	service.logger.Info(
		sweepCompleteEventConstant,
		zap.String(endpointFieldNameConstant, string(options.Endpoint)),
		zap.Int(candidateCountFieldNameConstant, sweepResult.CandidateCount),
		zap.Int(availableCountFieldNameConstant, sweepResult.AvailableCount),
		zap.String(outputPathFieldNameConstant, sweepResult.OutputFilePath),
	)

	return sweepResult, nil
}

// RunWorkflowAction performs the nightly refresh: vanity ids of length 3 to
// the id list file, then group names of lengths 2 through 3 to the group
// list file, both relative to the workspace path.
func (service *Service) RunWorkflowAction(executionContext context.Context, workspacePath string) error {
	trimmedWorkspacePath := strings.TrimSpace(workspacePath)
	if len(trimmedWorkspacePath) == 0 {
		trimmedWorkspacePath = workspaceFallbackPathConstant
	}

	workflowPasses := []Options{
		{
			Endpoint:       EndpointID,
			MinimumLength:  workflowIdentifierMinimumLengthConstant,
			MaximumLength:  workflowIdentifierMaximumLengthConstant,
			OutputFilePath: filepath.Join(trimmedWorkspacePath, workflowIdentifierListFileNameConstant),
		},
		{
			Endpoint:       EndpointGroups,
			MinimumLength:  workflowGroupMinimumLengthConstant,
			MaximumLength:  workflowGroupMaximumLengthConstant,
			OutputFilePath: filepath.Join(trimmedWorkspacePath, workflowGroupListFileNameConstant),
		},
	}

	for _, workflowPass := range workflowPasses {
		if _, runError := service.Run(executionContext, workflowPass); runError != nil {
			return runError
		}
	}

	return nil
}
