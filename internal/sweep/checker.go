package sweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	defaultBaseURLConstant          = "https://steamcommunity.com"
	defaultWorkerCountConstant      = 8
	candidateURLTemplateConstant    = "%s/%s/%s"
	availabilityMarkerConstant      = `<p class="returnLink">`
	removedGroupMarkerConstant      = "This group has been removed"
	endpointRequiredMessageConstant = "endpoint must be provided"
	checkStartedEventConstant       = "availability_check_started"
	checkCompleteEventConstant      = "availability_check_complete"
	candidateDroppedEventConstant   = "candidate_check_dropped"
	candidateAvailableEventConstant = "candidate_available"
	endpointFieldNameConstant       = "endpoint"
	candidateFieldNameConstant      = "candidate"
	candidateCountFieldNameConstant = "candidate_count"
	workerCountFieldNameConstant    = "worker_count"
	availableCountFieldNameConstant = "available_count"
)

// ErrEndpointRequired indicates a blank sweep endpoint.
var ErrEndpointRequired = errors.New(endpointRequiredMessageConstant)

// Endpoint selects which community profile namespace a sweep probes.
type Endpoint string

const (
	// EndpointID probes the /id/ vanity profile namespace.
	EndpointID Endpoint = "id"
	// EndpointGroups probes the /groups/ namespace.
	EndpointGroups Endpoint = "groups"
)

// HTTPClient abstracts the Do method of http.Client for easier testing.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// CheckerConfiguration specifies HTTP behavior for the availability checker.
type CheckerConfiguration struct {
	BaseURL     string
	WorkerCount int
}

// AvailabilityChecker probes candidate names against the community site on a
// bounded worker pool. A name counts as available when the response body is
// non-empty, carries the return link marker, and does not announce a removed
// group. Candidates whose probe fails in transport are dropped silently.
type AvailabilityChecker struct {
	logger      *zap.Logger
	httpClient  HTTPClient
	baseURL     string
	workerCount int
}

// NewAvailabilityChecker constructs a checker with sane defaults.
func NewAvailabilityChecker(logger *zap.Logger, httpClient HTTPClient, configuration CheckerConfiguration) (*AvailabilityChecker, error) {
	resolvedLogger := logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}

	resolvedClient := httpClient
	if resolvedClient == nil {
		resolvedClient = http.DefaultClient
	}

	resolvedBaseURL := strings.TrimSpace(configuration.BaseURL)
	if len(resolvedBaseURL) == 0 {
		resolvedBaseURL = defaultBaseURLConstant
	}

	resolvedWorkerCount := configuration.WorkerCount
	if resolvedWorkerCount <= 0 {
		resolvedWorkerCount = defaultWorkerCountConstant
	}

	return &AvailabilityChecker{
		logger:      resolvedLogger,
		httpClient:  resolvedClient,
		baseURL:     resolvedBaseURL,
		workerCount: resolvedWorkerCount,
	}, nil
}

// CheckAvailability probes every candidate against the endpoint and returns
// the available names. The returned order follows probe completion; callers
// that need determinism sort on save.
func (checker *AvailabilityChecker) CheckAvailability(executionContext context.Context, endpoint Endpoint, candidateNames []string) ([]string, error) {
	trimmedEndpoint := strings.TrimSpace(string(endpoint))
	if len(trimmedEndpoint) == 0 {
		return nil, ErrEndpointRequired
	}
	if len(candidateNames) == 0 {
		return nil, nil
	}

	poolWidth := checker.workerCount
	if poolWidth > len(candidateNames) {
		poolWidth = len(candidateNames)
	}

	checker.logger.Info(
		checkStartedEventConstant,
		zap.String(endpointFieldNameConstant, trimmedEndpoint),
		zap.Int(candidateCountFieldNameConstant, len(candidateNames)),
		zap.Int(workerCountFieldNameConstant, poolWidth),
	)

	candidateQueue := make(chan string)
	var resultMutex sync.Mutex
	var availableNames []string

	var workerGroup sync.WaitGroup
	for workerIndex := 0; workerIndex < poolWidth; workerIndex++ {
		workerGroup.Add(1)
		go func() {
			defer workerGroup.Done()
			for candidateName := range candidateQueue {
				if executionContext.Err() != nil {
					continue
				}
				if checker.candidateAvailable(executionContext, trimmedEndpoint, candidateName) {
					resultMutex.Lock()
					availableNames = append(availableNames, candidateName)
					resultMutex.Unlock()
				}
			}
		}()
	}

	for _, candidateName := range candidateNames {
		candidateQueue <- candidateName
	}
	close(candidateQueue)
	workerGroup.Wait()

	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}

	checker.logger.Info(
		checkCompleteEventConstant,
		zap.String(endpointFieldNameConstant, trimmedEndpoint),
		zap.Int(availableCountFieldNameConstant, len(availableNames)),
	)

	return availableNames, nil
}

func (checker *AvailabilityChecker) candidateAvailable(executionContext context.Context, endpoint string, candidateName string) bool {
	candidateURL := fmt.Sprintf(candidateURLTemplateConstant, checker.baseURL, endpoint, candidateName)

	candidateRequest, requestCreationError := http.NewRequestWithContext(executionContext, http.MethodGet, candidateURL, nil)
	if requestCreationError != nil {
		checker.logger.Debug(candidateDroppedEventConstant, zap.String(candidateFieldNameConstant, candidateName), zap.Error(requestCreationError))
		return false
	}

	candidateResponse, requestError := checker.httpClient.Do(candidateRequest)
	if requestError != nil {
		checker.logger.Debug(candidateDroppedEventConstant, zap.String(candidateFieldNameConstant, candidateName), zap.Error(requestError))
		return false
	}
	defer candidateResponse.Body.Close()

	responseBody, readError := io.ReadAll(candidateResponse.Body)
	if readError != nil {
		checker.logger.Debug(candidateDroppedEventConstant, zap.String(candidateFieldNameConstant, candidateName), zap.Error(readError))
		return false
	}

	responseContent := string(responseBody)
	if len(responseContent) == 0 {
		return false
	}
	if !strings.Contains(responseContent, availabilityMarkerConstant) {
		return false
	}
	if strings.Contains(responseContent, removedGroupMarkerConstant) {
		return false
	}

	checker.logger.Debug(candidateAvailableEventConstant, zap.String(candidateFieldNameConstant, candidateName))
	return true
}
