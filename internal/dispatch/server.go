// Package dispatch exposes manual job triggering and run status over HTTP.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tyemirov/vanix/internal/workflow"
)

const (
	dispatcherMissingMessageConstant = "run dispatcher not configured"
	unknownJobTemplateConstant       = "unknown job: %s"
	healthPathConstant               = "/healthz"
	jobStatusPathConstant            = "/api/v1/jobs/:name"
	jobDispatchPathConstant          = "/api/v1/jobs/:name/dispatch"
	jobNameParameterConstant         = "name"
	healthStatusValueConstant        = "ok"
	requestCompletedEventConstant    = "http_request_complete"
	methodFieldNameConstant          = "method"
	pathFieldNameConstant            = "path"
	statusFieldNameConstant          = "status"
	durationFieldNameConstant        = "duration"
)

// ErrDispatcherNotConfigured indicates the run dispatcher dependency was missing.
var ErrDispatcherNotConfigured = errors.New(dispatcherMissingMessageConstant)

// RunDispatcher starts detached runs and reports run state.
type RunDispatcher interface {
	JobName() string
	DispatchDetached(executionContext context.Context, runTrigger workflow.Trigger) (string, error)
	LastSummary() (workflow.RunSummary, bool)
	RunActive() bool
}

// ScheduleReporter reports the next scheduled activation when one is planned.
type ScheduleReporter interface {
	NextRun() (time.Time, bool)
}

// Dependencies enumerates the collaborators a Server needs.
type Dependencies struct {
	Dispatcher RunDispatcher
	Schedule   ScheduleReporter
	Logger     *zap.Logger
}

// Server routes job dispatch and status requests to the coordinator.
type Server struct {
	dispatcher RunDispatcher
	schedule   ScheduleReporter
	logger     *zap.Logger
	engine     *gin.Engine
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type dispatchResponse struct {
	RunIdentifier string `json:"run_id"`
	Job           string `json:"job"`
	Trigger       string `json:"trigger"`
}

type stepRecordResponse struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Duration string `json:"duration"`
	Detail   string `json:"detail,omitempty"`
}

type runSummaryResponse struct {
	RunIdentifier  string               `json:"run_id"`
	Trigger        string               `json:"trigger"`
	State          string               `json:"state"`
	StartedAt      time.Time            `json:"started_at"`
	CompletedAt    time.Time            `json:"completed_at"`
	Steps          []stepRecordResponse `json:"steps"`
	FailureMessage string               `json:"failure_message,omitempty"`
}

type jobStatusResponse struct {
	Job            string              `json:"job"`
	Active         bool                `json:"active"`
	NextActivation *time.Time          `json:"next_activation,omitempty"`
	LastRun        *runSummaryResponse `json:"last_run,omitempty"`
}

// NewServer constructs a Server from the provided dependencies.
func NewServer(dependencies Dependencies) (*Server, error) {
	if dependencies.Dispatcher == nil {
		return nil, ErrDispatcherNotConfigured
	}

	serverLogger := dependencies.Logger
	if serverLogger == nil {
		serverLogger = zap.NewNop()
	}

	serverInstance := &Server{
		dispatcher: dependencies.Dispatcher,
		schedule:   dependencies.Schedule,
		logger:     serverLogger,
	}

	engine := gin.New()
	engine.Use(serverInstance.requestLoggingMiddleware(), gin.Recovery())
	engine.GET(healthPathConstant, serverInstance.handleHealth)
	engine.GET(jobStatusPathConstant, serverInstance.handleJobStatus)
	engine.POST(jobDispatchPathConstant, serverInstance.handleJobDispatch)
	serverInstance.engine = engine

	return serverInstance, nil
}

// Handler exposes the configured HTTP routes.
func (server *Server) Handler() http.Handler {
	return server.engine
}

func (server *Server) requestLoggingMiddleware() gin.HandlerFunc {
	return func(requestContext *gin.Context) {
		requestStart := time.Now()
		requestContext.Next()
		server.logger.Info(
			requestCompletedEventConstant,
			zap.String(methodFieldNameConstant, requestContext.Request.Method),
			zap.String(pathFieldNameConstant, requestContext.Request.URL.Path),
			zap.Int(statusFieldNameConstant, requestContext.Writer.Status()),
			zap.Duration(durationFieldNameConstant, time.Since(requestStart)),
		)
	}
}

func (server *Server) handleHealth(requestContext *gin.Context) {
	requestContext.JSON(http.StatusOK, healthResponse{Status: healthStatusValueConstant})
}

func (server *Server) handleJobStatus(requestContext *gin.Context) {
	requestedJobName := requestContext.Param(jobNameParameterConstant)
	if !server.jobNameMatches(requestedJobName) {
		requestContext.JSON(http.StatusNotFound, errorResponse{Error: fmt.Sprintf(unknownJobTemplateConstant, requestedJobName)})
		return
	}

	statusResponse := jobStatusResponse{
		Job:    server.dispatcher.JobName(),
		Active: server.dispatcher.RunActive(),
	}
	if server.schedule != nil {
		if nextActivation, activationPlanned := server.schedule.NextRun(); activationPlanned {
			statusResponse.NextActivation = &nextActivation
		}
	}
	if lastSummary, summaryFound := server.dispatcher.LastSummary(); summaryFound {
		summaryResponse := buildRunSummaryResponse(lastSummary)
		statusResponse.LastRun = &summaryResponse
	}

	requestContext.JSON(http.StatusOK, statusResponse)
}

func (server *Server) handleJobDispatch(requestContext *gin.Context) {
	requestedJobName := requestContext.Param(jobNameParameterConstant)
	if !server.jobNameMatches(requestedJobName) {
		requestContext.JSON(http.StatusNotFound, errorResponse{Error: fmt.Sprintf(unknownJobTemplateConstant, requestedJobName)})
		return
	}

	runIdentifier, dispatchError := server.dispatcher.DispatchDetached(requestContext.Request.Context(), workflow.TriggerManual)
	if dispatchError != nil {
		if errors.Is(dispatchError, workflow.ErrRunActive) {
			requestContext.JSON(http.StatusConflict, errorResponse{Error: dispatchError.Error()})
			return
		}
		requestContext.JSON(http.StatusInternalServerError, errorResponse{Error: dispatchError.Error()})
		return
	}

	requestContext.JSON(http.StatusAccepted, dispatchResponse{
		RunIdentifier: runIdentifier,
		Job:           server.dispatcher.JobName(),
		Trigger:       string(workflow.TriggerManual),
	})
}

func (server *Server) jobNameMatches(requestedJobName string) bool {
	return strings.EqualFold(strings.TrimSpace(requestedJobName), server.dispatcher.JobName())
}

func buildRunSummaryResponse(summary workflow.RunSummary) runSummaryResponse {
	stepResponses := make([]stepRecordResponse, 0, len(summary.Steps))
	for _, stepRecord := range summary.Steps {
		stepResponses = append(stepResponses, stepRecordResponse{
			Name:     string(stepRecord.Name),
			Status:   string(stepRecord.Status),
			Duration: stepRecord.Duration.String(),
			Detail:   stepRecord.Detail,
		})
	}

	return runSummaryResponse{
		RunIdentifier:  summary.RunIdentifier,
		Trigger:        string(summary.Trigger),
		State:          string(summary.State),
		StartedAt:      summary.StartedAt,
		CompletedAt:    summary.CompletedAt,
		Steps:          stepResponses,
		FailureMessage: summary.FailureMessage,
	}
}
