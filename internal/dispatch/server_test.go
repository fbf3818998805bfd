package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tyemirov/vanix/internal/dispatch"
	"github.com/tyemirov/vanix/internal/workflow"
)

const (
	dispatchedJobNameConstant   = "uid-action"
	dispatchedRunIdentifier     = "4f4e7f92-4dc6-4f0d-9cde-3a9f6c9f1a77"
	healthEndpointConstant      = "/healthz"
	statusEndpointConstant      = "/api/v1/jobs/uid-action"
	dispatchEndpointConstant    = "/api/v1/jobs/uid-action/dispatch"
	unknownDispatchEndpoint     = "/api/v1/jobs/other-job/dispatch"
	unknownStatusEndpoint       = "/api/v1/jobs/other-job"
	internalFailureMessage      = "coordinator exploded"
	dispatchedReferenceConstant = "nightly"
)

func TestMain(testMain *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(testMain.Run())
}

type stubRunDispatcher struct {
	runIdentifier    string
	dispatchError    error
	lastSummary      *workflow.RunSummary
	runActive        bool
	recordedTriggers []workflow.Trigger
}

func (dispatcher *stubRunDispatcher) JobName() string {
	return dispatchedJobNameConstant
}

func (dispatcher *stubRunDispatcher) DispatchDetached(_ context.Context, runTrigger workflow.Trigger) (string, error) {
	dispatcher.recordedTriggers = append(dispatcher.recordedTriggers, runTrigger)
	if dispatcher.dispatchError != nil {
		return "", dispatcher.dispatchError
	}
	return dispatcher.runIdentifier, nil
}

func (dispatcher *stubRunDispatcher) LastSummary() (workflow.RunSummary, bool) {
	if dispatcher.lastSummary == nil {
		return workflow.RunSummary{}, false
	}
	return *dispatcher.lastSummary, true
}

func (dispatcher *stubRunDispatcher) RunActive() bool {
	return dispatcher.runActive
}

func newTestServer(testInstance *testing.T, dispatcherStub *stubRunDispatcher) *dispatch.Server {
	serverInstance, constructionError := dispatch.NewServer(dispatch.Dependencies{Dispatcher: dispatcherStub})
	require.NoError(testInstance, constructionError)
	return serverInstance
}

func TestNewServerValidatesDependencies(testInstance *testing.T) {
	serverInstance, constructionError := dispatch.NewServer(dispatch.Dependencies{})
	require.ErrorIs(testInstance, constructionError, dispatch.ErrDispatcherNotConfigured)
	require.Nil(testInstance, serverInstance)
}

func TestHealthEndpointReportsOK(testInstance *testing.T) {
	serverInstance := newTestServer(testInstance, &stubRunDispatcher{})

	request := httptest.NewRequest(http.MethodGet, healthEndpointConstant, nil)
	recorder := httptest.NewRecorder()
	serverInstance.Handler().ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusOK, recorder.Code)

	var healthBody struct {
		Status string `json:"status"`
	}
	require.NoError(testInstance, json.NewDecoder(recorder.Body).Decode(&healthBody))
	require.Equal(testInstance, "ok", healthBody.Status)
}

func TestDispatchEndpointStartsDetachedRun(testInstance *testing.T) {
	dispatcherStub := &stubRunDispatcher{runIdentifier: dispatchedRunIdentifier}
	serverInstance := newTestServer(testInstance, dispatcherStub)

	request := httptest.NewRequest(http.MethodPost, dispatchEndpointConstant, nil)
	recorder := httptest.NewRecorder()
	serverInstance.Handler().ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusAccepted, recorder.Code)

	var dispatchBody struct {
		RunIdentifier string `json:"run_id"`
		Job           string `json:"job"`
		Trigger       string `json:"trigger"`
	}
	require.NoError(testInstance, json.NewDecoder(recorder.Body).Decode(&dispatchBody))
	require.Equal(testInstance, dispatchedRunIdentifier, dispatchBody.RunIdentifier)
	require.Equal(testInstance, dispatchedJobNameConstant, dispatchBody.Job)
	require.Equal(testInstance, string(workflow.TriggerManual), dispatchBody.Trigger)

	require.Equal(testInstance, []workflow.Trigger{workflow.TriggerManual}, dispatcherStub.recordedTriggers)
}

func TestDispatchEndpointRejectsActiveRun(testInstance *testing.T) {
	dispatcherStub := &stubRunDispatcher{dispatchError: workflow.ErrRunActive}
	serverInstance := newTestServer(testInstance, dispatcherStub)

	request := httptest.NewRequest(http.MethodPost, dispatchEndpointConstant, nil)
	recorder := httptest.NewRecorder()
	serverInstance.Handler().ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusConflict, recorder.Code)

	var errorBody struct {
		Error string `json:"error"`
	}
	require.NoError(testInstance, json.NewDecoder(recorder.Body).Decode(&errorBody))
	require.NotEmpty(testInstance, errorBody.Error)
}

func TestDispatchEndpointRejectsUnknownJob(testInstance *testing.T) {
	dispatcherStub := &stubRunDispatcher{runIdentifier: dispatchedRunIdentifier}
	serverInstance := newTestServer(testInstance, dispatcherStub)

	request := httptest.NewRequest(http.MethodPost, unknownDispatchEndpoint, nil)
	recorder := httptest.NewRecorder()
	serverInstance.Handler().ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusNotFound, recorder.Code)
	require.Empty(testInstance, dispatcherStub.recordedTriggers)
}

func TestDispatchEndpointReportsDispatchFailures(testInstance *testing.T) {
	dispatcherStub := &stubRunDispatcher{dispatchError: errors.New(internalFailureMessage)}
	serverInstance := newTestServer(testInstance, dispatcherStub)

	request := httptest.NewRequest(http.MethodPost, dispatchEndpointConstant, nil)
	recorder := httptest.NewRecorder()
	serverInstance.Handler().ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusInternalServerError, recorder.Code)
}

func TestStatusEndpointReportsLastRun(testInstance *testing.T) {
	runStart := time.Date(2026, time.February, 11, 20, 59, 0, 0, time.UTC)
	dispatcherStub := &stubRunDispatcher{
		runActive: true,
		lastSummary: &workflow.RunSummary{
			RunIdentifier: dispatchedRunIdentifier,
			JobName:       dispatchedJobNameConstant,
			Trigger:       workflow.TriggerScheduled,
			StartedAt:     runStart,
			CompletedAt:   runStart.Add(90 * time.Second),
			State:         workflow.RunStateSucceeded,
			Steps: []workflow.StepRecord{
				{Name: workflow.StepNameCheckout, Status: workflow.StepStatusSucceeded, Detail: dispatchedReferenceConstant},
				{Name: workflow.StepNamePublish, Status: workflow.StepStatusSucceeded},
			},
		},
	}
	serverInstance := newTestServer(testInstance, dispatcherStub)

	request := httptest.NewRequest(http.MethodGet, statusEndpointConstant, nil)
	recorder := httptest.NewRecorder()
	serverInstance.Handler().ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusOK, recorder.Code)

	var statusBody struct {
		Job     string `json:"job"`
		Active  bool   `json:"active"`
		LastRun *struct {
			RunIdentifier string `json:"run_id"`
			Trigger       string `json:"trigger"`
			State         string `json:"state"`
			Steps         []struct {
				Name   string `json:"name"`
				Status string `json:"status"`
				Detail string `json:"detail"`
			} `json:"steps"`
		} `json:"last_run"`
	}
	require.NoError(testInstance, json.NewDecoder(recorder.Body).Decode(&statusBody))
	require.Equal(testInstance, dispatchedJobNameConstant, statusBody.Job)
	require.True(testInstance, statusBody.Active)
	require.NotNil(testInstance, statusBody.LastRun)
	require.Equal(testInstance, dispatchedRunIdentifier, statusBody.LastRun.RunIdentifier)
	require.Equal(testInstance, string(workflow.TriggerScheduled), statusBody.LastRun.Trigger)
	require.Equal(testInstance, string(workflow.RunStateSucceeded), statusBody.LastRun.State)
	require.Len(testInstance, statusBody.LastRun.Steps, 2)
	require.Equal(testInstance, dispatchedReferenceConstant, statusBody.LastRun.Steps[0].Detail)
}

func TestStatusEndpointBeforeFirstRun(testInstance *testing.T) {
	serverInstance := newTestServer(testInstance, &stubRunDispatcher{})

	request := httptest.NewRequest(http.MethodGet, statusEndpointConstant, nil)
	recorder := httptest.NewRecorder()
	serverInstance.Handler().ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusOK, recorder.Code)

	var statusBody map[string]any
	require.NoError(testInstance, json.NewDecoder(recorder.Body).Decode(&statusBody))
	require.Equal(testInstance, dispatchedJobNameConstant, statusBody["job"])
	require.Equal(testInstance, false, statusBody["active"])
	require.NotContains(testInstance, statusBody, "last_run")
}

type stubScheduleReporter struct {
	nextRun time.Time
	planned bool
}

func (reporter *stubScheduleReporter) NextRun() (time.Time, bool) {
	return reporter.nextRun, reporter.planned
}

func TestStatusEndpointReportsNextActivation(testInstance *testing.T) {
	nextActivation := time.Date(2026, time.February, 12, 20, 59, 0, 0, time.UTC)
	serverInstance, constructionError := dispatch.NewServer(dispatch.Dependencies{
		Dispatcher: &stubRunDispatcher{},
		Schedule:   &stubScheduleReporter{nextRun: nextActivation, planned: true},
	})
	require.NoError(testInstance, constructionError)

	request := httptest.NewRequest(http.MethodGet, statusEndpointConstant, nil)
	recorder := httptest.NewRecorder()
	serverInstance.Handler().ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusOK, recorder.Code)

	var statusBody struct {
		NextActivation *time.Time `json:"next_activation"`
	}
	require.NoError(testInstance, json.NewDecoder(recorder.Body).Decode(&statusBody))
	require.NotNil(testInstance, statusBody.NextActivation)
	require.True(testInstance, nextActivation.Equal(*statusBody.NextActivation))
}

var (
	_ dispatch.RunDispatcher    = (*stubRunDispatcher)(nil)
	_ dispatch.ScheduleReporter = (*stubScheduleReporter)(nil)
)

func TestStatusEndpointRejectsUnknownJob(testInstance *testing.T) {
	serverInstance := newTestServer(testInstance, &stubRunDispatcher{})

	request := httptest.NewRequest(http.MethodGet, unknownStatusEndpoint, nil)
	recorder := httptest.NewRecorder()
	serverInstance.Handler().ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusNotFound, recorder.Code)
}
