package sweep_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/vanix/internal/sweep"
)

const (
	availableProfilePageConstant = `<html><body><p class="returnLink">Return to search</p></body></html>`
	claimedProfilePageConstant   = `<html><body><div class="profile_header"></div></body></html>`
	removedGroupPageConstant     = `<html><body><p class="returnLink">Return to search</p>This group has been removed</body></html>`
)

type recordingProfileHandler struct {
	requestMutex   sync.Mutex
	requestedPaths []string
	pageByPath     map[string]string
}

func (handler *recordingProfileHandler) ServeHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	handler.requestMutex.Lock()
	handler.requestedPaths = append(handler.requestedPaths, request.URL.Path)
	handler.requestMutex.Unlock()

	profilePage, pageKnown := handler.pageByPath[request.URL.Path]
	if !pageKnown {
		return
	}
	_, _ = responseWriter.Write([]byte(profilePage))
}

func (handler *recordingProfileHandler) paths() []string {
	handler.requestMutex.Lock()
	defer handler.requestMutex.Unlock()
	return append([]string(nil), handler.requestedPaths...)
}

func TestCheckAvailabilityKeepsAvailableNames(testInstance *testing.T) {
	profileHandler := &recordingProfileHandler{
		pageByPath: map[string]string{
			"/id/free":    availableProfilePageConstant,
			"/id/claimed": claimedProfilePageConstant,
			"/id/gone":    removedGroupPageConstant,
		},
	}
	profileServer := httptest.NewServer(profileHandler)
	defer profileServer.Close()

	availabilityChecker, constructionError := sweep.NewAvailabilityChecker(nil, profileServer.Client(), sweep.CheckerConfiguration{
		BaseURL:     profileServer.URL,
		WorkerCount: 2,
	})
	require.NoError(testInstance, constructionError)

	availableNames, checkError := availabilityChecker.CheckAvailability(
		context.Background(),
		sweep.EndpointID,
		[]string{"free", "claimed", "gone", "empty"},
	)
	require.NoError(testInstance, checkError)
	require.Equal(testInstance, []string{"free"}, availableNames)

	require.ElementsMatch(
		testInstance,
		[]string{"/id/free", "/id/claimed", "/id/gone", "/id/empty"},
		profileHandler.paths(),
	)
}

func TestCheckAvailabilityDropsTransportFailures(testInstance *testing.T) {
	unreachableServer := httptest.NewServer(http.NotFoundHandler())
	unreachableServer.Close()

	availabilityChecker, constructionError := sweep.NewAvailabilityChecker(nil, nil, sweep.CheckerConfiguration{
		BaseURL: unreachableServer.URL,
	})
	require.NoError(testInstance, constructionError)

	availableNames, checkError := availabilityChecker.CheckAvailability(
		context.Background(),
		sweep.EndpointGroups,
		[]string{"aa", "bb"},
	)
	require.NoError(testInstance, checkError)
	require.Empty(testInstance, availableNames)
}

func TestCheckAvailabilityReturnsNothingForEmptyCandidateList(testInstance *testing.T) {
	availabilityChecker, constructionError := sweep.NewAvailabilityChecker(nil, nil, sweep.CheckerConfiguration{})
	require.NoError(testInstance, constructionError)

	availableNames, checkError := availabilityChecker.CheckAvailability(context.Background(), sweep.EndpointID, nil)
	require.NoError(testInstance, checkError)
	require.Empty(testInstance, availableNames)
}

func TestCheckAvailabilityRequiresEndpoint(testInstance *testing.T) {
	availabilityChecker, constructionError := sweep.NewAvailabilityChecker(nil, nil, sweep.CheckerConfiguration{})
	require.NoError(testInstance, constructionError)

	_, checkError := availabilityChecker.CheckAvailability(context.Background(), sweep.Endpoint("   "), []string{"aa"})
	require.ErrorIs(testInstance, checkError, sweep.ErrEndpointRequired)
}

func TestCheckAvailabilityHonorsCancelledContext(testInstance *testing.T) {
	profileHandler := &recordingProfileHandler{pageByPath: map[string]string{}}
	profileServer := httptest.NewServer(profileHandler)
	defer profileServer.Close()

	availabilityChecker, constructionError := sweep.NewAvailabilityChecker(nil, profileServer.Client(), sweep.CheckerConfiguration{
		BaseURL: profileServer.URL,
	})
	require.NoError(testInstance, constructionError)

	cancelledContext, cancelExecution := context.WithCancel(context.Background())
	cancelExecution()

	_, checkError := availabilityChecker.CheckAvailability(cancelledContext, sweep.EndpointID, []string{"aa", "bb"})
	require.ErrorIs(testInstance, checkError, context.Canceled)
	require.Empty(testInstance, profileHandler.paths())
}
