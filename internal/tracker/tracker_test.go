package tracker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTracker records calls and fails on demand.
type fakeTracker struct {
	healthy    bool
	failCalls  bool
	statusByID map[int]Status
	projects   []string
}

func newFakeTracker(healthy bool) *fakeTracker {
	return &fakeTracker{healthy: healthy, statusByID: map[int]Status{}}
}

func (f *fakeTracker) HealthCheck(ctx context.Context) bool {
	return f.healthy
}

func (f *fakeTracker) CreateProject(ctx context.Context, title string) (string, error) {
	if f.failCalls {
		return "", errors.New("tracker down")
	}
	f.projects = append(f.projects, title)
	return "proj-1", nil
}

func (f *fakeTracker) SetStatus(ctx context.Context, taskID int, status Status) error {
	if f.failCalls {
		return errors.New("tracker down")
	}
	f.statusByID[taskID] = status
	return nil
}

func TestAdapter_HealthyTrackerMirrorsCalls(t *testing.T) {
	ft := newFakeTracker(true)
	adapter := NewAdapter(context.Background(), ft, nil)

	require.True(t, adapter.Available())

	id := adapter.CreateProject(context.Background(), "user auth")
	assert.Equal(t, "proj-1", id)

	adapter.SetStatus(context.Background(), 3, StatusDoing)
	assert.Equal(t, StatusDoing, ft.statusByID[3])
}

func TestAdapter_FailedHealthCheckDegradesToNoop(t *testing.T) {
	ft := newFakeTracker(false)
	adapter := NewAdapter(context.Background(), ft, nil)

	assert.False(t, adapter.Available())

	// No call must reach the tracker or raise.
	assert.Empty(t, adapter.CreateProject(context.Background(), "ignored"))
	adapter.SetStatus(context.Background(), 1, StatusDone)
	assert.Empty(t, ft.statusByID)
	assert.Empty(t, ft.projects)
}

func TestAdapter_NilTrackerIsDegraded(t *testing.T) {
	adapter := NewAdapter(context.Background(), nil, nil)

	assert.False(t, adapter.Available())
	adapter.SetStatus(context.Background(), 1, StatusDoing)
}

func TestAdapter_CallFailuresAreSilent(t *testing.T) {
	ft := newFakeTracker(true)
	adapter := NewAdapter(context.Background(), ft, nil)
	ft.failCalls = true

	// Neither call may panic or surface an error.
	assert.Empty(t, adapter.CreateProject(context.Background(), "x"))
	adapter.SetStatus(context.Background(), 2, StatusDone)
}

func TestClient_HealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient(&ClientConfig{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	assert.True(t, client.HealthCheck(context.Background()))
}

func TestClient_HealthCheckUnreachable(t *testing.T) {
	client, err := NewClient(&ClientConfig{BaseURL: "http://127.0.0.1:1"}, nil)
	require.NoError(t, err)

	assert.False(t, client.HealthCheck(context.Background()))
}

func TestClient_CreateProjectAndSetStatus(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		switch {
		case r.URL.Path == "/projects":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"proj-42"}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	client, err := NewClient(&ClientConfig{BaseURL: srv.URL, RequestsPerSecond: 100}, nil)
	require.NoError(t, err)

	id, err := client.CreateProject(context.Background(), "billing prp")
	require.NoError(t, err)
	assert.Equal(t, "proj-42", id)

	require.NoError(t, client.SetStatus(context.Background(), 7, StatusDone))
	assert.Equal(t, "/tasks/7/status", gotPath)
	assert.Equal(t, http.MethodPut, gotMethod)
}

func TestClient_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(&ClientConfig{BaseURL: srv.URL, RequestsPerSecond: 100}, nil)
	require.NoError(t, err)

	err = client.SetStatus(context.Background(), 1, StatusDoing)
	assert.ErrorContains(t, err, "500")
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(&ClientConfig{}, nil)
	assert.Error(t, err)
}
