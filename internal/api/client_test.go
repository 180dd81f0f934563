package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		if r.PostFormValue("username") != "user@example.com" || r.PostFormValue("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(Token{AccessToken: "tok-1", TokenType: "bearer"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)

	tok, err := c.Login(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.AccessToken)

	_, err = c.Login(context.Background(), "user@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestBearerTokenAttached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]Workflow{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.ListWorkflows(context.Background(), "tok-1")
	require.NoError(t, err)
}

func TestUnauthorizedSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)

	_, err := c.ListWorkflows(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.Me(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestErrorDetailMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Email already registered"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.Signup(context.Background(), SignupRequest{Email: "a@b.c", Username: "a", Password: "x"})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Email already registered", apiErr.Message)
}

func TestErrorWithoutDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.ListLogs(context.Background(), "tok")

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "HTTP 500", apiErr.Message)
}

func TestTransportFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)

	_, err := c.ListWorkflows(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestWorkflowCRUDPaths(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		json.NewEncoder(w).Encode(Workflow{ID: 7, Name: "wf"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	_, err := c.GetWorkflow(ctx, "tok", 7)
	require.NoError(t, err)
	assert.Equal(t, "GET", gotMethod)
	assert.Equal(t, "/api/workflows/7", gotPath)

	active := true
	_, err = c.UpdateWorkflow(ctx, "tok", 7, WorkflowUpdateRequest{IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, "PUT", gotMethod)
	assert.Equal(t, "/api/workflows/7", gotPath)

	require.NoError(t, c.DeleteWorkflow(ctx, "tok", 7))
	assert.Equal(t, "DELETE", gotMethod)

	_, err = c.CreateWorkflow(ctx, "tok", WorkflowCreateRequest{Name: "wf"})
	require.NoError(t, err)
	assert.Equal(t, "POST", gotMethod)
	assert.Equal(t, "/api/workflows/", gotPath)
}

func TestPartialUpdateBody(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(Workflow{ID: 3})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)

	active := false
	_, err := c.UpdateWorkflow(context.Background(), "tok", 3, WorkflowUpdateRequest{IsActive: &active})
	require.NoError(t, err)

	// Only the toggled field crosses the wire.
	assert.Equal(t, map[string]any{"is_active": false}, body)
}

func TestObserve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/logs/" {
			json.NewEncoder(w).Encode([]ExecutionLog{})
			return
		}
		json.NewEncoder(w).Encode(Workflow{ID: 42})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)

	var endpoint string
	var status int
	c.Observe = func(e string, s int) { endpoint, status = e, s }

	_, err := c.ListLogs(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "GET /api/logs/", endpoint)
	assert.Equal(t, http.StatusOK, status)

	_, err = c.GetWorkflow(context.Background(), "tok", 42)
	require.NoError(t, err)
	assert.Equal(t, "GET /api/workflows/{id}", endpoint)
}
