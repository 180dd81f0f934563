package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrUnauthorized is returned for any HTTP 401 from the API. Callers treat it
// as "session invalid": the session manager refreshes once and retries, and a
// second 401 destroys the session.
var ErrUnauthorized = errors.New("api: unauthorized")

// Error is any non-2xx, non-401 response. Message carries the server-supplied
// detail message when the body had one.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (HTTP %d)", e.Message, e.Status)
}

// Client is a WorkflowAI API client.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Observe, when set, is called after every request with the endpoint
	// template and response status (0 on transport failure).
	Observe func(endpoint string, status int)
}

// NewClient creates a new WorkflowAI API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// request performs an HTTP request with a JSON body against the API. token is
// attached as a bearer Authorization header when non-empty.
func (c *Client) request(ctx context.Context, method, path, token string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.do(req, endpointTemplate(method, path), result)
}

// requestForm performs a form-encoded POST (the password login endpoint).
func (c *Client) requestForm(ctx context.Context, path string, form url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	return c.do(req, "POST "+path, result)
}

func (c *Client) do(req *http.Request, endpoint string, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, 0)
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	c.observe(endpoint, resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	if resp.StatusCode >= 400 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) observe(endpoint string, status int) {
	if c.Observe != nil {
		c.Observe(endpoint, status)
	}
}

// errorMessage extracts the API's detail message from an error body.
func errorMessage(resp *http.Response) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return "HTTP " + strconv.Itoa(resp.StatusCode)
}

// endpointTemplate collapses concrete IDs so the observer sees a bounded set
// of endpoint labels.
func endpointTemplate(method, path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if _, err := strconv.Atoi(p); err == nil {
			parts[i] = "{id}"
		}
	}
	return method + " " + strings.Join(parts, "/")
}

// Login exchanges email/password credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	form := url.Values{
		"username": {email},
		"password": {password},
	}
	var tok Token
	if err := c.requestForm(ctx, "/token", form, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Signup creates a new account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	var res SignupResult
	if err := c.request(ctx, http.MethodPost, "/users/", "", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ExchangeGoogleCode trades an OAuth authorization code for a token. The API
// owns the client secret and performs the provider exchange.
func (c *Client) ExchangeGoogleCode(ctx context.Context, code string) (*Token, error) {
	body := map[string]string{"code": code}
	var tok Token
	if err := c.request(ctx, http.MethodPost, "/auth/google/callback", "", body, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Refresh renews an expiring token.
func (c *Client) Refresh(ctx context.Context, token string) (*Token, error) {
	var tok Token
	if err := c.request(ctx, http.MethodPost, "/auth/refresh", token, nil, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Logout invalidates the token server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.request(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var u User
	if err := c.request(ctx, http.MethodGet, "/api/users/me", token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ChangePassword updates the authenticated user's password.
func (c *Client) ChangePassword(ctx context.Context, token string, req PasswordChangeRequest) error {
	return c.request(ctx, http.MethodPut, "/api/users/me/password", token, req, nil)
}

// ListWorkflows returns the user's workflows.
func (c *Client) ListWorkflows(ctx context.Context, token string) ([]Workflow, error) {
	var ws []Workflow
	if err := c.request(ctx, http.MethodGet, "/api/workflows/", token, nil, &ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// GetWorkflow returns one workflow by ID.
func (c *Client) GetWorkflow(ctx context.Context, token string, id int) (*Workflow, error) {
	var w Workflow
	if err := c.request(ctx, http.MethodGet, "/api/workflows/"+strconv.Itoa(id), token, nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWorkflow creates a new workflow.
func (c *Client) CreateWorkflow(ctx context.Context, token string, req WorkflowCreateRequest) (*Workflow, error) {
	var w Workflow
	if err := c.request(ctx, http.MethodPost, "/api/workflows/", token, req, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// UpdateWorkflow applies a partial update to a workflow.
func (c *Client) UpdateWorkflow(ctx context.Context, token string, id int, req WorkflowUpdateRequest) (*Workflow, error) {
	var w Workflow
	if err := c.request(ctx, http.MethodPut, "/api/workflows/"+strconv.Itoa(id), token, req, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// DeleteWorkflow deletes a workflow.
func (c *Client) DeleteWorkflow(ctx context.Context, token string, id int) error {
	return c.request(ctx, http.MethodDelete, "/api/workflows/"+strconv.Itoa(id), token, nil, nil)
}

// ListLogs returns the user's execution logs.
func (c *Client) ListLogs(ctx context.Context, token string) ([]ExecutionLog, error) {
	var logs []ExecutionLog
	if err := c.request(ctx, http.MethodGet, "/api/logs/", token, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ListTemplates returns the template gallery.
func (c *Client) ListTemplates(ctx context.Context, token string) ([]Template, error) {
	var ts []Template
	if err := c.request(ctx, http.MethodGet, "/api/templates/", token, nil, &ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// GetTemplate returns one template by ID.
func (c *Client) GetTemplate(ctx context.Context, token string, id int) (*Template, error) {
	var t Template
	if err := c.request(ctx, http.MethodGet, "/api/templates/"+strconv.Itoa(id), token, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
