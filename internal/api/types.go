package api

// Token is returned by the password login, code exchange and refresh
// endpoints.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// User is the authenticated account as reported by GET /api/users/me.
type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	IsActive bool   `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
}

// Workflow is a user-defined automation record. The engine workflow ID refers
// to the external execution engine and is owned by the API.
type Workflow struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	EngineWorkflowID string `json:"engine_workflow_id"`
	IsActive         bool   `json:"is_active"`
	OwnerID          int    `json:"owner_id"`
}

// ExecutionLog records the outcome of one past workflow run. Read-only.
type ExecutionLog struct {
	ID            int    `json:"id"`
	WorkflowID    int    `json:"workflow_id"`
	Status        string `json:"status"` // success, error, warning
	ExecutionTime string `json:"execution_time"`
	Details       string `json:"details"`
}

// Template is a reusable workflow blueprint. Read-only; "using" one creates
// a new Workflow.
type Template struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	EngineWorkflowID string `json:"engine_workflow_id"`
}

// SignupRequest creates a new account via POST /users/.
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupResult carries the optional token some API revisions return on
// signup. When AccessToken is empty the caller is expected to log in.
type SignupResult struct {
	AccessToken string `json:"access_token"`
}

// WorkflowCreateRequest creates a new workflow.
type WorkflowCreateRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	EngineWorkflowID string `json:"engine_workflow_id"`
}

// WorkflowUpdateRequest carries a partial update; nil fields are left
// untouched by the API.
type WorkflowUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// PasswordChangeRequest updates the current user's password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
