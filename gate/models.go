package gate

// ValidateRequest is the JSON body for POST /auth/validate.
type ValidateRequest struct {
	Key string `json:"key"`
}

// ValidateResponse is returned from POST /auth/validate.
type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// LogoutResponse is returned from POST /auth/logout.
type LogoutResponse struct {
	Success bool `json:"success"`
}

const (
	msgInvalidRequest = "Invalid request"
	msgInvalidKey     = "Invalid API key"
)
