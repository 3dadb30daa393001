package forumsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/forum/pkg/httpx"
)

// APIError is the error body every endpoint returns on failure. It is
// written by the server and decoded by the client.
type APIError struct {
	// Code is the HTTP status code.
	Code int `json:"code"`

	// Status is the HTTP reason phrase, e.g. "Conflict".
	Status string `json:"status"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Errors holds per-field validation messages.
	Errors map[string]string `json:"errors,omitempty"`
}

// NewAPIError builds an APIError for the given HTTP status.
func NewAPIError(code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Status:  http.StatusText(code),
		Message: message,
	}
}

// NewValidationError is a 400 carrying per-field messages.
func NewValidationError(fields map[string]string) *APIError {
	e := NewAPIError(http.StatusBadRequest, "Request validation failed")
	e.Errors = fields
	return e
}

func (e *APIError) Error() string {
	return fmt.Sprintf("forum: %d %s: %s", e.Code, e.Status, e.Message)
}

// WriteError writes the error as the response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.Code, e)
}

// parseErrorResponse turns a non-2xx response into an *APIError, falling
// back to the status line when the body is not an error document.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		apiErr.Code = resp.StatusCode
		if apiErr.Status == "" {
			apiErr.Status = http.StatusText(resp.StatusCode)
		}
		return &apiErr
	}
	return NewAPIError(resp.StatusCode, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
}
