package dto

// FunctionResponse is the success body of the per-family function
// endpoints. A honeypot hit receives the same body.
type FunctionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FunctionError is the failure body of the function endpoints.
type FunctionError struct {
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	ResetIn int               `json:"reset_in,omitempty"`
}

// SubmissionResult is the response contract of POST /api/submissions.
type SubmissionResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
