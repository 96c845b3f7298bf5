package models

// MessageFields are the user-supplied inputs of one submission.
// Message takes precedence; DeveloperMessage and UserMessage are the
// split form composed into a single message by the request builder.
type MessageFields struct {
	Message          string
	DeveloperMessage string
	UserMessage      string
}

// ChatRequest is the JSON payload posted to the chat endpoint
type ChatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
	Stream  bool   `json:"stream,omitempty"`
}
