package model

// Response is the envelope every API response is wrapped in.
// Data is set on success, Message on failure.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Success wraps a payload in a success envelope.
func Success(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// Failure wraps a message in a failure envelope.
func Failure(message string) Response {
	return Response{Success: false, Message: message}
}
