package models

type ErrorCode string

const (
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeInternal     ErrorCode = "INTERNAL"
)

// EventError is the failure shape relayed to the invoking connection as
// an `error` event. Handlers never let failures escape past it.
type EventError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *EventError) Error() string {
	return e.Message
}

func unauthorizedError(msg string) *EventError {
	return &EventError{Code: CodeUnauthorized, Message: msg}
}

func notFoundError(msg string) *EventError {
	return &EventError{Code: CodeNotFound, Message: msg}
}

func conflictError(msg string) *EventError {
	return &EventError{Code: CodeConflict, Message: msg}
}

// AsEventError converts any error into an EventError, treating unknown
// failures as transient infrastructure errors.
func AsEventError(err error) *EventError {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EventError); ok {
		return ee
	}
	return &EventError{Code: CodeInternal, Message: "internal server error"}
}
