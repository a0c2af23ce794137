package core

import "errors"

// Error codes for client-visible errors.
const (
	ErrCodeAlreadyJoined = "already_joined"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeInvalidStroke = "invalid_stroke"
	ErrCodeUnknownEvent  = "unknown_event"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrAlreadyJoined = errors.New("already joined")
	ErrNotJoined     = errors.New("not joined")
	ErrInvalidStroke = errors.New("invalid stroke")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
