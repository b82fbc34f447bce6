package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalidInput          ErrorCode = "INVALID_INPUT"
	ErrorGenerationUnavailable ErrorCode = "GENERATION_UNAVAILABLE"
	ErrorPublish               ErrorCode = "PUBLISH_ERROR"
)

const (
	ReasonEmpty          = "empty"
	ReasonTooLong        = "too-long"
	ReasonInvalidRequest = "invalid_request"

	ReasonGeneratorNotConfigured = "generator_not_configured"
	ReasonGenerationFailed       = "generation_failed"
	ReasonEmptyOutput            = "empty_output"

	ReasonPublishFailed = "publish_failed"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Message is the caller-facing description of the failure.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	switch e.Reason {
	case ReasonEmpty:
		return "tweet text is empty"
	case ReasonTooLong:
		return fmt.Sprintf("tweet exceeds %d characters", MaxPostLength)
	case ReasonGeneratorNotConfigured:
		return "no model configured: set OPENAI_API_KEY or AGENT_URL"
	case ReasonEmptyOutput:
		return "model returned empty output"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf returns the usecase error code carried by err, if any.
func CodeOf(err error) (ErrorCode, bool) {
	var ue *Error
	if !errors.As(err, &ue) {
		return "", false
	}
	return ue.Code, true
}
