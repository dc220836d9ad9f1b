package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure so the HTTP layer can pick a status code.
type ErrorKind string

const (
	ErrKindValidation    ErrorKind = "validation"
	ErrKindDelivery      ErrorKind = "delivery"
	ErrKindTransport     ErrorKind = "transport"
	ErrKindTranscription ErrorKind = "transcription"
)

// Error is the error type returned by the relay and transcription services.
// Message is what callers see in the response body.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind. A target with a Message only
// matches errors carrying the same message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// StatusCode maps the error kind to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case ErrKindValidation, ErrKindDelivery:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var (
	ErrTextRequired       = &Error{Kind: ErrKindValidation, Message: "Text required"}
	ErrWebhookURLRequired = &Error{Kind: ErrKindValidation, Message: "Webhook URL required"}
	ErrInvalidBody        = &Error{Kind: ErrKindValidation, Message: "Invalid request body"}
	ErrNoFileUploaded     = &Error{Kind: ErrKindValidation, Message: "No file uploaded"}
	ErrNoFileSelected     = &Error{Kind: ErrKindValidation, Message: "No file selected"}
)

const deliveryFailedMessage = "Failed to send message to Slack"

// NewDeliveryError reports that the webhook answered with a non-2xx status.
func NewDeliveryError(statusCode int) *Error {
	return &Error{
		Kind:    ErrKindDelivery,
		Message: deliveryFailedMessage,
		Err:     fmt.Errorf("webhook returned status %d", statusCode),
	}
}

// NewTransportError wraps a failure to reach the webhook. The cause text is
// surfaced to the caller.
func NewTransportError(err error) *Error {
	return &Error{Kind: ErrKindTransport, Message: err.Error(), Err: err}
}

// NewTranscriptionError wraps a failure raised while producing a transcript.
func NewTranscriptionError(err error) *Error {
	return &Error{Kind: ErrKindTranscription, Message: err.Error(), Err: err}
}

// HTTPStatus returns the status code for err. Errors that are not *Error
// are treated as internal failures.
func HTTPStatus(err error) int {
	var de *Error
	if errors.As(err, &de) {
		return de.StatusCode()
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
