package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or structure
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop the job
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Sentinel errors for the generation pipeline
var (
	// ErrUnsupportedComponentKind indicates an IR entry whose type string
	// cannot be resolved to a canonical component kind.
	ErrUnsupportedComponentKind = errors.New("unsupported component kind")

	// ErrAIInvocation indicates the AI provider call itself failed
	// (timeout, connection error, provider 5xx).
	ErrAIInvocation = errors.New("ai provider invocation failed")

	// ErrAIResponseParse indicates the AI provider responded but the
	// response was not a usable candidate structure.
	ErrAIResponseParse = errors.New("ai response parse failed")

	// ErrAIUnavailable is the sentinel returned by the analysis adapter
	// after its retry budget is exhausted.
	ErrAIUnavailable = errors.New("ai provider unavailable after retries")

	// ErrSchemaValidation indicates a flow graph invariant violation.
	ErrSchemaValidation = errors.New("schema validation failed")

	// ErrLayout indicates a traversal anomaly during layout. The graph is
	// validated before layout runs, so this always means an upstream
	// invariant slipped through and is treated as a programming defect.
	ErrLayout = errors.New("layout traversal anomaly")

	// ErrGenerationExhausted indicates all three generation tiers failed.
	ErrGenerationExhausted = errors.New("all generation tiers exhausted")

	// ErrEmptyFlow indicates the IR contained no usable components.
	ErrEmptyFlow = errors.New("flow contains no components")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransient checks if an error is transient and may be retried within the
// current generation tier
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	return errors.Is(err, ErrAIInvocation) ||
		errors.Is(err, ErrAIResponseParse) ||
		errors.Is(err, context.DeadlineExceeded)
}

// IsInvalid checks if an error is a structural rejection that should trigger
// a tier downgrade rather than a retry
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return errors.Is(err, ErrUnsupportedComponentKind) ||
		errors.Is(err, ErrSchemaValidation) ||
		errors.Is(err, ErrEmptyFlow)
}

// IsFatal checks if an error should abort the job without downgrading
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	return errors.Is(err, ErrLayout) ||
		errors.Is(err, ErrGenerationExhausted)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	switch {
	case IsFatal(err):
		return ErrorFatal
	case IsInvalid(err):
		return ErrorInvalid
	default:
		// Unknown errors default to transient so the orchestrator keeps
		// its retry/downgrade ladder intact.
		return ErrorTransient
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	return wrapClassified(ErrorTransient, err, component, method, action)
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	return wrapClassified(ErrorInvalid, err, component, method, action)
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	return wrapClassified(ErrorFatal, err, component, method, action)
}

func wrapClassified(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return &ClassifiedError{
		Class:     class,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: method,
	}
}
