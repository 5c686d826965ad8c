package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// NotFoundError represents a resource not found error with contextual information.
// The gateway returns it when a call names a tool that is not registered.
type NotFoundError struct {
	// ResourceType categorizes the type of resource that was not found (e.g. "tool")
	ResourceType string

	// ResourceName is the specific identifier of the resource that was not found
	ResourceName string

	// Message provides a custom error message if the default format is insufficient
	Message string
}

// Error implements the error interface for NotFoundError.
// Returns either the custom message if provided, or a formatted default message
// using the resource type and name.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// IsNotFound checks if an error is a NotFoundError using error unwrapping.
//
// Example:
//
//	tool, err := registry.Resolve("nonexistent")
//	if api.IsNotFound(err) {
//	    // report "unknown tool" to the caller
//	}
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// NewNotFoundError creates a new NotFoundError with the specified resource type and name.
func NewNotFoundError(resourceType, resourceName string) *NotFoundError {
	return &NotFoundError{
		ResourceType: resourceType,
		ResourceName: resourceName,
	}
}

// NewToolNotFoundError creates a tool not found error.
func NewToolNotFoundError(name string) *NotFoundError {
	return &NotFoundError{
		ResourceType: "tool",
		ResourceName: name,
		Message:      fmt.Sprintf("unknown tool: %s", name),
	}
}

// ConfigError reports an inconsistency detected while assembling the
// gateway, such as a duplicate tool name. It is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// InvalidArgumentsError is returned when a call's arguments do not match
// the tool's declared schema. Problems lists each violation.
type InvalidArgumentsError struct {
	Tool     string
	Problems []string
}

func (e *InvalidArgumentsError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("invalid arguments for %s", e.Tool)
	}
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Problems, "; "))
}

// PanicError wraps a value recovered from a panicking operation.
type PanicError struct {
	Tool  string
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("tool %s panicked: %v", e.Tool, e.Value)
}

// ErrorKind is the metrics label used to classify a failed invocation.
type ErrorKind string

const (
	ErrorKindInvalidArguments    ErrorKind = "invalid_arguments"
	ErrorKindTimeout             ErrorKind = "timeout"
	ErrorKindCanceled            ErrorKind = "canceled"
	ErrorKindUpstreamStatus      ErrorKind = "upstream_status"
	ErrorKindUpstreamUnreachable ErrorKind = "upstream_unreachable"
	ErrorKindDecode              ErrorKind = "decode"
	ErrorKindInternal            ErrorKind = "internal"
)

// Kinded is implemented by errors that know their own ErrorKind.
type Kinded interface {
	error
	ErrorKind() ErrorKind
}

// KindOf classifies err. The first match wins, in this order: an error in
// the chain implementing Kinded, argument and panic errors, context
// cancellation, network failures, JSON decoding failures. Anything else is
// ErrorKindInternal. KindOf(nil) returns "".
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var kinded Kinded
	if errors.As(err, &kinded) {
		return kinded.ErrorKind()
	}

	var argErr *InvalidArgumentsError
	if errors.As(err, &argErr) {
		return ErrorKindInvalidArguments
	}

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return ErrorKindInternal
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTimeout
	case errors.Is(err, context.Canceled):
		return ErrorKindCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorKindTimeout
		}
		return ErrorKindUpstreamUnreachable
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return ErrorKindDecode
	}

	return ErrorKindInternal
}
