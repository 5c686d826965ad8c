package api

import (
	"context"
)

// LogSink is the logger handed to an Operation for the duration of one call.
// *logging.Logger satisfies it.
type LogSink interface {
	Debug(messageFmt string, args ...interface{})
	Info(messageFmt string, args ...interface{})
	Warn(messageFmt string, args ...interface{})
	Error(err error, messageFmt string, args ...interface{})
}

// Operation is the contract every knowledge-retrieval operation satisfies.
type Operation func(ctx context.Context, log LogSink, args Args) (Result, error)

// ArgSpec describes one named argument of a tool.
type ArgSpec struct {
	Name        string
	Type        string // "string", "integer", "number", "boolean", "array", "object"
	Description string
	Required    bool
	Default     interface{}

	// Schema optionally replaces the type-derived JSON Schema for this
	// argument, e.g. to constrain array items or enumerate allowed values.
	Schema map[string]interface{}
}

// ToolDescriptor binds a tool name and argument schema to an Operation.
// Descriptors are immutable once registered.
type ToolDescriptor struct {
	Name        string
	Description string
	Args        []ArgSpec
	Operation   Operation
}

// ArgNames returns the declared argument names in order.
func (d ToolDescriptor) ArgNames() []string {
	names := make([]string, 0, len(d.Args))
	for _, a := range d.Args {
		names = append(names, a.Name)
	}
	return names
}

// NopLogSink discards everything. Useful in tests and for callers that
// invoke operations outside the gateway.
type NopLogSink struct{}

func (NopLogSink) Debug(string, ...interface{})        {}
func (NopLogSink) Info(string, ...interface{})         {}
func (NopLogSink) Warn(string, ...interface{})         {}
func (NopLogSink) Error(error, string, ...interface{}) {}
