package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidatePort checks that port is a usable TCP port. Zero is accepted and
// means "pick a free port".
func ValidatePort(field string, port int) error {
	if port < 0 || port > 65535 {
		return ValidationError{
			Field:   field,
			Value:   port,
			Message: "must be between 0 and 65535",
		}
	}
	return nil
}

// ValidateBaseURL checks that value is an absolute http(s) URL.
func ValidateBaseURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: "must be an absolute http or https URL",
		}
	}
	return nil
}

// Validate reports every problem in c at once.
func (c Config) Validate() error {
	var errs ValidationErrors

	collect := func(err error) {
		if ve, ok := err.(ValidationError); ok {
			errs = append(errs, ve)
		}
	}

	collect(ValidateOneOf("server.transport", c.Server.Transport,
		[]string{MCPTransportSSE, MCPTransportStreamableHTTP, MCPTransportStdio}))
	collect(ValidatePort("server.port", c.Server.Port))
	if c.Server.PublicURL != "" {
		collect(ValidateBaseURL("server.publicURL", c.Server.PublicURL))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs.Add("server.shutdownTimeout", "must not be negative", c.Server.ShutdownTimeout)
	}
	if c.Server.SessionIdleTTL < 0 {
		errs.Add("server.sessionIdleTTL", "must not be negative", c.Server.SessionIdleTTL)
	}

	if c.Metrics.Enabled {
		collect(ValidatePort("metrics.port", c.Metrics.Port))
		if c.Transport() != MCPTransportStdio && c.Metrics.Port != 0 &&
			c.Metrics.Port == c.Server.Port {
			errs.Add("metrics.port", "must differ from server.port", c.Metrics.Port)
		}
	}

	collect(ValidateBaseURL("upstream.apiBaseURL", c.Upstream.APIBaseURL))
	collect(ValidateBaseURL("upstream.aiBaseURL", c.Upstream.AIBaseURL))
	if c.Upstream.Timeout <= 0 {
		errs.Add("upstream.timeout", "must be positive", c.Upstream.Timeout)
	}
	if c.Upstream.MaxImageBytes <= 0 {
		errs.Add("upstream.maxImageBytes", "must be positive", c.Upstream.MaxImageBytes)
	}

	collect(ValidateOneOf("logging.level", strings.ToLower(c.Logging.Level),
		[]string{"debug", "info", "warn", "warning", "error"}))
	collect(ValidateOneOf("logging.format", c.Logging.Format, []string{"text", "json"}))
	collect(ValidateOneOf("tracing.exporter", c.Tracing.Exporter, []string{"none", "stdout"}))

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Transport returns the configured transport name.
func (c Config) Transport() string {
	return c.Server.Transport
}

// ListenAddr returns host:port of the session transport.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MetricsAddr returns host:port of the metrics endpoint.
func (c Config) MetricsAddr() string {
	return fmt.Sprintf("%s:%d", c.Metrics.Host, c.Metrics.Port)
}
