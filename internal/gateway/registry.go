package gateway

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Sefaria/sefaria-mcp/internal/api"
)

// Tool is a registered descriptor together with what the gateway derives
// from it at registration time.
type Tool struct {
	Descriptor api.ToolDescriptor

	inputSchema mcp.ToolInputSchema
	validator   *argValidator
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return t.Descriptor.Name
}

// MCPTool returns the tool definition advertised in tools/list.
func (t *Tool) MCPTool() mcp.Tool {
	return mcp.Tool{
		Name:        t.Descriptor.Name,
		Description: t.Descriptor.Description,
		InputSchema: t.inputSchema,
	}
}

// Registry is the catalog of tools served by the gateway.
//
// It is filled once at startup and then frozen. Register is serialized;
// after Freeze the registry never changes, so Resolve and Tools take no
// locks and are safe from any number of sessions.
type Registry struct {
	mu     sync.Mutex
	frozen atomic.Bool

	tools  []*Tool
	byName map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Tool)}
}

// Register adds a tool. Empty or duplicate names, a missing operation, an
// argument schema that does not compile and registering after Freeze all
// yield a *api.ConfigError.
func (r *Registry) Register(d api.ToolDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return &api.ConfigError{Field: d.Name, Reason: "registry is frozen"}
	}
	if d.Name == "" {
		return &api.ConfigError{Field: "name", Reason: "tool name must not be empty"}
	}
	if _, exists := r.byName[d.Name]; exists {
		return &api.ConfigError{Field: d.Name, Reason: fmt.Sprintf("duplicate tool name %q", d.Name)}
	}
	if d.Operation == nil {
		return &api.ConfigError{Field: d.Name, Reason: "tool has no operation"}
	}

	seen := make(map[string]struct{}, len(d.Args))
	for _, arg := range d.Args {
		if arg.Name == "" {
			return &api.ConfigError{Field: d.Name, Reason: "argument name must not be empty"}
		}
		if _, dup := seen[arg.Name]; dup {
			return &api.ConfigError{Field: d.Name, Reason: fmt.Sprintf("duplicate argument %q", arg.Name)}
		}
		seen[arg.Name] = struct{}{}
	}

	validator, err := compileArgValidator(d)
	if err != nil {
		return err
	}

	// Copy the argument slice so later changes by the caller cannot leak in.
	d.Args = append([]api.ArgSpec(nil), d.Args...)

	tool := &Tool{
		Descriptor:  d,
		inputSchema: convertToMCPSchema(d.Args),
		validator:   validator,
	}
	r.tools = append(r.tools, tool)
	r.byName[d.Name] = tool
	return nil
}

// RegisterAll registers every descriptor, stopping at the first error.
func (r *Registry) RegisterAll(descriptors []api.ToolDescriptor) error {
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Resolve returns the tool registered under name, or a *api.NotFoundError.
func (r *Registry) Resolve(name string) (*Tool, error) {
	tool, ok := r.byName[name]
	if !ok {
		return nil, api.NewToolNotFoundError(name)
	}
	return tool, nil
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []*Tool {
	out := make([]*Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}
