package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/Sefaria/sefaria-mcp/internal/api"
)

// argValidator checks call arguments against a tool's compiled schema and
// fills in declared defaults.
type argValidator struct {
	tool     string
	schema   *jsonschema.Schema
	defaults map[string]interface{}
}

func schemaURL(tool string) string {
	return fmt.Sprintf("mem://tools/%s.schema.json", tool)
}

// compileArgValidator compiles the argument schema of d. A schema that does
// not compile is a configuration error.
func compileArgValidator(d api.ToolDescriptor) (*argValidator, error) {
	data, err := json.Marshal(schemaDocument(d.Args))
	if err != nil {
		return nil, &api.ConfigError{Field: d.Name, Reason: fmt.Sprintf("encode argument schema: %v", err)}
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, &api.ConfigError{Field: d.Name, Reason: fmt.Sprintf("decode argument schema: %v", err)}
	}

	c := jsonschema.NewCompiler()
	url := schemaURL(d.Name)
	if err := c.AddResource(url, doc); err != nil {
		return nil, &api.ConfigError{Field: d.Name, Reason: fmt.Sprintf("register argument schema: %v", err)}
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, &api.ConfigError{Field: d.Name, Reason: fmt.Sprintf("compile argument schema: %v", err)}
	}

	defaults := make(map[string]interface{})
	for _, arg := range d.Args {
		if arg.Default != nil {
			defaults[arg.Name] = arg.Default
		}
	}

	return &argValidator{tool: d.Name, schema: schema, defaults: defaults}, nil
}

// apply returns a validated copy of raw with defaults filled in. Explicit
// nulls count as omitted. raw is never modified.
func (v *argValidator) apply(raw map[string]interface{}) (api.Args, error) {
	args := make(api.Args, len(raw)+len(v.defaults))
	for k, val := range raw {
		if val != nil {
			args[k] = val
		}
	}
	for k, def := range v.defaults {
		if _, ok := args[k]; !ok {
			args[k] = def
		}
	}

	// Round-trip through the validator's own decoder so numbers are typed the
	// way it expects regardless of how the transport decoded them.
	data, err := json.Marshal(map[string]interface{}(args))
	if err != nil {
		return nil, &api.InvalidArgumentsError{Tool: v.tool, Problems: []string{err.Error()}}
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, &api.InvalidArgumentsError{Tool: v.tool, Problems: []string{err.Error()}}
	}

	if err := v.schema.Validate(instance); err != nil {
		return nil, &api.InvalidArgumentsError{Tool: v.tool, Problems: validationProblems(err)}
	}
	return args, nil
}

// validationProblems flattens a validation error into one line per
// violation.
func validationProblems(err error) []string {
	lines := strings.Split(err.Error(), "\n")
	problems := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "jsonschema validation failed") {
			continue
		}
		problems = append(problems, strings.TrimPrefix(line, "- "))
	}
	if len(problems) == 0 {
		problems = append(problems, err.Error())
	}
	return problems
}
