package gateway

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Sefaria/sefaria-mcp/internal/api"
)

// argPropertySchema builds the JSON Schema of a single argument. A detailed
// Schema on the ArgSpec wins over the basic type; the description and
// default always come from the ArgSpec itself.
func argPropertySchema(arg api.ArgSpec) map[string]interface{} {
	var prop map[string]interface{}

	if len(arg.Schema) > 0 {
		prop = make(map[string]interface{}, len(arg.Schema)+2)
		for key, value := range arg.Schema {
			prop[key] = value
		}
	} else {
		prop = map[string]interface{}{
			"type": arg.Type,
		}
	}

	if arg.Description != "" {
		prop["description"] = arg.Description
	}
	if arg.Default != nil {
		prop["default"] = arg.Default
	}
	return prop
}

// convertToMCPSchema converts argument specs to the input schema advertised
// in tools/list.
func convertToMCPSchema(args []api.ArgSpec) mcp.ToolInputSchema {
	properties := make(map[string]interface{}, len(args))
	required := []string{}

	for _, arg := range args {
		properties[arg.Name] = argPropertySchema(arg)
		if arg.Required {
			required = append(required, arg.Name)
		}
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// schemaDocument returns the same schema as a plain JSON document, as used
// for argument validation.
func schemaDocument(args []api.ArgSpec) map[string]interface{} {
	s := convertToMCPSchema(args)
	doc := map[string]interface{}{
		"type":       s.Type,
		"properties": s.Properties,
	}
	if len(s.Required) > 0 {
		doc["required"] = s.Required
	}
	return doc
}
