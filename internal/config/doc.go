// Package config provides configuration management for sefaria-mcp.
//
// Configuration is resolved in layers, each overriding the previous one:
//
//  1. Built-in defaults (GetDefaultConfig)
//  2. An optional YAML file passed with --config
//  3. Environment variables (ApplyEnv)
//  4. Command-line flags, applied by the cmd package
//
// # Configuration File
//
//	server:
//	  host: 0.0.0.0
//	  port: 8088
//	  transport: sse          # sse, streamable-http or stdio
//	  publicURL: https://mcp.sefaria.org
//	  discoveryStubs: true
//	metrics:
//	  enabled: true
//	  port: 9090
//	upstream:
//	  apiBaseURL: https://www.sefaria.org
//	  aiBaseURL: https://ai.sefaria.org
//	  timeout: 30s
//	logging:
//	  level: info
//	  format: json
//	tracing:
//	  exporter: none          # none or stdout
//
// A missing file is not an error; the defaults are used.
//
// # Environment
//
// SEFARIA_API_BASE_URL and SEFARIA_AI_BASE_URL point at the upstream APIs.
// When VIRTUAL_HAVRUTA_HTTP_SERVICE_HOST and VIRTUAL_HAVRUTA_HTTP_SERVICE_PORT
// are both set, the AI base URL is built from them instead.
// SEFARIA_MCP_HOST and SEFARIA_MCP_PORT override the listen address.
//
// # Validation
//
// Validate checks the whole configuration and returns ValidationErrors
// listing every problem found, not just the first.
package config
