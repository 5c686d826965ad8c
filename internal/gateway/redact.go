package gateway

import (
	"encoding/json"
	"fmt"
	"regexp"

	pkgstrings "github.com/Sefaria/sefaria-mcp/pkg/strings"
)

const (
	redactedValue = "[REDACTED]"

	// Strings longer than this are cut in log lines.
	maxLoggedStringRunes = 200
)

// sensitiveKey matches argument names whose values are never logged.
var sensitiveKey = regexp.MustCompile(`(?i)(pass(word)?|secret|token|api[_-]?key|authorization|cookie|credential)`)

// scrubPatterns are applied to every string value that is logged.
var scrubPatterns = []struct {
	name  string
	regex *regexp.Regexp
}{
	{"bearer-token", regexp.MustCompile(`Bearer [A-Za-z0-9\-._~+/]+=*`)},
	{"basic-auth", regexp.MustCompile(`Basic [A-Za-z0-9+/]+=*`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]+`)},
	{"api-key", regexp.MustCompile(`(?i)(api[_-]?key|apikey|secret[_-]?key)\s*[:=]\s*\S+`)},
}

// redactArgs renders call arguments for a log line. Sensitive keys are
// masked, credentials inside strings are scrubbed and long strings are
// truncated. It never fails: values that cannot be marshaled fall back to
// their %v form.
func redactArgs(args map[string]interface{}) string {
	view := redactValue(args, 0)
	b, err := json.Marshal(view)
	if err != nil {
		return fmt.Sprintf("%v", view)
	}
	return string(b)
}

const maxRedactDepth = 8

func redactValue(v interface{}, depth int) interface{} {
	if depth > maxRedactDepth {
		return "..."
	}
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			if sensitiveKey.MatchString(k) {
				out[k] = redactedValue
				continue
			}
			out[k] = redactValue(item, depth+1)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = redactValue(item, depth+1)
		}
		return out
	case string:
		return redactString(val)
	default:
		return v
	}
}

func redactString(s string) string {
	for _, p := range scrubPatterns {
		s = p.regex.ReplaceAllString(s, "[REDACTED:"+p.name+"]")
	}
	return pkgstrings.Truncate(s, maxLoggedStringRunes)
}
