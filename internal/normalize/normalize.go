// Package normalize turns operation results into the canonical wire payload
// sent to MCP clients.
//
// Every payload is valid UTF-8. Structured values are JSON with non-ASCII
// characters kept literal (Hebrew and Aramaic must round-trip byte for byte)
// and HTML escaping disabled. Normalization never fails: a value that cannot
// be encoded degrades to its %v form.
package normalize

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Sefaria/sefaria-mcp/internal/api"
)

const indent = "  "

// Payload is a normalized result.
type Payload struct {
	// Text is the wire string. For binary results it holds the JSON
	// metadata that accompanies the data.
	Text string

	// Data and MIMEType are set for binary results only.
	Data     []byte
	MIMEType string

	// Size is the number of bytes accounted for metrics: the length of Text,
	// or the raw length of Data for binary results.
	Size int

	// Degraded is true when a structured value could not be encoded and
	// Text holds a best-effort string instead.
	Degraded bool
}

// IsBinary reports whether the payload carries raw data.
func (p Payload) IsBinary() bool {
	return p.Data != nil
}

// Normalize resolves a tagged result into its wire payload.
func Normalize(r api.Result) Payload {
	switch r.Kind() {
	case api.KindStructured:
		text, ok := Encode(r.Value())
		return Payload{Text: text, Size: len(text), Degraded: !ok}

	case api.KindBinary:
		data := r.Bytes()
		if data == nil {
			data = []byte{}
		}
		mimeType := r.MIMEType()
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		meta := r.Value()
		if meta == nil {
			meta = map[string]interface{}{
				"mime_type": mimeType,
				"size":      len(data),
			}
		}
		text, ok := Encode(meta)
		return Payload{Text: text, Data: data, MIMEType: mimeType, Size: len(data), Degraded: !ok}

	default:
		text := sanitize(r.TextValue())
		return Payload{Text: text, Size: len(text)}
	}
}

// Encode serializes v as indented JSON. The boolean is false when encoding
// failed and the returned string is the %v fallback.
func Encode(v interface{}) (text string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			text, ok = sanitize(fmt.Sprintf("%v", v)), false
		}
	}()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return sanitize(fmt.Sprintf("%v", v)), false
	}
	return strings.TrimSuffix(buf.String(), "\n"), true
}

// ToMCP builds the tool result sent over the transport.
func ToMCP(p Payload) *mcp.CallToolResult {
	if p.IsBinary() {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewImageContent(base64.StdEncoding.EncodeToString(p.Data), p.MIMEType),
				mcp.NewTextContent(p.Text),
			},
		}
	}
	return mcp.NewToolResultText(p.Text)
}

func sanitize(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}
